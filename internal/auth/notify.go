// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import "context"

// Notifier delivers password-reset links. Delivery failure is a recoverable
// error: the reset flow logs it and still returns the anti-enumeration
// response to the caller.
type Notifier interface {
	// Send delivers a reset link to the given address.
	Send(ctx context.Context, toEmail, resetLink string) error
}

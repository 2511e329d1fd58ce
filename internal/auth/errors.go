// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when registering with an existing username.
var ErrUsernameTaken = errors.New("username already taken")

// ErrEmailTaken is returned when registering with an existing email.
var ErrEmailTaken = errors.New("email already taken")

// ErrTransient marks a store or notification failure that is safe to retry.
var ErrTransient = errors.New("transient failure")

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Account is an identity record. The reset token fields are either both nil
// or both set; they never diverge.
type Account struct {
	ID             ulid.ULID
	Username       string
	DisplayName    *string
	Email          *string
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time
	ResetTokenHash *string
	ResetExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLoginAt    *time.Time
}

// NewAccount creates a validated Account with a fresh ID. The password hash
// must already be computed; this constructor never sees a plaintext password.
func NewAccount(username, passwordHash string, email *string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_ACCOUNT").Errorf("password hash cannot be empty")
	}
	if email != nil && *email == "" {
		return nil, oops.Code("AUTH_INVALID_ACCOUNT").Errorf("email cannot be empty when provided")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// LockState returns the account's lockout view.
func (a *Account) LockState() LockState {
	return LockState{FailedAttempts: a.FailedAttempts, LockedUntil: a.LockedUntil}
}

// HasValidResetToken reports whether a reset token is outstanding at the
// given time. Expiry is enforced at read time, not only by cleanup.
func (a *Account) HasValidResetToken(now time.Time) bool {
	return a.ResetTokenHash != nil && a.ResetExpiresAt != nil && a.ResetExpiresAt.After(now)
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// AccountRepository manages account persistence. Counter, lock, and reset
// token mutations are single atomic read-modify-write statements so that
// concurrent attempts cannot observe intermediate state.
type AccountRepository interface {
	// Create stores a new account. Returns ErrUsernameTaken or ErrEmailTaken
	// (wrapped) on unique violations.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// RecordLoginFailure atomically increments the failure counter and sets
	// the lock expiry when the threshold is crossed. Returns the resulting
	// lock state.
	RecordLoginFailure(ctx context.Context, id ulid.ULID, now time.Time, policy LockoutPolicy) (LockState, error)

	// RecordLoginSuccess atomically resets the failure counter, clears the
	// lock, and stamps last-login. When rehash is non-nil the password hash
	// is replaced in the same statement.
	RecordLoginSuccess(ctx context.Context, id ulid.ULID, now time.Time, rehash *string) error

	// ClearLapsedLock resets the counter and lock after a lock has expired.
	ClearLapsedLock(ctx context.Context, id ulid.ULID) error

	// SetResetToken stores a reset token hash and expiry, overwriting any
	// outstanding token for the account.
	SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error

	// GetByResetTokenHash retrieves the account holding a reset token with
	// the given hash that is still valid at now. Absent and expired tokens
	// both return ErrNotFound (wrapped).
	GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Account, error)

	// ConsumeResetToken atomically sets the new password hash and nulls both
	// reset fields for the account holding a still-valid token with the
	// given hash. Returns ErrNotFound (wrapped) if no such token exists.
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (ulid.ULID, error)

	// UpdatePassword updates only the password hash for an account.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// UpdateProfile updates display name and email. Each field is checked
	// independently; nil leaves the stored value unchanged.
	UpdateProfile(ctx context.Context, id ulid.ULID, displayName, email *string) error
}

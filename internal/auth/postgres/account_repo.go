// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/docvault/docvault/internal/auth"
)

// Unique constraint names from the accounts migration.
const (
	accountsUsernameKey = "accounts_username_key"
	accountsEmailKey    = "accounts_email_key"
)

const accountColumns = `id, username, display_name, email, password_hash,
	failed_attempts, locked_until, reset_token_hash, reset_expires_at,
	created_at, updated_at, last_login_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool dbpool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool dbpool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, username, display_name, email, password_hash,
			failed_attempts, locked_until, reset_token_hash, reset_expires_at,
			created_at, updated_at, last_login_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		account.ID.String(),
		account.Username,
		account.DisplayName,
		account.Email,
		account.PasswordHash,
		account.FailedAttempts,
		account.LockedUntil,
		account.ResetTokenHash,
		account.ResetExpiresAt,
		account.CreatedAt,
		account.UpdatedAt,
		account.LastLoginAt,
	)
	if err != nil {
		switch uniqueViolation(err) {
		case accountsUsernameKey:
			return oops.Code("ACCOUNT_CREATE_FAILED").
				With("username", account.Username).
				Wrap(auth.ErrUsernameTaken)
		case accountsEmailKey:
			return oops.Code("ACCOUNT_CREATE_FAILED").
				With("username", account.Username).
				Wrap(auth.ErrEmailTaken)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Wrap(classify(err))
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())

	account, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(classify(err))
	}
	return account, nil
}

// GetByUsername retrieves an account by username (case-insensitive).
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE LOWER(username) = LOWER($1)
	`, username)

	account, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAME_FAILED").
			With("operation", "get account by username").
			With("username", username).
			Wrap(classify(err))
	}
	return account, nil
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`, email)

	account, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(classify(err))
	}
	return account, nil
}

// RecordLoginFailure increments the failure counter and sets the lock expiry
// when the threshold is crossed, in one statement. Two concurrent failing
// attempts therefore cannot both read the same counter and miss the lock.
func (r *AccountRepository) RecordLoginFailure(ctx context.Context, id ulid.ULID, now time.Time, policy auth.LockoutPolicy) (auth.LockState, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET failed_attempts = failed_attempts + 1,
		    locked_until = CASE
		        WHEN failed_attempts + 1 >= $2 THEN $3::timestamptz
		        ELSE locked_until
		    END,
		    updated_at = $4
		WHERE id = $1
		RETURNING failed_attempts, locked_until
	`, id.String(), policy.Threshold, now.Add(policy.Duration), now)

	var state auth.LockState
	err := row.Scan(&state.FailedAttempts, &state.LockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.LockState{}, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return auth.LockState{}, oops.Code("ACCOUNT_RECORD_FAILURE_FAILED").
			With("operation", "record login failure").
			With("id", id.String()).
			Wrap(classify(err))
	}
	return state, nil
}

// RecordLoginSuccess resets the counter, clears the lock, and stamps
// last-login. A non-nil rehash replaces the password hash in the same
// statement.
func (r *AccountRepository) RecordLoginSuccess(ctx context.Context, id ulid.ULID, now time.Time, rehash *string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET failed_attempts = 0,
		    locked_until = NULL,
		    password_hash = COALESCE($2, password_hash),
		    last_login_at = $3,
		    updated_at = $3
		WHERE id = $1
	`, id.String(), rehash, now)
	if err != nil {
		return oops.Code("ACCOUNT_RECORD_SUCCESS_FAILED").
			With("operation", "record login success").
			With("id", id.String()).
			Wrap(classify(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ClearLapsedLock resets the counter and lock once the lock has expired.
// The guard on locked_until makes the reset a no-op if another attempt
// already cleared it.
func (r *AccountRepository) ClearLapsedLock(ctx context.Context, id ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET failed_attempts = 0, locked_until = NULL
		WHERE id = $1 AND locked_until IS NOT NULL AND locked_until <= now()
	`, id.String())
	if err != nil {
		return oops.Code("ACCOUNT_CLEAR_LOCK_FAILED").
			With("operation", "clear lapsed lock").
			With("id", id.String()).
			Wrap(classify(err))
	}
	return nil
}

// SetResetToken stores a reset token hash and expiry, overwriting any
// outstanding token. Both fields are set together, never one without the
// other.
func (r *AccountRepository) SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET reset_token_hash = $2, reset_expires_at = $3, updated_at = now()
		WHERE id = $1
	`, id.String(), tokenHash, expiresAt)
	if err != nil {
		return oops.Code("ACCOUNT_SET_RESET_TOKEN_FAILED").
			With("operation", "set reset token").
			With("id", id.String()).
			Wrap(classify(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// GetByResetTokenHash retrieves the account holding a still-valid reset token.
// Expiry is enforced in the query, so expired tokens are indistinguishable
// from absent ones.
func (r *AccountRepository) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE reset_token_hash = $1 AND reset_expires_at > $2
	`, tokenHash, now)

	account, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_RESET_TOKEN_FAILED").
			With("operation", "get account by reset token hash").
			Wrap(classify(err))
	}
	return account, nil
}

// ConsumeResetToken sets the new password hash and nulls both reset fields in
// a single update guarded by token validity. A consumed, expired, or unknown
// token affects zero rows and returns ErrNotFound with no mutation, so the
// token can never be replayed.
func (r *AccountRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (ulid.ULID, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET password_hash = $2,
		    reset_token_hash = NULL,
		    reset_expires_at = NULL,
		    updated_at = $3
		WHERE reset_token_hash = $1 AND reset_expires_at > $3
		RETURNING id
	`, tokenHash, newPasswordHash, now)

	var idStr string
	err := row.Scan(&idStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return ulid.ULID{}, oops.Code("RESET_TOKEN_INVALID").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return ulid.ULID{}, oops.Code("ACCOUNT_CONSUME_RESET_TOKEN_FAILED").
			With("operation", "consume reset token").
			Wrap(classify(err))
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return ulid.ULID{}, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	return id, nil
}

// UpdatePassword updates only the password hash for an account.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`, id.String(), passwordHash)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(classify(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateProfile updates display name and email. Each field is checked and
// applied independently; a nil pointer leaves the stored value unchanged.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id ulid.ULID, displayName, email *string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET display_name = COALESCE($2, display_name),
		    email = COALESCE($3, email),
		    updated_at = now()
		WHERE id = $1
	`, id.String(), displayName, email)
	if err != nil {
		if uniqueViolation(err) == accountsEmailKey {
			return oops.Code("ACCOUNT_UPDATE_PROFILE_FAILED").
				With("id", id.String()).
				Wrap(auth.ErrEmailTaken)
		}
		return oops.Code("ACCOUNT_UPDATE_PROFILE_FAILED").
			With("operation", "update profile").
			With("id", id.String()).
			Wrap(classify(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *AccountRepository) scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr          string
		username       string
		displayName    *string
		email          *string
		passwordHash   string
		failedAttempts int
		lockedUntil    *time.Time
		resetTokenHash *string
		resetExpiresAt *time.Time
		createdAt      time.Time
		updatedAt      time.Time
		lastLoginAt    *time.Time
	)

	err := row.Scan(&idStr, &username, &displayName, &email, &passwordHash,
		&failedAttempts, &lockedUntil, &resetTokenHash, &resetExpiresAt,
		&createdAt, &updatedAt, &lastLoginAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Account{
		ID:             id,
		Username:       username,
		DisplayName:    displayName,
		Email:          email,
		PasswordHash:   passwordHash,
		FailedAttempts: failedAttempts,
		LockedUntil:    lockedUntil,
		ResetTokenHash: resetTokenHash,
		ResetExpiresAt: resetExpiresAt,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		LastLoginAt:    lastLoginAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)

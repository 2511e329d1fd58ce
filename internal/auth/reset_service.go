// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ResetService handles the forgot-password and reset-password flows.
type ResetService struct {
	accounts AccountRepository
	hasher   PasswordHasher
	notifier Notifier
	baseURL  string
	logger   *slog.Logger
}

// NewResetService creates a ResetService with a no-op logger.
// Returns an error if any required dependency is nil.
func NewResetService(accounts AccountRepository, hasher PasswordHasher, notifier Notifier, baseURL string) (*ResetService, error) {
	return NewResetServiceWithLogger(accounts, hasher, notifier, baseURL, slog.New(slog.DiscardHandler))
}

// NewResetServiceWithLogger creates a ResetService with the provided logger.
// Returns an error if any required dependency is nil.
func NewResetServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, notifier Notifier, baseURL string, logger *slog.Logger) (*ResetService, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}
	if baseURL == "" {
		return nil, oops.Errorf("reset base URL is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &ResetService{
		accounts: accounts,
		hasher:   hasher,
		notifier: notifier,
		baseURL:  baseURL,
		logger:   logger,
	}, nil
}

// RequestReset issues a reset token for the account holding the given email
// and hands the reset link to the notifier. The externally observable
// outcome is identical whether or not the email is registered, and whether
// or not notification delivery succeeds: callers always see success. Failures
// are logged for operational visibility only.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	var account *Account
	err := withRetry(ctx, func(ctx context.Context) error {
		var getErr error
		account, getErr = s.accounts.GetByEmail(ctx, email)
		return getErr
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// No such email. Respond exactly as if one existed.
			return nil
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	// Overwrites any outstanding token: one live token per account.
	expiresAt := time.Now().Add(ResetTokenExpiry)
	err = withRetry(ctx, func(ctx context.Context) error {
		return s.accounts.SetResetToken(ctx, account.ID, hash, expiresAt)
	})
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "store reset token").
			Wrap(err)
	}

	resetLink := fmt.Sprintf("%s/reset-password/%s", s.baseURL, token)
	if err := s.notifier.Send(ctx, email, resetLink); err != nil {
		// Anti-enumeration: a delivery failure still looks like success to
		// the caller. Logged as NOTIFY_FAILED so operators can see it.
		s.logger.Error("reset notification failed",
			"code", "NOTIFY_FAILED", "error", err)
	}

	return nil
}

// ResolveToken validates a reset token and returns the associated account ID.
// An absent or expired token returns the same error; expiry is enforced here
// at read time, not only by cleanup.
func (s *ResetService) ResolveToken(ctx context.Context, token string) (ulid.ULID, error) {
	if token == "" {
		return ulid.ULID{}, oops.Code("RESET_TOKEN_INVALID").Errorf("reset token is invalid or has expired")
	}

	hash := HashResetToken(token)

	account, err := s.getByTokenHash(ctx, hash)
	if err != nil {
		return ulid.ULID{}, err
	}
	return account.ID, nil
}

// getByTokenHash fetches the account holding a still-valid token hash.
func (s *ResetService) getByTokenHash(ctx context.Context, hash string) (*Account, error) {
	var account *Account
	err := withRetry(ctx, func(ctx context.Context) error {
		var getErr error
		account, getErr = s.accounts.GetByResetTokenHash(ctx, hash, time.Now())
		return getErr
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("RESET_TOKEN_INVALID").Errorf("reset token is invalid or has expired")
		}
		return nil, oops.Code("RESET_VALIDATE_FAILED").
			With("operation", "get account by reset token hash").
			Wrap(err)
	}
	return account, nil
}

// ResetPassword consumes a reset token and sets the new password. The
// consume is a single atomic update that replaces the hash and nulls both
// token fields; a token that is absent, expired, or already consumed yields
// RESET_TOKEN_INVALID with no mutation.
func (s *ResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	result := ValidatePassword(newPassword)
	if !result.Valid {
		return oops.Code("AUTH_WEAK_PASSWORD").
			With("violations", result.Violations).
			Errorf("password does not meet requirements")
	}

	if token == "" {
		return oops.Code("RESET_TOKEN_INVALID").Errorf("reset token is invalid or has expired")
	}

	newHash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	tokenHash := HashResetToken(token)
	err = withRetry(ctx, func(ctx context.Context) error {
		_, consumeErr := s.accounts.ConsumeResetToken(ctx, tokenHash, newHash, time.Now())
		return consumeErr
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RESET_TOKEN_INVALID").Errorf("reset token is invalid or has expired")
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "consume reset token").
			Wrap(err)
	}

	return nil
}

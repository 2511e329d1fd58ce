// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Retry configuration for transient store failures.
const (
	retryBaseDelay  = 50 * time.Millisecond
	retryMaxRetries = 3
)

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=3,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// ServiceConfig holds tunable orchestrator parameters.
type ServiceConfig struct {
	Lockout    LockoutPolicy
	SessionTTL time.Duration
}

// DefaultServiceConfig returns the standard orchestrator configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Lockout:    DefaultLockoutPolicy(),
		SessionTTL: SessionTokenTTL,
	}
}

// Service composes policy, hasher, account repository, and session store
// into the register/login/logout/change-password flows.
type Service struct {
	accounts AccountRepository
	sessions SessionStore
	hasher   PasswordHasher
	cfg      ServiceConfig
	logger   *slog.Logger
}

// NewService creates a Service with default configuration and a no-op logger.
// Returns an error if any required dependency is nil.
func NewService(accounts AccountRepository, sessions SessionStore, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithConfig(accounts, sessions, hasher, slog.New(slog.DiscardHandler), DefaultServiceConfig())
}

// NewServiceWithLogger creates a Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewServiceWithLogger(accounts AccountRepository, sessions SessionStore, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	return NewServiceWithConfig(accounts, sessions, hasher, logger, DefaultServiceConfig())
}

// NewServiceWithConfig creates a Service with explicit configuration.
// Returns an error if any required dependency is nil.
func NewServiceWithConfig(accounts AccountRepository, sessions SessionStore, hasher PasswordHasher, logger *slog.Logger, cfg ServiceConfig) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if cfg.Lockout.Threshold < 1 {
		cfg.Lockout = DefaultLockoutPolicy()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = SessionTokenTTL
	}
	return &Service{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// SessionTTL returns the configured session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}

// withRetry runs op, retrying transient failures with bounded fibonacci
// backoff before surfacing STORE_TRANSIENT.
func withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(retryMaxRetries, retry.NewFibonacci(retryBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			if errors.Is(err, ErrTransient) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil && errors.Is(err, ErrTransient) {
		return oops.Code("STORE_TRANSIENT").Wrap(err)
	}
	return err
}

// Register validates the password policy, checks uniqueness, hashes, and
// creates the account. No session is issued.
func (s *Service) Register(ctx context.Context, username, password string, email *string) (*Account, error) {
	result := ValidatePassword(password)
	if !result.Valid {
		return nil, oops.Code("AUTH_WEAK_PASSWORD").
			With("violations", result.Violations).
			Errorf("password does not meet requirements")
	}

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(username, passwordHash, email)
	if err != nil {
		return nil, err
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		return s.accounts.Create(ctx, account)
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, oops.Code("AUTH_USERNAME_TAKEN").
				With("username", username).
				Errorf("username is already taken")
		}
		if errors.Is(err, ErrEmailTaken) {
			return nil, oops.Code("AUTH_EMAIL_TAKEN").Errorf("email is already in use")
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	return account, nil
}

// Login authenticates an account and creates a session.
// Returns the session and its plaintext token for transport binding.
//
// Unknown usernames and wrong passwords produce the same error, and a dummy
// hash is verified when the account is absent so response time does not leak
// which case occurred.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, string, error) {
	now := time.Now()

	var account *Account
	err := withRetry(ctx, func(ctx context.Context) error {
		var lookupErr error
		account, lookupErr = s.accounts.GetByUsername(ctx, username)
		return lookupErr
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Still perform verification to maintain constant time.
			_, _ = s.hasher.Verify(ctx, password, dummyPasswordHash) //nolint:errcheck // dummy verify
			return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by username").
			Wrap(err)
	}

	// Evaluate the lock before the password: an active lock rejects the
	// attempt outright, with no counter change, even for a correct password.
	state, rejected, lapsed := account.LockState().EvaluateLock(now)
	if rejected {
		return nil, "", oops.Code("AUTH_ACCOUNT_LOCKED").
			With("locked_until", account.LockedUntil).
			Errorf("account is temporarily locked")
	}
	if lapsed {
		err = withRetry(ctx, func(ctx context.Context) error {
			return s.accounts.ClearLapsedLock(ctx, account.ID)
		})
		if err != nil {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "clear lapsed lock").
				Wrap(err)
		}
	}

	valid, err := s.hasher.Verify(ctx, password, account.PasswordHash)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}

	if !valid {
		// The repository performs the increment atomically; the pure FSM
		// result is only the fallback when that write fails.
		_, locked := state.RecordFailure(now, s.cfg.Lockout)
		stored, recordErr := s.accounts.RecordLoginFailure(ctx, account.ID, now, s.cfg.Lockout)
		if recordErr != nil {
			s.logger.Warn("failed to record login failure",
				"username", username, "error", recordErr)
		} else {
			locked = stored.LockedUntil != nil
		}
		if locked {
			return nil, "", oops.Code("AUTH_ACCOUNT_LOCKED").
				Errorf("account locked after too many failed attempts")
		}
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
	}

	// Success: reset the counter and stamp last-login. Rehash first if the
	// stored hash uses stale parameters.
	var rehash *string
	if s.hasher.NeedsRehash(account.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(ctx, password); hashErr == nil {
			rehash = &newHash
		}
	}
	if err := s.accounts.RecordLoginSuccess(ctx, account.ID, now, rehash); err != nil {
		// Login succeeds regardless; the counter reset is retried on the
		// next successful attempt.
		s.logger.Warn("failed to record login success",
			"username", username, "error", err)
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	display := account.Username
	if account.DisplayName != nil && *account.DisplayName != "" {
		display = *account.DisplayName
	}

	session, err := NewSession(tokenHash, SessionPayload{
		AccountID:     account.ID,
		DisplayName:   display,
		Authenticated: true,
	}, now.Add(s.cfg.SessionTTL))
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		return s.sessions.Set(ctx, session)
	})
	if err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return session, token, nil
}

// Logout destroys the session for the given plaintext token. Idempotent:
// logging out an absent session is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	tokenHash := HashSessionToken(token)
	err := withRetry(ctx, func(ctx context.Context) error {
		return s.sessions.Destroy(ctx, tokenHash)
	})
	if err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "destroy session").
			Wrap(err)
	}
	return nil
}

// CurrentSession resolves a plaintext token to its session. Both the HTTP
// and realtime transports call this for every request or inbound message;
// the session store stays the single source of truth. A valid lookup
// touches the session, which extends expiry under the sliding policy.
func (s *Service) CurrentSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_MISSING").Errorf("session token cannot be empty")
	}

	tokenHash := HashSessionToken(token)

	var session *Session
	err := withRetry(ctx, func(ctx context.Context) error {
		var getErr error
		session, getErr = s.sessions.Get(ctx, tokenHash)
		return getErr
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_MISSING").Errorf("session is missing or expired")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	// Touch is best effort; session validity does not depend on it.
	if err := s.sessions.Touch(ctx, tokenHash, time.Now()); err != nil {
		s.logger.Debug("failed to touch session", "error", err)
	}

	return session, nil
}

// ChangePassword verifies the current password and replaces it with a new
// one that satisfies the policy. Existing sessions stay valid.
func (s *Service) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error {
	session, err := s.CurrentSession(ctx, token)
	if err != nil {
		return err
	}

	result := ValidatePassword(newPassword)
	if !result.Valid {
		return oops.Code("AUTH_WEAK_PASSWORD").
			With("violations", result.Violations).
			Errorf("password does not meet requirements")
	}

	var account *Account
	err = withRetry(ctx, func(ctx context.Context) error {
		var getErr error
		account, getErr = s.accounts.GetByID(ctx, session.Payload.AccountID)
		return getErr
	})
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "get account").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(ctx, oldPassword, account.PasswordHash)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}
	if !valid {
		return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
	}

	newHash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		return s.accounts.UpdatePassword(ctx, account.ID, newHash)
	})
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "update password").
			Wrap(err)
	}
	return nil
}

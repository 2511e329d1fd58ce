// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32             // 32 bytes = 64 hex chars, 256 bits of entropy
	SessionTokenTTL   = 24 * time.Hour // default session lifetime
)

// SessionPayload is the small key/value payload bound to a session.
type SessionPayload struct {
	AccountID     ulid.ULID `json:"account_id"`
	DisplayName   string    `json:"display_name"`
	Authenticated bool      `json:"authenticated"`
}

// Session is a server-held proof of authentication. The client carries only
// the opaque plaintext token; the store keys records by its SHA-256 hash.
type Session struct {
	ID         ulid.ULID
	TokenHash  string
	Payload    SessionPayload
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

// NewSession creates a validated Session instance.
func NewSession(tokenHash string, payload SessionPayload, expiresAt time.Time) (*Session, error) {
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if payload.AccountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &Session{
		ID:         ulid.Make(),
		TokenHash:  tokenHash,
		Payload:    payload,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  expiresAt,
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsExpiredAt returns true if the session would be expired at the given time.
// Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is sent to the client; the hash is stored.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashSessionToken(token)

	return token, hash, nil
}

// HashSessionToken computes the SHA-256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken checks if the plaintext token matches the stored hash.
// Uses constant-time comparison to prevent timing attacks.
func VerifySessionToken(token, hash string) (bool, error) {
	if token == "" {
		return false, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}
	if hash == "" {
		return false, oops.Code("SESSION_HASH_EMPTY").Errorf("stored hash cannot be empty")
	}
	computed := HashSessionToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}

// ExpiryPolicy selects how session expiry advances.
type ExpiryPolicy string

// Expiry policies. Sliding extends on activity via Touch; absolute makes
// Touch a no-op on the expiry column. DocVault defaults to sliding.
const (
	ExpirySliding  ExpiryPolicy = "sliding"
	ExpiryAbsolute ExpiryPolicy = "absolute"
)

// SessionStore is the durable session capability shared by the HTTP request
// path and the realtime connection path. Implementations must be safe for
// concurrent use from both, and must never return an expired record.
type SessionStore interface {
	// Get retrieves a session by token hash. An expired or absent record
	// returns ErrNotFound (wrapped).
	Get(ctx context.Context, tokenHash string) (*Session, error)

	// Set creates or fully replaces a session.
	Set(ctx context.Context, session *Session) error

	// Touch stamps last-activity and, under a sliding policy, extends the
	// expiry by the session TTL. Under an absolute policy only the
	// last-seen timestamp advances.
	Touch(ctx context.Context, tokenHash string, now time.Time) error

	// Destroy removes a session. Destroying an absent session is not an error.
	Destroy(ctx context.Context, tokenHash string) error

	// DestroyByAccount removes all sessions for an account.
	DestroyByAccount(ctx context.Context, accountID ulid.ULID) error

	// Sweep removes all records with expiry at or before now and returns the
	// count of deleted records. Safe to run concurrently with Get/Set.
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

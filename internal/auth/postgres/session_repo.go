// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/docvault/docvault/internal/auth"
)

// SessionRepository implements auth.SessionStore using PostgreSQL. The same
// instance backs both the HTTP request path and the realtime connection path,
// so a session destroyed through one transport disappears from the other on
// the next lookup.
type SessionRepository struct {
	pool   dbpool
	policy auth.ExpiryPolicy
	ttl    time.Duration
}

// NewSessionRepository creates a SessionRepository with the given expiry
// policy. A non-positive ttl falls back to the default session TTL.
func NewSessionRepository(pool dbpool, policy auth.ExpiryPolicy, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = auth.SessionTokenTTL
	}
	if policy != auth.ExpiryAbsolute {
		policy = auth.ExpirySliding
	}
	return &SessionRepository{pool: pool, policy: policy, ttl: ttl}
}

// Get retrieves a live session by token hash. Expiry is enforced in the
// query, so an expired record is indistinguishable from an absent one.
func (r *SessionRepository) Get(ctx context.Context, tokenHash string) (*auth.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, token_hash, account_id, display_name, authenticated,
		       created_at, last_seen_at, expires_at
		FROM sessions
		WHERE token_hash = $1 AND expires_at > now()
	`, tokenHash)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session").
			Wrap(classify(err))
	}
	return session, nil
}

// Set creates or fully replaces a session keyed by token hash.
func (r *SessionRepository) Set(ctx context.Context, session *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (
			id, token_hash, account_id, display_name, authenticated,
			created_at, last_seen_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (token_hash) DO UPDATE SET
			id = EXCLUDED.id,
			account_id = EXCLUDED.account_id,
			display_name = EXCLUDED.display_name,
			authenticated = EXCLUDED.authenticated,
			created_at = EXCLUDED.created_at,
			last_seen_at = EXCLUDED.last_seen_at,
			expires_at = EXCLUDED.expires_at
	`,
		session.ID.String(),
		session.TokenHash,
		session.Payload.AccountID.String(),
		session.Payload.DisplayName,
		session.Payload.Authenticated,
		session.CreatedAt,
		session.LastSeenAt,
		session.ExpiresAt,
	)
	if err != nil {
		return oops.Code("SESSION_SET_FAILED").
			With("operation", "upsert session").
			Wrap(classify(err))
	}
	return nil
}

// Touch stamps last-activity. Under a sliding policy the expiry advances to
// now+TTL in the same statement; under an absolute policy the expiry column
// is untouched. Touching a missing or expired session returns ErrNotFound.
func (r *SessionRepository) Touch(ctx context.Context, tokenHash string, now time.Time) error {
	var result pgconn.CommandTag
	var err error
	if r.policy == auth.ExpirySliding {
		result, err = r.pool.Exec(ctx, `
			UPDATE sessions
			SET last_seen_at = $2, expires_at = $3
			WHERE token_hash = $1 AND expires_at > $2
		`, tokenHash, now, now.Add(r.ttl))
	} else {
		result, err = r.pool.Exec(ctx, `
			UPDATE sessions
			SET last_seen_at = $2
			WHERE token_hash = $1 AND expires_at > $2
		`, tokenHash, now)
	}
	if err != nil {
		return oops.Code("SESSION_TOUCH_FAILED").
			With("operation", "touch session").
			Wrap(classify(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// Destroy removes a session. Destroying an absent session is not an error.
func (r *SessionRepository) Destroy(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return oops.Code("SESSION_DESTROY_FAILED").
			With("operation", "destroy session").
			Wrap(classify(err))
	}
	return nil
}

// DestroyByAccount removes every session belonging to an account.
func (r *SessionRepository) DestroyByAccount(ctx context.Context, accountID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID.String())
	if err != nil {
		return oops.Code("SESSION_DESTROY_BY_ACCOUNT_FAILED").
			With("operation", "destroy sessions by account").
			With("account_id", accountID.String()).
			Wrap(classify(err))
	}
	return nil
}

// Sweep deletes every session expired at or before now and reports the count.
func (r *SessionRepository) Sweep(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").
			With("operation", "sweep sessions").
			Wrap(classify(err))
	}
	return result.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		idStr         string
		tokenHash     string
		accountIDStr  string
		displayName   string
		authenticated bool
		createdAt     time.Time
		lastSeenAt    time.Time
		expiresAt     time.Time
	)

	err := row.Scan(&idStr, &tokenHash, &accountIDStr, &displayName,
		&authenticated, &createdAt, &lastSeenAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}
	accountID, err := ulid.Parse(accountIDStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT_ID").
			With("account_id", accountIDStr).
			Wrap(err)
	}

	return &auth.Session{
		ID:        id,
		TokenHash: tokenHash,
		Payload: auth.SessionPayload{
			AccountID:     accountID,
			DisplayName:   displayName,
			Authenticated: authenticated,
		},
		CreatedAt:  createdAt,
		LastSeenAt: lastSeenAt,
		ExpiresAt:  expiresAt,
	}, nil
}

// Compile-time interface check.
var _ auth.SessionStore = (*SessionRepository)(nil)

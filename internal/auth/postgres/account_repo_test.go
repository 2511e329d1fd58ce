// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/auth"
)

const testPasswordHash = "$argon2id$v=19$m=65536,t=3,p=4$c29tZXNhbHQ$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"

var accountCols = []string{
	"id", "username", "display_name", "email", "password_hash",
	"failed_attempts", "locked_until", "reset_token_hash", "reset_expires_at",
	"created_at", "updated_at", "last_login_at",
}

func accountRow(id ulid.ULID, username string, now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(accountCols).
		AddRow(id.String(), username, nil, nil, testPasswordHash,
			0, nil, nil, nil, now, now, nil)
}

func uniqueErr(constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: constraint}
}

func TestAccountRepository_Create(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	account := &auth.Account{
		ID:           ulid.Make(),
		Username:     "alice",
		PasswordHash: testPasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(account.ID.String(), "alice", (*string)(nil), (*string)(nil), testPasswordHash,
						0, (*time.Time)(nil), (*string)(nil), (*time.Time)(nil), now, now, (*time.Time)(nil)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate username",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(account.ID.String(), "alice", (*string)(nil), (*string)(nil), testPasswordHash,
						0, (*time.Time)(nil), (*string)(nil), (*time.Time)(nil), now, now, (*time.Time)(nil)).
					WillReturnError(uniqueErr("accounts_username_key"))
			},
			wantErr: auth.ErrUsernameTaken,
		},
		{
			name: "duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(account.ID.String(), "alice", (*string)(nil), (*string)(nil), testPasswordHash,
						0, (*time.Time)(nil), (*string)(nil), (*time.Time)(nil), now, now, (*time.Time)(nil)).
					WillReturnError(uniqueErr("accounts_email_key"))
			},
			wantErr: auth.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewAccountRepository(mock)
			err = repo.Create(context.Background(), account)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	id := ulid.Make()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM accounts\s+WHERE LOWER\(username\) = LOWER\(\$1\)`).
			WithArgs("Alice").
			WillReturnRows(accountRow(id, "alice", now))

		repo := NewAccountRepository(mock)
		got, err := repo.GetByUsername(context.Background(), "Alice")

		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, testPasswordHash, got.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM accounts`).
			WithArgs("nobody").
			WillReturnRows(pgxmock.NewRows(accountCols))

		repo := NewAccountRepository(mock)
		_, err = repo.GetByUsername(context.Background(), "nobody")

		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM accounts`).
			WithArgs("alice").
			WillReturnError(errors.New("connection refused"))

		repo := NewAccountRepository(mock)
		_, err = repo.GetByUsername(context.Background(), "alice")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_GetByID(t *testing.T) {
	id := ulid.Make()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM accounts\s+WHERE id = \$1`).
			WithArgs(id.String()).
			WillReturnRows(accountRow(id, "alice", now))

		repo := NewAccountRepository(mock)
		got, err := repo.GetByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM accounts`).
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows(accountCols))

		repo := NewAccountRepository(mock)
		_, err = repo.GetByID(context.Background(), id)

		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_RecordLoginFailure(t *testing.T) {
	id := ulid.Make()
	now := time.Now().UTC()
	policy := auth.LockoutPolicy{Threshold: 5, Duration: 15 * time.Minute}

	t.Run("below threshold", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"failed_attempts", "locked_until"}).
			AddRow(3, nil)
		mock.ExpectQuery(`UPDATE accounts\s+SET failed_attempts = failed_attempts \+ 1`).
			WithArgs(id.String(), 5, now.Add(15*time.Minute), now).
			WillReturnRows(rows)

		repo := NewAccountRepository(mock)
		state, err := repo.RecordLoginFailure(context.Background(), id, now, policy)

		require.NoError(t, err)
		assert.Equal(t, 3, state.FailedAttempts)
		assert.Nil(t, state.LockedUntil)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("threshold crossed sets lock", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		lockedUntil := now.Add(15 * time.Minute)
		rows := pgxmock.NewRows([]string{"failed_attempts", "locked_until"}).
			AddRow(5, &lockedUntil)
		mock.ExpectQuery(`UPDATE accounts\s+SET failed_attempts = failed_attempts \+ 1`).
			WithArgs(id.String(), 5, lockedUntil, now).
			WillReturnRows(rows)

		repo := NewAccountRepository(mock)
		state, err := repo.RecordLoginFailure(context.Background(), id, now, policy)

		require.NoError(t, err)
		assert.Equal(t, 5, state.FailedAttempts)
		require.NotNil(t, state.LockedUntil)
		assert.True(t, state.IsLocked(now))
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("unknown account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`UPDATE accounts`).
			WithArgs(id.String(), 5, now.Add(15*time.Minute), now).
			WillReturnRows(pgxmock.NewRows([]string{"failed_attempts", "locked_until"}))

		repo := NewAccountRepository(mock)
		_, err = repo.RecordLoginFailure(context.Background(), id, now, policy)

		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_RecordLoginSuccess(t *testing.T) {
	id := ulid.Make()
	now := time.Now().UTC()

	t.Run("without rehash", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts\s+SET failed_attempts = 0`).
			WithArgs(id.String(), (*string)(nil), now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewAccountRepository(mock)
		err = repo.RecordLoginSuccess(context.Background(), id, now, nil)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("with rehash", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		rehash := testPasswordHash
		mock.ExpectExec(`UPDATE accounts\s+SET failed_attempts = 0`).
			WithArgs(id.String(), &rehash, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewAccountRepository(mock)
		err = repo.RecordLoginSuccess(context.Background(), id, now, &rehash)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("unknown account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(id.String(), (*string)(nil), now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewAccountRepository(mock)
		err = repo.RecordLoginSuccess(context.Background(), id, now, nil)

		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_ClearLapsedLock(t *testing.T) {
	id := ulid.Make()

	t.Run("clears expired lock", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts\s+SET failed_attempts = 0, locked_until = NULL`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewAccountRepository(mock)
		err = repo.ClearLapsedLock(context.Background(), id)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("no-op when already cleared", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewAccountRepository(mock)
		err = repo.ClearLapsedLock(context.Background(), id)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_SetResetToken(t *testing.T) {
	id := ulid.Make()
	expiresAt := time.Now().UTC().Add(time.Hour)

	t.Run("stores hash and expiry", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts\s+SET reset_token_hash = \$2`).
			WithArgs(id.String(), "tokenhash", expiresAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewAccountRepository(mock)
		err = repo.SetResetToken(context.Background(), id, "tokenhash", expiresAt)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("unknown account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(id.String(), "tokenhash", expiresAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewAccountRepository(mock)
		err = repo.SetResetToken(context.Background(), id, "tokenhash", expiresAt)

		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_ConsumeResetToken(t *testing.T) {
	id := ulid.Make()
	now := time.Now().UTC()

	t.Run("valid token consumed once", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id"}).AddRow(id.String())
		mock.ExpectQuery(`UPDATE accounts\s+SET password_hash = \$2,\s+reset_token_hash = NULL`).
			WithArgs("tokenhash", testPasswordHash, now).
			WillReturnRows(rows)

		repo := NewAccountRepository(mock)
		got, err := repo.ConsumeResetToken(context.Background(), "tokenhash", testPasswordHash, now)

		require.NoError(t, err)
		assert.Equal(t, id, got)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("expired or unknown token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`UPDATE accounts`).
			WithArgs("stale", testPasswordHash, now).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		repo := NewAccountRepository(mock)
		_, err = repo.ConsumeResetToken(context.Background(), "stale", testPasswordHash, now)

		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_GetByResetTokenHash(t *testing.T) {
	id := ulid.Make()
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM accounts\s+WHERE reset_token_hash = \$1 AND reset_expires_at > \$2`).
			WithArgs("tokenhash", now).
			WillReturnRows(accountRow(id, "alice", now))

		repo := NewAccountRepository(mock)
		got, err := repo.GetByResetTokenHash(context.Background(), "tokenhash", now)

		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("expired token invisible", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM accounts`).
			WithArgs("tokenhash", now).
			WillReturnRows(pgxmock.NewRows(accountCols))

		repo := NewAccountRepository(mock)
		_, err = repo.GetByResetTokenHash(context.Background(), "tokenhash", now)

		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_UpdateProfile(t *testing.T) {
	id := ulid.Make()

	t.Run("updates both fields", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		displayName := "Alice B"
		email := "alice@example.com"
		mock.ExpectExec(`UPDATE accounts\s+SET display_name = COALESCE`).
			WithArgs(id.String(), &displayName, &email).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewAccountRepository(mock)
		err = repo.UpdateProfile(context.Background(), id, &displayName, &email)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		email := "taken@example.com"
		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(id.String(), (*string)(nil), &email).
			WillReturnError(uniqueErr("accounts_email_key"))

		repo := NewAccountRepository(mock)
		err = repo.UpdateProfile(context.Background(), id, nil, &email)

		assert.ErrorIs(t, err, auth.ErrEmailTaken)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_TransientClassification(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM accounts`).
		WithArgs("alice").
		WillReturnError(context.DeadlineExceeded)

	repo := NewAccountRepository(mock)
	_, err = repo.GetByUsername(context.Background(), "alice")

	assert.ErrorIs(t, err, auth.ErrTransient)
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package postgres provides PostgreSQL implementations of the auth
// repositories and the session store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/docvault/docvault/internal/auth"
)

// classify tags retryable failures with auth.ErrTransient so the orchestrator
// can apply bounded backoff before surfacing STORE_TRANSIENT. Everything else
// passes through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w", auth.ErrTransient, err)
	}
	return err
}

// uniqueViolation extracts the violated constraint name when err is a
// Postgres unique violation. Returns "" otherwise.
func uniqueViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}

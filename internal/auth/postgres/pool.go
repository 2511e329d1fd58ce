// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbpool is the subset of pgxpool.Pool the repositories use. Mock pools
// satisfy it too, which keeps the repositories testable without a database.
type dbpool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

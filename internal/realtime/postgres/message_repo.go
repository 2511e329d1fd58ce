// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package postgres implements the realtime persistence interfaces on
// PostgreSQL via pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/docvault/docvault/internal/realtime"
)

type dbpool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const messageColumns = "id, account_id, display_name, body, created_at"

// MessageRepository stores chat messages in PostgreSQL.
type MessageRepository struct {
	pool dbpool
}

var _ realtime.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a PostgreSQL-backed MessageRepository.
func NewMessageRepository(pool dbpool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create persists one chat message.
func (r *MessageRepository) Create(ctx context.Context, msg *realtime.ChatMessage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (id, account_id, display_name, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		msg.ID.String(), msg.AccountID.String(), msg.DisplayName, msg.Body, msg.CreatedAt)
	if err != nil {
		return oops.Code("MESSAGE_CREATE_FAILED").
			With("message_id", msg.ID.String()).
			Wrapf(err, "inserting chat message")
	}
	return nil
}

// ListRecent returns up to limit newest messages, reordered oldest first
// so callers can replay them in sequence.
func (r *MessageRepository) ListRecent(ctx context.Context, limit int) ([]*realtime.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, oops.Code("MESSAGE_LIST_FAILED").Wrapf(err, "querying chat messages")
	}
	defer rows.Close()

	var msgs []*realtime.ChatMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("MESSAGE_LIST_FAILED").Wrapf(err, "reading chat messages")
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func scanMessage(row pgx.Row) (*realtime.ChatMessage, error) {
	var (
		msg                 realtime.ChatMessage
		idStr, accountIDStr string
	)
	if err := row.Scan(&idStr, &accountIDStr, &msg.DisplayName, &msg.Body, &msg.CreatedAt); err != nil {
		return nil, oops.Code("MESSAGE_SCAN_FAILED").Wrapf(err, "scanning chat message")
	}

	var err error
	msg.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("MESSAGE_SCAN_FAILED").
			With("id", idStr).
			Wrapf(err, "parsing message ID")
	}
	msg.AccountID, err = ulid.Parse(accountIDStr)
	if err != nil {
		return nil, oops.Code("MESSAGE_SCAN_FAILED").
			With("account_id", accountIDStr).
			Wrapf(err, "parsing account ID")
	}
	return &msg, nil
}

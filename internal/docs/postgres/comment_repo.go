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

	"github.com/docvault/docvault/internal/docs"
)

// CommentRepository implements docs.CommentRepository using PostgreSQL.
type CommentRepository struct {
	pool dbpool
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(pool dbpool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create stores a new comment.
func (r *CommentRepository) Create(ctx context.Context, comment *docs.Comment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO comments (id, document_id, author_id, body, edited, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		comment.ID.String(),
		comment.DocumentID.String(),
		comment.AuthorID.String(),
		comment.Body,
		comment.Edited,
		comment.CreatedAt,
	)
	if err != nil {
		return oops.Code("COMMENT_CREATE_FAILED").
			With("operation", "insert comment").
			With("id", comment.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a comment by ID without vote aggregates.
func (r *CommentRepository) GetByID(ctx context.Context, id ulid.ULID) (*docs.Comment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, document_id, author_id, body, edited, created_at
		FROM comments
		WHERE id = $1
	`, id.String())

	var (
		idStr     string
		docIDStr  string
		authorStr string
		body      string
		edited    bool
		createdAt time.Time
	)
	err := row.Scan(&idStr, &docIDStr, &authorStr, &body, &edited, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("COMMENT_NOT_FOUND").
			With("id", id.String()).
			Wrap(docs.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("COMMENT_GET_FAILED").
			With("operation", "get comment").
			With("id", id.String()).
			Wrap(err)
	}

	return assembleComment(idStr, docIDStr, authorStr, "", body, edited, createdAt, 0, 0)
}

// ListByDocument returns a page of comments newest first, each carrying its
// vote score and the viewer's own vote.
func (r *CommentRepository) ListByDocument(ctx context.Context, documentID, viewerID ulid.ULID, page docs.Page) ([]*docs.Comment, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM comments WHERE document_id = $1
	`, documentID.String()).Scan(&total)
	if err != nil {
		return nil, 0, oops.Code("COMMENT_LIST_FAILED").
			With("operation", "count comments").
			Wrap(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.document_id, c.author_id,
		       COALESCE(a.display_name, a.username) AS author_name,
		       c.body, c.edited, c.created_at,
		       COALESCE(SUM(v.value), 0)::int AS score,
		       COALESCE(MAX(CASE WHEN v.account_id = $2 THEN v.value END), 0)::int AS viewer_vote
		FROM comments c
		JOIN accounts a ON a.id = c.author_id
		LEFT JOIN comment_votes v ON v.comment_id = c.id
		WHERE c.document_id = $1
		GROUP BY c.id, a.display_name, a.username
		ORDER BY c.id DESC
		LIMIT $3 OFFSET $4
	`, documentID.String(), viewerID.String(), page.Size, page.Offset())
	if err != nil {
		return nil, 0, oops.Code("COMMENT_LIST_FAILED").
			With("operation", "list comments").
			Wrap(err)
	}
	defer rows.Close()

	var result []*docs.Comment
	for rows.Next() {
		var (
			idStr      string
			docIDStr   string
			authorStr  string
			authorName string
			body       string
			edited     bool
			createdAt  time.Time
			score      int
			viewerVote int
		)
		if err := rows.Scan(&idStr, &docIDStr, &authorStr, &authorName,
			&body, &edited, &createdAt, &score, &viewerVote); err != nil {
			return nil, 0, oops.Code("COMMENT_LIST_FAILED").
				With("operation", "scan comment row").
				Wrap(err)
		}
		comment, err := assembleComment(idStr, docIDStr, authorStr, authorName, body, edited, createdAt, score, viewerVote)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("COMMENT_LIST_FAILED").
			With("operation", "iterate comments").
			Wrap(err)
	}

	return result, total, nil
}

// UpdateBody replaces the body and marks the comment edited.
func (r *CommentRepository) UpdateBody(ctx context.Context, id ulid.ULID, body string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE comments SET body = $2, edited = true WHERE id = $1
	`, id.String(), body)
	if err != nil {
		return oops.Code("COMMENT_UPDATE_FAILED").
			With("operation", "update comment body").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("COMMENT_NOT_FOUND").
			With("id", id.String()).
			Wrap(docs.ErrNotFound)
	}
	return nil
}

// Delete removes a comment and, via cascade, its votes.
func (r *CommentRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("COMMENT_DELETE_FAILED").
			With("operation", "delete comment").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("COMMENT_NOT_FOUND").
			With("id", id.String()).
			Wrap(docs.ErrNotFound)
	}
	return nil
}

// ToggleVote casts, replaces, or retracts a vote in one statement. Re-casting
// the same value deletes the row; a different value upserts it. The removed
// CTE and the guarded insert cannot both apply, so two concurrent toggles
// serialize on the primary key instead of double-counting.
func (r *CommentRepository) ToggleVote(ctx context.Context, commentID, accountID ulid.ULID, value int) (int, error) {
	row := r.pool.QueryRow(ctx, `
		WITH removed AS (
			DELETE FROM comment_votes
			WHERE comment_id = $1 AND account_id = $2 AND value = $3
			RETURNING 1
		), upserted AS (
			INSERT INTO comment_votes (comment_id, account_id, value)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT (comment_id, account_id) DO UPDATE SET value = EXCLUDED.value
			RETURNING value
		)
		SELECT COALESCE((SELECT value FROM upserted), 0)
	`, commentID.String(), accountID.String(), value)

	var resulting int
	if err := row.Scan(&resulting); err != nil {
		return 0, oops.Code("VOTE_TOGGLE_FAILED").
			With("operation", "toggle vote").
			With("comment_id", commentID.String()).
			Wrap(err)
	}
	return resulting, nil
}

func assembleComment(idStr, docIDStr, authorStr, authorName, body string, edited bool, createdAt time.Time, score, viewerVote int) (*docs.Comment, error) {
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("COMMENT_INVALID_ID").With("id", idStr).Wrap(err)
	}
	docID, err := ulid.Parse(docIDStr)
	if err != nil {
		return nil, oops.Code("COMMENT_INVALID_ID").With("document_id", docIDStr).Wrap(err)
	}
	authorID, err := ulid.Parse(authorStr)
	if err != nil {
		return nil, oops.Code("COMMENT_INVALID_ID").With("author_id", authorStr).Wrap(err)
	}

	return &docs.Comment{
		ID:         id,
		DocumentID: docID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		Edited:     edited,
		CreatedAt:  createdAt,
		Score:      score,
		ViewerVote: viewerVote,
	}, nil
}

// Compile-time interface check.
var _ docs.CommentRepository = (*CommentRepository)(nil)

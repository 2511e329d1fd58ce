// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package postgres provides PostgreSQL implementations of the docs
// repositories.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/docvault/docvault/internal/docs"
)

// dbpool is the subset of pgxpool.Pool the repositories use. Mock pools
// satisfy it too.
type dbpool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const documentColumns = `id, owner_id, title, description, file_name,
	content_type, size_bytes, storage_path, public, created_at, updated_at`

// DocumentRepository implements docs.DocumentRepository using PostgreSQL.
type DocumentRepository struct {
	pool dbpool
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(pool dbpool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create stores a new document.
func (r *DocumentRepository) Create(ctx context.Context, doc *docs.Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (
			id, owner_id, title, description, file_name,
			content_type, size_bytes, storage_path, public, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		doc.ID.String(),
		doc.OwnerID.String(),
		doc.Title,
		doc.Description,
		doc.FileName,
		doc.ContentType,
		doc.SizeBytes,
		doc.StoragePath,
		doc.Public,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return oops.Code("DOC_CREATE_FAILED").
			With("operation", "insert document").
			With("id", doc.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a document by ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id ulid.ULID) (*docs.Document, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE id = $1
	`, id.String())

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("DOC_NOT_FOUND").
			With("id", id.String()).
			Wrap(docs.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("DOC_GET_FAILED").
			With("operation", "get document").
			With("id", id.String()).
			Wrap(err)
	}
	return doc, nil
}

// ListVisible returns the viewer's documents plus public ones, newest first,
// and the total count.
func (r *DocumentRepository) ListVisible(ctx context.Context, viewerID ulid.ULID, page docs.Page) ([]*docs.Document, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM documents WHERE owner_id = $1 OR public
	`, viewerID.String()).Scan(&total)
	if err != nil {
		return nil, 0, oops.Code("DOC_LIST_FAILED").
			With("operation", "count visible documents").
			Wrap(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE owner_id = $1 OR public
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, viewerID.String(), page.Size, page.Offset())
	if err != nil {
		return nil, 0, oops.Code("DOC_LIST_FAILED").
			With("operation", "list visible documents").
			Wrap(err)
	}
	defer rows.Close()

	var result []*docs.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, oops.Code("DOC_LIST_FAILED").
				With("operation", "scan document row").
				Wrap(err)
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("DOC_LIST_FAILED").
			With("operation", "iterate documents").
			Wrap(err)
	}

	return result, total, nil
}

// Update applies the non-nil fields only. Each field is checked and applied
// independently; a nil pointer leaves the stored value unchanged.
func (r *DocumentRepository) Update(ctx context.Context, id ulid.ULID, title, description *string, public *bool) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    public = COALESCE($4, public),
		    updated_at = now()
		WHERE id = $1
	`, id.String(), title, description, public)
	if err != nil {
		return oops.Code("DOC_UPDATE_FAILED").
			With("operation", "update document").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("DOC_NOT_FOUND").
			With("id", id.String()).
			Wrap(docs.ErrNotFound)
	}
	return nil
}

// Delete removes a document and, via cascade, its comments and votes.
func (r *DocumentRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("DOC_DELETE_FAILED").
			With("operation", "delete document").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("DOC_NOT_FOUND").
			With("id", id.String()).
			Wrap(docs.ErrNotFound)
	}
	return nil
}

func scanDocument(row pgx.Row) (*docs.Document, error) {
	var (
		idStr       string
		ownerIDStr  string
		title       string
		description string
		fileName    string
		contentType string
		sizeBytes   int64
		storagePath string
		public      bool
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&idStr, &ownerIDStr, &title, &description, &fileName,
		&contentType, &sizeBytes, &storagePath, &public, &createdAt, &updatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("DOC_INVALID_ID").With("id", idStr).Wrap(err)
	}
	ownerID, err := ulid.Parse(ownerIDStr)
	if err != nil {
		return nil, oops.Code("DOC_INVALID_ID").With("owner_id", ownerIDStr).Wrap(err)
	}

	return &docs.Document{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		StoragePath: storagePath,
		Public:      public,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// Compile-time interface check.
var _ docs.DocumentRepository = (*DocumentRepository)(nil)

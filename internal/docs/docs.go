// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package docs holds the document-sharing domain: documents, comments,
// and comment votes.
package docs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrNotFound is returned when a document or comment does not exist, or is
// not visible to the requester.
var ErrNotFound = errors.New("not found")

// MaxTitleLength bounds document titles.
const MaxTitleLength = 200

// MaxCommentLength bounds comment bodies.
const MaxCommentLength = 4000

// Document is an uploaded file plus its sharing metadata. A public document
// is readable by any authenticated account; a private one only by its owner.
type Document struct {
	ID          ulid.ULID
	OwnerID     ulid.ULID
	Title       string
	Description string
	FileName    string
	ContentType string
	SizeBytes   int64
	StoragePath string
	Public      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewDocument creates a validated Document owned by ownerID.
func NewDocument(ownerID ulid.ULID, title, fileName, storagePath string) (*Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, oops.Code("DOC_INVALID_TITLE").Errorf("title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return nil, oops.Code("DOC_INVALID_TITLE").
			With("length", len(title)).
			Errorf("title cannot exceed %d characters", MaxTitleLength)
	}
	if fileName == "" {
		return nil, oops.Code("DOC_INVALID_FILE").Errorf("file name cannot be empty")
	}
	if storagePath == "" {
		return nil, oops.Code("DOC_INVALID_FILE").Errorf("storage path cannot be empty")
	}

	now := time.Now()
	return &Document{
		ID:          ulid.Make(),
		OwnerID:     ownerID,
		Title:       title,
		FileName:    fileName,
		ContentType: "application/pdf",
		StoragePath: storagePath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ViewableBy reports whether accountID may read this document.
func (d *Document) ViewableBy(accountID ulid.ULID) bool {
	return d.Public || d.OwnerID.Compare(accountID) == 0
}

// OwnedBy reports whether accountID owns this document. Only the owner may
// modify or delete it.
func (d *Document) OwnedBy(accountID ulid.ULID) bool {
	return d.OwnerID.Compare(accountID) == 0
}

// Comment is a remark on a document. Score and ViewerVote are aggregates
// computed at read time, not stored columns.
type Comment struct {
	ID         ulid.ULID
	DocumentID ulid.ULID
	AuthorID   ulid.ULID
	AuthorName string
	Body       string
	Edited     bool
	CreatedAt  time.Time
	Score      int
	ViewerVote int
}

// NewComment creates a validated Comment.
func NewComment(documentID, authorID ulid.ULID, body string) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, oops.Code("COMMENT_INVALID_BODY").Errorf("comment body cannot be empty")
	}
	if len(body) > MaxCommentLength {
		return nil, oops.Code("COMMENT_INVALID_BODY").
			With("length", len(body)).
			Errorf("comment body cannot exceed %d characters", MaxCommentLength)
	}

	return &Comment{
		ID:         ulid.Make(),
		DocumentID: documentID,
		AuthorID:   authorID,
		Body:       body,
		CreatedAt:  time.Now(),
	}, nil
}

// Vote values. Votes toggle: casting the same value twice removes the vote.
const (
	VoteUp   = 1
	VoteDown = -1
)

// ValidVote reports whether value is an accepted vote value.
func ValidVote(value int) bool {
	return value == VoteUp || value == VoteDown
}

// DocumentRepository is the durable document capability.
type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id ulid.ULID) (*Document, error)

	// ListVisible returns documents the viewer may read (their own plus
	// public ones), newest first, and the total count for pagination.
	ListVisible(ctx context.Context, viewerID ulid.ULID, page Page) ([]*Document, int, error)

	// Update applies non-nil fields only; each field checked independently.
	Update(ctx context.Context, id ulid.ULID, title, description *string, public *bool) error

	Delete(ctx context.Context, id ulid.ULID) error
}

// CommentRepository is the durable comment-and-vote capability.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, id ulid.ULID) (*Comment, error)

	// ListByDocument returns comments newest first with vote scores and the
	// viewer's own vote, plus the total count for pagination.
	ListByDocument(ctx context.Context, documentID, viewerID ulid.ULID, page Page) ([]*Comment, int, error)

	// UpdateBody replaces the body and marks the comment edited.
	UpdateBody(ctx context.Context, id ulid.ULID, body string) error

	Delete(ctx context.Context, id ulid.ULID) error

	// ToggleVote casts value for (commentID, accountID). Re-casting the same
	// value removes the vote; a different value replaces it. The whole toggle
	// is a single atomic statement. Returns the viewer's resulting vote.
	ToggleVote(ctx context.Context, commentID, accountID ulid.ULID, value int) (int, error)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package docs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service enforces document visibility and ownership on top of the
// repositories. Handlers never touch the repositories directly.
type Service struct {
	documents DocumentRepository
	comments  CommentRepository
	logger    *slog.Logger
}

// NewService creates a document service.
func NewService(documents DocumentRepository, comments CommentRepository, logger *slog.Logger) (*Service, error) {
	if documents == nil {
		return nil, oops.Errorf("document repository is required")
	}
	if comments == nil {
		return nil, oops.Errorf("comment repository is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{documents: documents, comments: comments, logger: logger}, nil
}

// CreateDocument stores a new document owned by ownerID.
func (s *Service) CreateDocument(ctx context.Context, ownerID ulid.ULID, title, description, fileName, storagePath string, sizeBytes int64, public bool) (*Document, error) {
	doc, err := NewDocument(ownerID, title, fileName, storagePath)
	if err != nil {
		return nil, err
	}
	doc.Description = description
	doc.SizeBytes = sizeBytes
	doc.Public = public

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, oops.Code("DOC_CREATE_FAILED").Wrap(err)
	}

	s.logger.Info("document created",
		"document_id", doc.ID.String(),
		"owner_id", ownerID.String(),
		"public", public)
	return doc, nil
}

// GetDocument returns a document if the viewer may read it. A document the
// viewer cannot see is reported as not found, never as forbidden.
func (s *Service) GetDocument(ctx context.Context, id, viewerID ulid.ULID) (*Document, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.ViewableBy(viewerID) {
		return nil, oops.Code("DOC_NOT_FOUND").Wrap(ErrNotFound)
	}
	return doc, nil
}

// ListDocuments returns the page of documents visible to the viewer and the
// total count.
func (s *Service) ListDocuments(ctx context.Context, viewerID ulid.ULID, page Page) ([]*Document, int, error) {
	return s.documents.ListVisible(ctx, viewerID, page)
}

// UpdateDocument applies the non-nil fields. Only the owner may update.
func (s *Service) UpdateDocument(ctx context.Context, id, actorID ulid.ULID, title, description *string, public *bool) error {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !doc.OwnedBy(actorID) {
		return oops.Code("DOC_NOT_FOUND").Wrap(ErrNotFound)
	}
	return s.documents.Update(ctx, id, title, description, public)
}

// DeleteDocument removes a document. Only the owner may delete.
func (s *Service) DeleteDocument(ctx context.Context, id, actorID ulid.ULID) error {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !doc.OwnedBy(actorID) {
		return oops.Code("DOC_NOT_FOUND").Wrap(ErrNotFound)
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("document deleted",
		"document_id", id.String(),
		"owner_id", actorID.String())
	return nil
}

// AddComment attaches a comment to a document the author can see.
func (s *Service) AddComment(ctx context.Context, documentID, authorID ulid.ULID, body string) (*Comment, error) {
	if _, err := s.GetDocument(ctx, documentID, authorID); err != nil {
		return nil, err
	}

	comment, err := NewComment(documentID, authorID, body)
	if err != nil {
		return nil, err
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, oops.Code("COMMENT_CREATE_FAILED").Wrap(err)
	}
	return comment, nil
}

// ListComments returns a page of a document's comments with scores and the
// viewer's votes.
func (s *Service) ListComments(ctx context.Context, documentID, viewerID ulid.ULID, page Page) ([]*Comment, int, error) {
	if _, err := s.GetDocument(ctx, documentID, viewerID); err != nil {
		return nil, 0, err
	}
	return s.comments.ListByDocument(ctx, documentID, viewerID, page)
}

// EditComment replaces a comment's body and marks it edited. Only the author
// may edit.
func (s *Service) EditComment(ctx context.Context, commentID, actorID ulid.ULID, body string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID.Compare(actorID) != 0 {
		return oops.Code("COMMENT_NOT_FOUND").Wrap(ErrNotFound)
	}
	if _, err := NewComment(comment.DocumentID, actorID, body); err != nil {
		return err
	}
	return s.comments.UpdateBody(ctx, commentID, body)
}

// DeleteComment removes a comment. The author or the document owner may
// delete.
func (s *Service) DeleteComment(ctx context.Context, commentID, actorID ulid.ULID) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID.Compare(actorID) != 0 {
		doc, err := s.documents.GetByID(ctx, comment.DocumentID)
		if err != nil {
			return err
		}
		if !doc.OwnedBy(actorID) {
			return oops.Code("COMMENT_NOT_FOUND").Wrap(ErrNotFound)
		}
	}
	return s.comments.Delete(ctx, commentID)
}

// ToggleVote casts or retracts a vote on a comment the voter can see.
// Returns the voter's resulting vote: VoteUp, VoteDown, or 0 when retracted.
func (s *Service) ToggleVote(ctx context.Context, commentID, voterID ulid.ULID, value int) (int, error) {
	if !ValidVote(value) {
		return 0, oops.Code("VOTE_INVALID").
			With("value", value).
			Errorf("vote value must be %d or %d", VoteUp, VoteDown)
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return 0, err
	}
	if _, err := s.GetDocument(ctx, comment.DocumentID, voterID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, oops.Code("COMMENT_NOT_FOUND").Wrap(ErrNotFound)
		}
		return 0, err
	}

	return s.comments.ToggleVote(ctx, commentID, voterID, value)
}

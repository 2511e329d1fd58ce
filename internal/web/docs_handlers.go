// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/docvault/docvault/internal/docs"
)

// DocumentService is the slice of docs.Service the HTTP layer depends on.
type DocumentService interface {
	CreateDocument(ctx context.Context, ownerID ulid.ULID, title, description, fileName, storagePath string, sizeBytes int64, public bool) (*docs.Document, error)
	GetDocument(ctx context.Context, id, viewerID ulid.ULID) (*docs.Document, error)
	ListDocuments(ctx context.Context, viewerID ulid.ULID, page docs.Page) ([]*docs.Document, int, error)
	UpdateDocument(ctx context.Context, id, actorID ulid.ULID, title, description *string, public *bool) error
	DeleteDocument(ctx context.Context, id, actorID ulid.ULID) error
	AddComment(ctx context.Context, documentID, authorID ulid.ULID, body string) (*docs.Comment, error)
	ListComments(ctx context.Context, documentID, viewerID ulid.ULID, page docs.Page) ([]*docs.Comment, int, error)
	EditComment(ctx context.Context, commentID, actorID ulid.ULID, body string) error
	DeleteComment(ctx context.Context, commentID, actorID ulid.ULID) error
	ToggleVote(ctx context.Context, commentID, voterID ulid.ULID, value int) (int, error)
}

// DocsHandler serves the document and comment endpoints.
type DocsHandler struct {
	docs DocumentService
}

// NewDocsHandler creates a DocsHandler.
func NewDocsHandler(service DocumentService) (*DocsHandler, error) {
	if service == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("document service cannot be nil")
	}
	return &DocsHandler{docs: service}, nil
}

func pageFromQuery(r *http.Request) docs.Page {
	number, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	return docs.NewPage(number, size)
}

func idParam(r *http.Request, name string) (ulid.ULID, error) {
	id, err := ulid.Parse(chi.URLParam(r, name))
	if err != nil {
		return ulid.ULID{}, oops.Code("WEB_BAD_REQUEST").
			With("param", name).
			Wrapf(err, "parsing %s", name)
	}
	return id, nil
}

func documentJSON(doc *docs.Document) map[string]any {
	return map[string]any{
		"id":           doc.ID.String(),
		"owner_id":     doc.OwnerID.String(),
		"title":        doc.Title,
		"description":  doc.Description,
		"file_name":    doc.FileName,
		"content_type": doc.ContentType,
		"size_bytes":   doc.SizeBytes,
		"public":       doc.Public,
		"created_at":   doc.CreatedAt,
		"updated_at":   doc.UpdatedAt,
	}
}

func commentJSON(comment *docs.Comment) map[string]any {
	return map[string]any{
		"id":          comment.ID.String(),
		"document_id": comment.DocumentID.String(),
		"author_id":   comment.AuthorID.String(),
		"author_name": comment.AuthorName,
		"body":        comment.Body,
		"edited":      comment.Edited,
		"score":       comment.Score,
		"viewer_vote": comment.ViewerVote,
		"created_at":  comment.CreatedAt,
	}
}

type createDocumentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path"`
	SizeBytes   int64  `json:"size_bytes"`
	Public      bool   `json:"public"`
}

func (h *DocsHandler) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	var req createDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	doc, err := h.docs.CreateDocument(r.Context(), session.Payload.AccountID,
		req.Title, req.Description, req.FileName, req.StoragePath, req.SizeBytes, req.Public)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"document": documentJSON(doc)})
}

func (h *DocsHandler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	page := pageFromQuery(r)

	documents, total, err := h.docs.ListDocuments(r.Context(), session.Payload.AccountID, page)
	if err != nil {
		respondError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(documents))
	for _, doc := range documents {
		items = append(items, documentJSON(doc))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"documents":   items,
		"total":       total,
		"page":        page.Number,
		"total_pages": page.TotalPages(total),
	})
}

func (h *DocsHandler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	id, err := idParam(r, "documentID")
	if err != nil {
		respondError(w, err)
		return
	}

	doc, err := h.docs.GetDocument(r.Context(), id, session.Payload.AccountID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"document": documentJSON(doc)})
}

type updateDocumentRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Public      *bool   `json:"public,omitempty"`
}

func (h *DocsHandler) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	id, err := idParam(r, "documentID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req updateDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.docs.UpdateDocument(r.Context(), id, session.Payload.AccountID, req.Title, req.Description, req.Public); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *DocsHandler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	id, err := idParam(r, "documentID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.docs.DeleteDocument(r.Context(), id, session.Payload.AccountID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *DocsHandler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	documentID, err := idParam(r, "documentID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	comment, err := h.docs.AddComment(r.Context(), documentID, session.Payload.AccountID, req.Body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"comment": commentJSON(comment)})
}

func (h *DocsHandler) handleListComments(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	documentID, err := idParam(r, "documentID")
	if err != nil {
		respondError(w, err)
		return
	}
	page := pageFromQuery(r)

	comments, total, err := h.docs.ListComments(r.Context(), documentID, session.Payload.AccountID, page)
	if err != nil {
		respondError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(comments))
	for _, comment := range comments {
		items = append(items, commentJSON(comment))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"comments":    items,
		"total":       total,
		"page":        page.Number,
		"total_pages": page.TotalPages(total),
	})
}

func (h *DocsHandler) handleEditComment(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	commentID, err := idParam(r, "commentID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.docs.EditComment(r.Context(), commentID, session.Payload.AccountID, req.Body); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *DocsHandler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	commentID, err := idParam(r, "commentID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.docs.DeleteComment(r.Context(), commentID, session.Payload.AccountID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type voteRequest struct {
	Value int `json:"value"`
}

func (h *DocsHandler) handleToggleVote(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	commentID, err := idParam(r, "commentID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	value, err := h.docs.ToggleVote(r.Context(), commentID, session.Payload.AccountID, req.Value)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"viewer_vote": value})
}

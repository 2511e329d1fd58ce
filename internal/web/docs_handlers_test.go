// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package web_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/docs"
)

// withSession arranges a resolvable session and returns it with auth headers.
func withSession(tr *testRouter) (*auth.Session, map[string]string) {
	session := liveSession()
	tr.authSvc.On("CurrentSession", mock.Anything, "tok").Return(session, nil)
	return session, bearer("tok")
}

func testDocument(ownerID ulid.ULID, public bool) *docs.Document {
	return &docs.Document{
		ID:          ulid.Make(),
		OwnerID:     ownerID,
		Title:       "Quarterly Report",
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		StoragePath: "data/documents/report.pdf",
		Public:      public,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func TestDocumentEndpointsRequireSession(t *testing.T) {
	tr := newTestRouter(t)
	tr.authSvc.On("CurrentSession", mock.Anything, "").
		Return(nil, oops.Code("SESSION_MISSING").Errorf("session token cannot be empty"))

	rec := tr.do(http.MethodGet, "/v1/documents", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreateDocument(t *testing.T) {
	tr := newTestRouter(t)
	session, headers := withSession(tr)
	doc := testDocument(session.Payload.AccountID, false)

	tr.docSvc.On("CreateDocument", mock.Anything, session.Payload.AccountID,
		"Quarterly Report", "Q3 numbers", "report.pdf", "data/documents/report.pdf", int64(2048), false).
		Return(doc, nil)

	rec := tr.do(http.MethodPost, "/v1/documents",
		`{"title":"Quarterly Report","description":"Q3 numbers","file_name":"report.pdf","storage_path":"data/documents/report.pdf","size_bytes":2048,"public":false}`,
		headers)

	assert.Equal(t, http.StatusCreated, rec.Code)
	payload := decodeBody(t, rec)
	got := payload["document"].(map[string]any)
	assert.Equal(t, doc.ID.String(), got["id"])
	assert.Equal(t, "Quarterly Report", got["title"])
}

func TestHandleListDocuments(t *testing.T) {
	tr := newTestRouter(t)
	session, headers := withSession(tr)
	documents := []*docs.Document{
		testDocument(session.Payload.AccountID, false),
		testDocument(ulid.Make(), true),
	}

	tr.docSvc.On("ListDocuments", mock.Anything, session.Payload.AccountID, docs.NewPage(2, 10)).
		Return(documents, 42, nil)

	rec := tr.do(http.MethodGet, "/v1/documents?page=2&page_size=10", "", headers)

	assert.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Len(t, payload["documents"], 2)
	assert.Equal(t, float64(42), payload["total"])
	assert.Equal(t, float64(2), payload["page"])
	assert.Equal(t, float64(5), payload["total_pages"])
}

func TestHandleGetDocument(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		tr := newTestRouter(t)
		session, headers := withSession(tr)
		doc := testDocument(session.Payload.AccountID, false)

		tr.docSvc.On("GetDocument", mock.Anything, doc.ID, session.Payload.AccountID).
			Return(doc, nil)

		rec := tr.do(http.MethodGet, "/v1/documents/"+doc.ID.String(), "", headers)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invisible maps to 404", func(t *testing.T) {
		tr := newTestRouter(t)
		session, headers := withSession(tr)
		id := ulid.Make()

		tr.docSvc.On("GetDocument", mock.Anything, id, session.Payload.AccountID).
			Return(nil, oops.Code("DOC_NOT_FOUND").Errorf("document not found"))

		rec := tr.do(http.MethodGet, "/v1/documents/"+id.String(), "", headers)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id maps to 400", func(t *testing.T) {
		tr := newTestRouter(t)
		_, headers := withSession(tr)

		rec := tr.do(http.MethodGet, "/v1/documents/not-a-ulid", "", headers)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleUpdateDocument(t *testing.T) {
	tr := newTestRouter(t)
	session, headers := withSession(tr)
	id := ulid.Make()
	title := "Renamed"

	tr.docSvc.On("UpdateDocument", mock.Anything, id, session.Payload.AccountID,
		&title, (*string)(nil), (*bool)(nil)).Return(nil)

	rec := tr.do(http.MethodPatch, "/v1/documents/"+id.String(), `{"title":"Renamed"}`, headers)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleDeleteDocument(t *testing.T) {
	tr := newTestRouter(t)
	session, headers := withSession(tr)
	id := ulid.Make()

	tr.docSvc.On("DeleteDocument", mock.Anything, id, session.Payload.AccountID).Return(nil)

	rec := tr.do(http.MethodDelete, "/v1/documents/"+id.String(), "", headers)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleComments(t *testing.T) {
	t.Run("add comment", func(t *testing.T) {
		tr := newTestRouter(t)
		session, headers := withSession(tr)
		documentID := ulid.Make()
		comment := &docs.Comment{
			ID:         ulid.Make(),
			DocumentID: documentID,
			AuthorID:   session.Payload.AccountID,
			AuthorName: "alice",
			Body:       "nice report",
			CreatedAt:  time.Now(),
		}

		tr.docSvc.On("AddComment", mock.Anything, documentID, session.Payload.AccountID, "nice report").
			Return(comment, nil)

		rec := tr.do(http.MethodPost, "/v1/documents/"+documentID.String()+"/comments",
			`{"body":"nice report"}`, headers)

		assert.Equal(t, http.StatusCreated, rec.Code)
		payload := decodeBody(t, rec)
		got := payload["comment"].(map[string]any)
		assert.Equal(t, "nice report", got["body"])
		assert.Equal(t, "alice", got["author_name"])
	})

	t.Run("list comments with aggregates", func(t *testing.T) {
		tr := newTestRouter(t)
		session, headers := withSession(tr)
		documentID := ulid.Make()
		comments := []*docs.Comment{
			{ID: ulid.Make(), DocumentID: documentID, AuthorID: ulid.Make(),
				AuthorName: "bob", Body: "first", Score: 3, ViewerVote: 1, CreatedAt: time.Now()},
		}

		tr.docSvc.On("ListComments", mock.Anything, documentID, session.Payload.AccountID, docs.NewPage(1, 0)).
			Return(comments, 1, nil)

		rec := tr.do(http.MethodGet, "/v1/documents/"+documentID.String()+"/comments", "", headers)

		assert.Equal(t, http.StatusOK, rec.Code)
		payload := decodeBody(t, rec)
		require.Len(t, payload["comments"], 1)
		got := payload["comments"].([]any)[0].(map[string]any)
		assert.Equal(t, float64(3), got["score"])
		assert.Equal(t, float64(1), got["viewer_vote"])
	})

	t.Run("edit comment", func(t *testing.T) {
		tr := newTestRouter(t)
		session, headers := withSession(tr)
		commentID := ulid.Make()

		tr.docSvc.On("EditComment", mock.Anything, commentID, session.Payload.AccountID, "revised").
			Return(nil)

		rec := tr.do(http.MethodPatch, "/v1/comments/"+commentID.String(),
			`{"body":"revised"}`, headers)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("delete comment by non-author maps to 404", func(t *testing.T) {
		tr := newTestRouter(t)
		session, headers := withSession(tr)
		commentID := ulid.Make()

		tr.docSvc.On("DeleteComment", mock.Anything, commentID, session.Payload.AccountID).
			Return(oops.Code("COMMENT_NOT_FOUND").Errorf("comment not found"))

		rec := tr.do(http.MethodDelete, "/v1/comments/"+commentID.String(), "", headers)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleToggleVote(t *testing.T) {
	t.Run("casts vote", func(t *testing.T) {
		tr := newTestRouter(t)
		session, headers := withSession(tr)
		commentID := ulid.Make()

		tr.docSvc.On("ToggleVote", mock.Anything, commentID, session.Payload.AccountID, 1).
			Return(1, nil)

		rec := tr.do(http.MethodPost, "/v1/comments/"+commentID.String()+"/vote",
			`{"value":1}`, headers)

		assert.Equal(t, http.StatusOK, rec.Code)
		payload := decodeBody(t, rec)
		assert.Equal(t, float64(1), payload["viewer_vote"])
	})

	t.Run("invalid value maps to 400", func(t *testing.T) {
		tr := newTestRouter(t)
		session, headers := withSession(tr)
		commentID := ulid.Make()

		tr.docSvc.On("ToggleVote", mock.Anything, commentID, session.Payload.AccountID, 5).
			Return(0, oops.Code("VOTE_INVALID").Errorf("vote value must be 1 or -1"))

		rec := tr.do(http.MethodPost, "/v1/comments/"+commentID.String()+"/vote",
			`{"value":5}`, headers)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

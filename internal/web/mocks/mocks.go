// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package mocks provides testify mocks for the web service interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/docs"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockAuthService mocks web.AuthService.
type MockAuthService struct {
	mock.Mock
}

// NewMockAuthService creates a mock that asserts expectations on cleanup.
func NewMockAuthService(t testingT) *MockAuthService {
	m := &MockAuthService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuthService) Register(ctx context.Context, username, password string, email *string) (*auth.Account, error) {
	args := m.Called(ctx, username, password, email)
	if account := args.Get(0); account != nil {
		return account.(*auth.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*auth.Session, string, error) {
	args := m.Called(ctx, username, password)
	if session := args.Get(0); session != nil {
		return session.(*auth.Session), args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthService) CurrentSession(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if session := args.Get(0); session != nil {
		return session.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error {
	args := m.Called(ctx, token, oldPassword, newPassword)
	return args.Error(0)
}

func (m *MockAuthService) SessionTTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockResetService mocks web.ResetService.
type MockResetService struct {
	mock.Mock
}

// NewMockResetService creates a mock that asserts expectations on cleanup.
func NewMockResetService(t testingT) *MockResetService {
	m := &MockResetService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockResetService) RequestReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	args := m.Called(ctx, token, newPassword)
	return args.Error(0)
}

// MockDocumentService mocks web.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

// NewMockDocumentService creates a mock that asserts expectations on cleanup.
func NewMockDocumentService(t testingT) *MockDocumentService {
	m := &MockDocumentService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDocumentService) CreateDocument(ctx context.Context, ownerID ulid.ULID, title, description, fileName, storagePath string, sizeBytes int64, public bool) (*docs.Document, error) {
	args := m.Called(ctx, ownerID, title, description, fileName, storagePath, sizeBytes, public)
	if doc := args.Get(0); doc != nil {
		return doc.(*docs.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) GetDocument(ctx context.Context, id, viewerID ulid.ULID) (*docs.Document, error) {
	args := m.Called(ctx, id, viewerID)
	if doc := args.Get(0); doc != nil {
		return doc.(*docs.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) ListDocuments(ctx context.Context, viewerID ulid.ULID, page docs.Page) ([]*docs.Document, int, error) {
	args := m.Called(ctx, viewerID, page)
	if documents := args.Get(0); documents != nil {
		return documents.([]*docs.Document), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *MockDocumentService) UpdateDocument(ctx context.Context, id, actorID ulid.ULID, title, description *string, public *bool) error {
	args := m.Called(ctx, id, actorID, title, description, public)
	return args.Error(0)
}

func (m *MockDocumentService) DeleteDocument(ctx context.Context, id, actorID ulid.ULID) error {
	args := m.Called(ctx, id, actorID)
	return args.Error(0)
}

func (m *MockDocumentService) AddComment(ctx context.Context, documentID, authorID ulid.ULID, body string) (*docs.Comment, error) {
	args := m.Called(ctx, documentID, authorID, body)
	if comment := args.Get(0); comment != nil {
		return comment.(*docs.Comment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentService) ListComments(ctx context.Context, documentID, viewerID ulid.ULID, page docs.Page) ([]*docs.Comment, int, error) {
	args := m.Called(ctx, documentID, viewerID, page)
	if comments := args.Get(0); comments != nil {
		return comments.([]*docs.Comment), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *MockDocumentService) EditComment(ctx context.Context, commentID, actorID ulid.ULID, body string) error {
	args := m.Called(ctx, commentID, actorID, body)
	return args.Error(0)
}

func (m *MockDocumentService) DeleteComment(ctx context.Context, commentID, actorID ulid.ULID) error {
	args := m.Called(ctx, commentID, actorID)
	return args.Error(0)
}

func (m *MockDocumentService) ToggleVote(ctx context.Context, commentID, voterID ulid.ULID, value int) (int, error) {
	args := m.Called(ctx, commentID, voterID, value)
	return args.Int(0), args.Error(1)
}

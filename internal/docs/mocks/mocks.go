// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package mocks provides testify mocks for the docs repository interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/docvault/docvault/internal/docs"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockDocumentRepository mocks docs.DocumentRepository.
type MockDocumentRepository struct {
	mock.Mock
}

// NewMockDocumentRepository creates a mock that asserts expectations on cleanup.
func NewMockDocumentRepository(t testingT) *MockDocumentRepository {
	m := &MockDocumentRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *docs.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id ulid.ULID) (*docs.Document, error) {
	args := m.Called(ctx, id)
	if doc := args.Get(0); doc != nil {
		return doc.(*docs.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) ListVisible(ctx context.Context, viewerID ulid.ULID, page docs.Page) ([]*docs.Document, int, error) {
	args := m.Called(ctx, viewerID, page)
	var result []*docs.Document
	if v := args.Get(0); v != nil {
		result = v.([]*docs.Document)
	}
	return result, args.Int(1), args.Error(2)
}

func (m *MockDocumentRepository) Update(ctx context.Context, id ulid.ULID, title, description *string, public *bool) error {
	args := m.Called(ctx, id, title, description, public)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCommentRepository mocks docs.CommentRepository.
type MockCommentRepository struct {
	mock.Mock
}

// NewMockCommentRepository creates a mock that asserts expectations on cleanup.
func NewMockCommentRepository(t testingT) *MockCommentRepository {
	m := &MockCommentRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *docs.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id ulid.ULID) (*docs.Comment, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*docs.Comment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCommentRepository) ListByDocument(ctx context.Context, documentID, viewerID ulid.ULID, page docs.Page) ([]*docs.Comment, int, error) {
	args := m.Called(ctx, documentID, viewerID, page)
	var result []*docs.Comment
	if v := args.Get(0); v != nil {
		result = v.([]*docs.Comment)
	}
	return result, args.Int(1), args.Error(2)
}

func (m *MockCommentRepository) UpdateBody(ctx context.Context, id ulid.ULID, body string) error {
	args := m.Called(ctx, id, body)
	return args.Error(0)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCommentRepository) ToggleVote(ctx context.Context, commentID, accountID ulid.ULID, value int) (int, error) {
	args := m.Called(ctx, commentID, accountID, value)
	return args.Int(0), args.Error(1)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package mocks provides testify mocks for the realtime interfaces.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/realtime"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockMessageRepository mocks realtime.MessageRepository.
type MockMessageRepository struct {
	mock.Mock
}

// NewMockMessageRepository creates a mock that asserts expectations on cleanup.
func NewMockMessageRepository(t testingT) *MockMessageRepository {
	m := &MockMessageRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *realtime.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ListRecent(ctx context.Context, limit int) ([]*realtime.ChatMessage, error) {
	args := m.Called(ctx, limit)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]*realtime.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSessionResolver mocks realtime.SessionResolver.
type MockSessionResolver struct {
	mock.Mock
}

// NewMockSessionResolver creates a mock that asserts expectations on cleanup.
func NewMockSessionResolver(t testingT) *MockSessionResolver {
	m := &MockSessionResolver{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionResolver) CurrentSession(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if session := args.Get(0); session != nil {
		return session.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockBroadcaster mocks realtime.Broadcaster.
type MockBroadcaster struct {
	mock.Mock
}

// NewMockBroadcaster creates a mock that asserts expectations on cleanup.
func NewMockBroadcaster(t testingT) *MockBroadcaster {
	m := &MockBroadcaster{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBroadcaster) PublishMessage(ctx context.Context, msg *realtime.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockBroadcaster) SubscribeMessages(handler func(*realtime.ChatMessage)) (io.Closer, error) {
	args := m.Called(handler)
	if closer := args.Get(0); closer != nil {
		return closer.(io.Closer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBroadcaster) Close() error {
	args := m.Called()
	return args.Error(0)
}

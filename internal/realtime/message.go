// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package realtime provides the line-oriented chat transport. Connections
// authenticate with the same session store the HTTP layer uses, so a
// revoked session dies on both transports.
package realtime

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested message does not exist.
var ErrNotFound = errors.New("not found")

// MaxMessageLength bounds chat message bodies.
const MaxMessageLength = 1000

// HistoryLimit is how many recent messages a new connection receives.
const HistoryLimit = 50

// ChatMessage is one chat line, persisted and broadcast to all connections.
type ChatMessage struct {
	ID          ulid.ULID `json:"id"`
	AccountID   ulid.ULID `json:"account_id"`
	DisplayName string    `json:"display_name"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewChatMessage creates a validated ChatMessage.
func NewChatMessage(accountID ulid.ULID, displayName, body string) (*ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, oops.Code("CHAT_INVALID_BODY").Errorf("message body cannot be empty")
	}
	if len(body) > MaxMessageLength {
		return nil, oops.Code("CHAT_INVALID_BODY").
			With("length", len(body)).
			Errorf("message body cannot exceed %d characters", MaxMessageLength)
	}
	if displayName == "" {
		return nil, oops.Code("CHAT_INVALID_SENDER").Errorf("display name cannot be empty")
	}

	return &ChatMessage{
		ID:          ulid.Make(),
		AccountID:   accountID,
		DisplayName: displayName,
		Body:        body,
		CreatedAt:   time.Now(),
	}, nil
}

// MessageRepository is the durable chat history capability.
type MessageRepository interface {
	Create(ctx context.Context, msg *ChatMessage) error

	// ListRecent returns up to limit messages, oldest first.
	ListRecent(ctx context.Context, limit int) ([]*ChatMessage, error)
}

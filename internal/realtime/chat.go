// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package realtime

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/docvault/docvault/internal/observability"
)

// ChatService persists chat messages and broadcasts them on the bus.
// Persistence happens before broadcast so history never misses a message
// that connected clients saw.
type ChatService struct {
	messages MessageRepository
	bus      Broadcaster
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewChatService creates a ChatService. metrics may be nil.
func NewChatService(messages MessageRepository, bus Broadcaster, metrics *observability.Metrics, logger *slog.Logger) (*ChatService, error) {
	if messages == nil {
		return nil, oops.Code("CHAT_INVALID_CONFIG").Errorf("message repository cannot be nil")
	}
	if bus == nil {
		return nil, oops.Code("CHAT_INVALID_CONFIG").Errorf("broadcaster cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ChatService{
		messages: messages,
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Post validates, persists, and broadcasts one chat message. A broadcast
// failure after a successful write is logged and counted, not returned:
// the message is durable and shows up in history.
func (s *ChatService) Post(ctx context.Context, accountID ulid.ULID, displayName, body string) (*ChatMessage, error) {
	msg, err := NewChatMessage(accountID, displayName, body)
	if err != nil {
		return nil, err
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, oops.Code("CHAT_PERSIST_FAILED").
			With("account_id", accountID.String()).
			Wrapf(err, "persisting chat message")
	}

	if s.metrics != nil {
		s.metrics.ChatMessagesTotal.Inc()
	}

	if err := s.bus.PublishMessage(ctx, msg); err != nil {
		observability.RecordBroadcastFailure("publish")
		s.logger.ErrorContext(ctx, "Chat broadcast failed",
			"message_id", msg.ID.String(),
			"error", err)
	}

	return msg, nil
}

// History returns the most recent messages, oldest first.
func (s *ChatService) History(ctx context.Context, limit int) ([]*ChatMessage, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	msgs, err := s.messages.ListRecent(ctx, limit)
	if err != nil {
		return nil, oops.Code("CHAT_HISTORY_FAILED").Wrapf(err, "loading chat history")
	}
	return msgs, nil
}

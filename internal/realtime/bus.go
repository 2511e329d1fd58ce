// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package realtime

import (
	"context"
	"encoding/json"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/samber/oops"
)

// SubjectChatMessages is the subject chat messages are broadcast on.
const SubjectChatMessages = "chat.messages"

// Broadcaster fans chat messages out to every connected transport,
// including other server processes.
type Broadcaster interface {
	PublishMessage(ctx context.Context, msg *ChatMessage) error

	// SubscribeMessages delivers every broadcast message to handler until
	// the returned closer is closed. Handlers run on the bus's delivery
	// goroutine and must not block.
	SubscribeMessages(handler func(*ChatMessage)) (io.Closer, error)

	Close() error
}

// Bus is the NATS-backed Broadcaster.
type Bus struct {
	conn *nats.Conn
}

var _ Broadcaster = (*Bus)(nil)

// NewBus connects to the NATS server at url.
func NewBus(url string, opts ...nats.Option) (*Bus, error) {
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, oops.Code("BUS_CONNECT_FAILED").
			With("url", url).
			Wrapf(err, "connecting to nats")
	}
	return &Bus{conn: conn}, nil
}

// PublishMessage broadcasts msg as JSON on SubjectChatMessages.
func (b *Bus) PublishMessage(_ context.Context, msg *ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return oops.Code("BUS_ENCODE_FAILED").Wrapf(err, "encoding chat message")
	}
	if err := b.conn.Publish(SubjectChatMessages, data); err != nil {
		return oops.Code("BUS_PUBLISH_FAILED").
			With("subject", SubjectChatMessages).
			Wrapf(err, "publishing chat message")
	}
	return nil
}

// SubscribeMessages subscribes to SubjectChatMessages. Messages that fail
// to decode are dropped.
func (b *Bus) SubscribeMessages(handler func(*ChatMessage)) (io.Closer, error) {
	sub, err := b.conn.Subscribe(SubjectChatMessages, func(m *nats.Msg) {
		var msg ChatMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			return
		}
		handler(&msg)
	})
	if err != nil {
		return nil, oops.Code("BUS_SUBSCRIBE_FAILED").
			With("subject", SubjectChatMessages).
			Wrapf(err, "subscribing to chat messages")
	}
	return &subscription{sub: sub}, nil
}

// Close drains the connection, letting in-flight messages finish.
func (b *Bus) Close() error {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return oops.Code("BUS_CLOSE_FAILED").Wrapf(err, "draining nats connection")
	}
	return nil
}

type subscription struct {
	sub *nats.Subscription
}

func (s *subscription) Close() error {
	//nolint:wrapcheck // closer contract, callers log and move on
	return s.sub.Unsubscribe()
}

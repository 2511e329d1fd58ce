// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/observability"
)

const (
	handshakeTimeout = 30 * time.Second
	writeTimeout     = 5 * time.Second

	// outboundBuffer is the per-connection broadcast buffer. A client that
	// cannot drain it loses messages rather than stalling the bus.
	outboundBuffer = 64
)

// SessionResolver resolves a plaintext session token to a live session.
// auth.Service implements it; both transports resolve through the same path.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*auth.Session, error)
}

// Server accepts line-oriented TCP chat connections. The first line of a
// connection must be a session token; it is resolved through the same
// session path the HTTP layer uses.
type Server struct {
	addr     string
	resolver SessionResolver
	chat     *ChatService
	bus      Broadcaster
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a realtime Server. metrics may be nil.
func NewServer(addr string, resolver SessionResolver, chat *ChatService, bus Broadcaster, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if addr == "" {
		return nil, oops.Code("REALTIME_INVALID_CONFIG").Errorf("listen address cannot be empty")
	}
	if resolver == nil {
		return nil, oops.Code("REALTIME_INVALID_CONFIG").Errorf("session resolver cannot be nil")
	}
	if chat == nil {
		return nil, oops.Code("REALTIME_INVALID_CONFIG").Errorf("chat service cannot be nil")
	}
	if bus == nil {
		return nil, oops.Code("REALTIME_INVALID_CONFIG").Errorf("broadcaster cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:     addr,
		resolver: resolver,
		chat:     chat,
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Run listens on the configured address and serves connections until ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return oops.Code("REALTIME_LISTEN_FAILED").
			With("addr", s.addr).
			Wrapf(err, "listening for realtime connections")
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("Realtime server listening", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.logger.Error("Accept failed", "error", err)
			continue
		}

		if s.metrics != nil {
			s.metrics.ConnectionsTotal.WithLabelValues("realtime").Inc()
		}

		handler := newConnHandler(conn, s.resolver, s.chat, s.bus, s.logger)
		go handler.handle(ctx)
	}
}

// Addr returns the bound listener address, or the configured address if
// the server is not yet running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// connHandler owns one client connection for its lifetime.
type connHandler struct {
	conn     net.Conn
	reader   *bufio.Reader
	resolver SessionResolver
	chat     *ChatService
	bus      Broadcaster
	logger   *slog.Logger

	token   string
	payload auth.SessionPayload
}

func newConnHandler(conn net.Conn, resolver SessionResolver, chat *ChatService, bus Broadcaster, logger *slog.Logger) *connHandler {
	return &connHandler{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		resolver: resolver,
		chat:     chat,
		bus:      bus,
		logger:   logger,
	}
}

func (h *connHandler) handle(ctx context.Context) {
	defer h.conn.Close()

	if err := h.handshake(ctx); err != nil {
		h.logger.InfoContext(ctx, "Realtime handshake rejected",
			"remote", h.conn.RemoteAddr().String(),
			"error", err)
		return
	}

	if err := h.replayHistory(ctx); err != nil {
		h.logger.ErrorContext(ctx, "History replay failed", "error", err)
	}

	msgCh := make(chan *ChatMessage, outboundBuffer)
	closer, err := h.bus.SubscribeMessages(func(msg *ChatMessage) {
		select {
		case msgCh <- msg:
		default:
			observability.RecordBroadcastFailure("slow_client")
		}
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Broadcast subscription failed", "error", err)
		return
	}
	defer closer.Close()

	// done releases the reader goroutine when this handler returns; a
	// client may have pipelined lines behind the one that triggered the
	// close, and an abandoned chan send would never unblock.
	done := make(chan struct{})
	defer close(done)

	lineCh := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		for {
			line, err := h.reader.ReadString('\n')
			if err != nil {
				errCh <- err
				return
			}
			select {
			case lineCh <- line:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if !errors.Is(err, io.EOF) {
				h.logger.InfoContext(ctx, "Realtime connection closed",
					"remote", h.conn.RemoteAddr().String(),
					"error", err)
			}
			return
		case line := <-lineCh:
			if err := h.processLine(ctx, line); err != nil {
				return
			}
		case msg := <-msgCh:
			if err := h.writeMessage(msg); err != nil {
				return
			}
		}
	}
}

// handshake reads the session token line and resolves it against the
// session store. The client gets one attempt.
func (h *connHandler) handshake(ctx context.Context) error {
	_ = h.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	line, err := h.reader.ReadString('\n')
	if err != nil {
		return oops.Code("REALTIME_HANDSHAKE_FAILED").Wrapf(err, "reading session token")
	}
	_ = h.conn.SetReadDeadline(time.Time{})

	token := strings.TrimSpace(line)
	session, err := h.resolver.CurrentSession(ctx, token)
	if err != nil {
		h.writeLine("ERR session missing or expired")
		return oops.Code("SESSION_MISSING").Wrapf(err, "resolving session token")
	}

	h.token = token
	h.payload = session.Payload
	h.writeLine(fmt.Sprintf("OK %s", session.Payload.DisplayName))
	return nil
}

func (h *connHandler) replayHistory(ctx context.Context) error {
	msgs, err := h.chat.History(ctx, HistoryLimit)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := h.writeMessage(msg); err != nil {
			return err
		}
	}
	return nil
}

// processLine handles one inbound chat line. The session is re-resolved on
// every message, so destroying a session cuts off an open connection at its
// next send. A non-nil return closes the connection.
func (h *connHandler) processLine(ctx context.Context, line string) error {
	body := strings.TrimSpace(line)
	if body == "" {
		return nil
	}

	if _, err := h.resolver.CurrentSession(ctx, h.token); err != nil {
		h.writeLine("ERR session missing or expired")
		return oops.Code("SESSION_MISSING").Wrapf(err, "re-validating session")
	}

	if _, err := h.chat.Post(ctx, h.payload.AccountID, h.payload.DisplayName, body); err != nil {
		if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == "CHAT_INVALID_BODY" {
			h.writeLine("ERR invalid message")
			return nil
		}
		h.logger.ErrorContext(ctx, "Chat post failed",
			"account_id", h.payload.AccountID.String(),
			"error", err)
		h.writeLine("ERR message not delivered")
		return nil
	}
	return nil
}

func (h *connHandler) writeMessage(msg *ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return oops.Code("REALTIME_ENCODE_FAILED").Wrapf(err, "encoding chat message")
	}
	_ = h.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := fmt.Fprintf(h.conn, "MSG %s\r\n", data); err != nil {
		return oops.Code("REALTIME_WRITE_FAILED").Wrapf(err, "writing chat message")
	}
	return nil
}

func (h *connHandler) writeLine(line string) {
	_ = h.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := fmt.Fprintf(h.conn, "%s\r\n", line); err != nil {
		h.logger.Warn("Write failed", "error", err)
	}
}

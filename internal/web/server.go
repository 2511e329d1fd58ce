// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/samber/oops"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server runs the HTTP API with graceful shutdown on context cancellation.
type Server struct {
	addr    string
	handler http.Handler
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates an HTTP Server for the given handler.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) (*Server, error) {
	if addr == "" {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("listen address cannot be empty")
	}
	if handler == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("handler cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{addr: addr, handler: handler, logger: logger}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return oops.Code("WEB_LISTEN_FAILED").
			With("addr", s.addr).
			Wrapf(err, "listening for http connections")
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	s.logger.Info("HTTP server listening", "addr", listener.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return oops.Code("WEB_SHUTDOWN_FAILED").Wrapf(err, "shutting down http server")
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("WEB_SERVE_FAILED").Wrapf(err, "serving http")
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

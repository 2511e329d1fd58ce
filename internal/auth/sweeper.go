// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// DefaultSweepInterval is how often expired sessions are removed.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes expired sessions. It runs on its own
// schedule, decoupled from request handling; the store's Sweep deletes row
// by row so concurrent gets are never blocked for longer than a single
// record's deletion.
type Sweeper struct {
	sessions SessionStore
	interval time.Duration
	logger   *slog.Logger
	onSwept  func(count int64)
}

// NewSweeper creates a Sweeper. A non-positive interval falls back to the
// default. onSwept, if non-nil, is invoked with the count after each pass
// (used for metrics).
func NewSweeper(sessions SessionStore, interval time.Duration, logger *slog.Logger, onSwept func(count int64)) (*Sweeper, error) {
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		onSwept:  onSwept,
	}, nil
}

// Run sweeps at the configured interval until the context is cancelled.
// An immediate pass runs at startup so a long interval does not delay
// cleanup after a restart.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	count, err := s.sessions.Sweep(ctx, time.Now())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("session sweep failed", "error", err)
		return
	}
	if count > 0 {
		s.logger.Info("swept expired sessions", "count", count)
	}
	if s.onSwept != nil {
		s.onSwept(count)
	}
}

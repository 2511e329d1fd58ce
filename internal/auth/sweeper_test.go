// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/auth/mocks"
)

func TestNewSweeper(t *testing.T) {
	t.Run("requires session store", func(t *testing.T) {
		sweeper, err := auth.NewSweeper(nil, time.Minute, nil, nil)
		require.Error(t, err)
		assert.Nil(t, sweeper)
	})

	t.Run("non-positive interval falls back to default", func(t *testing.T) {
		sessions := mocks.NewMockSessionStore(t)
		sweeper, err := auth.NewSweeper(sessions, 0, nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, sweeper)
	})
}

func TestSweeper_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("sweeps immediately and reports counts", func(t *testing.T) {
		sessions := mocks.NewMockSessionStore(t)
		sessions.On("Sweep", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

		var swept atomic.Int64
		sweeper, err := auth.NewSweeper(sessions, time.Hour, nil, func(count int64) {
			swept.Add(count)
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			sweeper.Run(ctx)
			close(done)
		}()

		// The startup pass runs before the first tick.
		assert.Eventually(t, func() bool { return swept.Load() == 3 }, time.Second, 10*time.Millisecond)

		cancel()
		<-done
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		sessions := mocks.NewMockSessionStore(t)
		sessions.On("Sweep", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(0), nil).Maybe()

		sweeper, err := auth.NewSweeper(sessions, 10*time.Millisecond, nil, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			sweeper.Run(ctx)
			close(done)
		}()

		time.Sleep(30 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("sweeper did not stop after cancellation")
		}
	})
}

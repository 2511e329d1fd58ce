// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/auth"
)

func TestHashPassword(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, "password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
		assert.Contains(t, hash, "m=65536,t=3,p=4")
	})

	t.Run("different passwords produce different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash(ctx, "password1")
		require.NoError(t, err)
		hash2, err := hasher.Hash(ctx, "password2")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash(ctx, "samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash(ctx, "samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash(ctx, "")
		assert.Error(t, err)
	})

	t.Run("expired context fails while waiting for a slot", func(t *testing.T) {
		// Single slot, held for the duration of the test.
		limited := auth.NewArgon2idHasherWithLimit(1)
		block := make(chan struct{})
		started := make(chan struct{})
		go func() {
			close(started)
			_, _ = limited.Hash(ctx, "occupies-the-slot")
			<-block
		}()
		<-started

		expired, cancel := context.WithTimeout(ctx, time.Millisecond)
		defer cancel()
		// The goroutine above may or may not still hold the slot; either
		// way an already-expired context must not hang.
		<-expired.Done()
		_, err := limited.Hash(expired, "waits-for-slot")
		if err != nil {
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		}
		close(block)
	})
}

func TestVerifyPassword(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewArgon2idHasher()

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, "correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify(ctx, "correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, "correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify(ctx, "wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid hash format returns error", func(t *testing.T) {
		_, err := hasher.Verify(ctx, "password", "not-a-valid-hash")
		assert.Error(t, err)
	})

	t.Run("wrong algorithm returns error", func(t *testing.T) {
		_, err := hasher.Verify(ctx, "password", "$argon2i$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported hash algorithm")
	})

	t.Run("invalid version format returns error", func(t *testing.T) {
		_, err := hasher.Verify(ctx, "password", "$argon2id$vXX$m=65536,t=3,p=4$c2FsdA$aGFzaA")
		assert.Error(t, err)
	})

	t.Run("invalid parameters format returns error", func(t *testing.T) {
		_, err := hasher.Verify(ctx, "password", "$argon2id$v=19$invalid$c2FsdA$aGFzaA")
		assert.Error(t, err)
	})

	t.Run("invalid salt base64 returns error", func(t *testing.T) {
		_, err := hasher.Verify(ctx, "password", "$argon2id$v=19$m=65536,t=3,p=4$!!!invalid!!!$aGFzaA")
		assert.Error(t, err)
	})

	t.Run("invalid hash base64 returns error", func(t *testing.T) {
		_, err := hasher.Verify(ctx, "password", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!invalid!!!")
		assert.Error(t, err)
	})

	t.Run("threads overflow returns error", func(t *testing.T) {
		// threads=256 exceeds uint8 max (255)
		_, err := hasher.Verify(ctx, "password", "$argon2id$v=19$m=65536,t=3,p=256$c2FsdA$aGFzaA")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "threads value")
	})
}

func TestNeedsRehash(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewArgon2idHasher()

	t.Run("detects bcrypt hash needing rehash", func(t *testing.T) {
		bcryptHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIvNq.Uf3hE9tQALNP1Qn9sNp5x5x5x5"
		assert.True(t, hasher.NeedsRehash(bcryptHash))
	})

	t.Run("detects stale argon2id parameters", func(t *testing.T) {
		stale := "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"
		assert.True(t, hasher.NeedsRehash(stale))
	})

	t.Run("current parameters do not need rehash", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, "password")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsRehash(hash))
	})
}

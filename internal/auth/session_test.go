// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/auth"
)

func TestNewSession(t *testing.T) {
	accountID := ulid.Make()
	payload := auth.SessionPayload{
		AccountID:     accountID,
		DisplayName:   "alice",
		Authenticated: true,
	}
	expiresAt := time.Now().Add(auth.SessionTokenTTL)

	t.Run("creates valid session", func(t *testing.T) {
		session, err := auth.NewSession("somehash", payload, expiresAt)
		require.NoError(t, err)
		assert.NotEqual(t, ulid.ULID{}, session.ID)
		assert.Equal(t, accountID, session.Payload.AccountID)
		assert.Equal(t, "alice", session.Payload.DisplayName)
		assert.True(t, session.Payload.Authenticated)
		assert.False(t, session.CreatedAt.IsZero())
		assert.Equal(t, session.CreatedAt, session.LastSeenAt)
	})

	t.Run("rejects empty token hash", func(t *testing.T) {
		_, err := auth.NewSession("", payload, expiresAt)
		assert.Error(t, err)
	})

	t.Run("rejects zero account ID", func(t *testing.T) {
		_, err := auth.NewSession("somehash", auth.SessionPayload{}, expiresAt)
		assert.Error(t, err)
	})

	t.Run("rejects zero expiry", func(t *testing.T) {
		_, err := auth.NewSession("somehash", payload, time.Time{})
		assert.Error(t, err)
	})
}

func TestSession_IsExpired(t *testing.T) {
	payload := auth.SessionPayload{AccountID: ulid.Make(), Authenticated: true}

	t.Run("future expiry is not expired", func(t *testing.T) {
		session, err := auth.NewSession("hash", payload, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, session.IsExpired())
	})

	t.Run("IsExpiredAt checks deterministic time", func(t *testing.T) {
		expiry := time.Now().Add(time.Hour)
		session, err := auth.NewSession("hash", payload, expiry)
		require.NoError(t, err)
		assert.False(t, session.IsExpiredAt(expiry.Add(-time.Second)))
		assert.True(t, session.IsExpiredAt(expiry.Add(time.Second)))
	})
}

func TestGenerateSessionToken(t *testing.T) {
	t.Run("produces token and matching hash", func(t *testing.T) {
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, 64) // 32 bytes hex-encoded
		assert.Len(t, hash, 64)  // sha256 hex-encoded
		assert.Equal(t, auth.HashSessionToken(token), hash)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		token1, _, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		token2, _, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.NotEqual(t, token1, token2)
	})
}

func TestVerifySessionToken(t *testing.T) {
	token, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	t.Run("matching token verifies", func(t *testing.T) {
		ok, err := auth.VerifySessionToken(token, hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong token fails", func(t *testing.T) {
		other, _, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		ok, err := auth.VerifySessionToken(other, hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty token returns error", func(t *testing.T) {
		_, err := auth.VerifySessionToken("", hash)
		assert.Error(t, err)
	})

	t.Run("empty hash returns error", func(t *testing.T) {
		_, err := auth.VerifySessionToken(token, "")
		assert.Error(t, err)
	})
}

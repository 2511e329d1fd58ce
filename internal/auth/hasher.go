// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Memory and iteration counts follow the fixed cost
// profile for the credential hasher: 64 MiB memory, 3 iterations, 4 lanes.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// DefaultMaxConcurrentHashes bounds simultaneous argon2 computations. Each
// computation pins argon2Memory KiB, so an unbounded login flood would
// multiply memory use without this cap.
const DefaultMaxConcurrentHashes = 8

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces an argon2id hash of the password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(ctx context.Context, password, hash string) (bool, error)

	// NeedsRehash returns true if the hash was produced with different
	// parameters and should be recomputed on next successful login.
	NeedsRehash(hash string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id with a counting
// semaphore bounding concurrent computations.
type Argon2idHasher struct {
	slots chan struct{}
}

// NewArgon2idHasher creates an Argon2idHasher with the default concurrency bound.
func NewArgon2idHasher() *Argon2idHasher {
	return NewArgon2idHasherWithLimit(DefaultMaxConcurrentHashes)
}

// NewArgon2idHasherWithLimit creates an Argon2idHasher allowing at most limit
// concurrent hash or verify computations. A limit <= 0 falls back to the default.
func NewArgon2idHasherWithLimit(limit int) *Argon2idHasher {
	if limit <= 0 {
		limit = DefaultMaxConcurrentHashes
	}
	return &Argon2idHasher{slots: make(chan struct{}, limit)}
}

// acquire blocks until a computation slot is free or the context expires.
// A timeout while queued is a load condition, not a credential failure, so
// it is tagged ErrTransient and surfaces as STORE_TRANSIENT.
func (h *Argon2idHasher) acquire(ctx context.Context) error {
	select {
	case h.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return oops.Code("STORE_TRANSIENT").
			With("operation", "acquire hash slot").
			Wrap(fmt.Errorf("%w: %w", ErrTransient, ctx.Err()))
	}
}

func (h *Argon2idHasher) release() {
	<-h.slots
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// PHC string format: parameters travel with the hash so verification
	// is self-describing.
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	// Validate threads fits in uint8 to prevent silent truncation.
	if threads > 255 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d exceeds uint8 max", threads)
	}

	// Validate key length to prevent integer overflow in uint32 conversion.
	keyLen := len(expectedHash)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", keyLen)
	}

	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.release()

	computedHash := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	// Constant-time comparison regardless of where a mismatch occurs.
	if subtle.ConstantTimeCompare(computedHash, expectedHash) == 1 {
		return true, nil
	}

	return false, nil
}

// NeedsRehash returns true if the hash does not use the current parameters.
func (h *Argon2idHasher) NeedsRehash(hash string) bool {
	prefix := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$", argon2.Version, argon2Memory, argon2Time, argon2Threads)
	return !strings.HasPrefix(hash, prefix)
}

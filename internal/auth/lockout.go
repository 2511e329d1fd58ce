// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package auth

import "time"

// Lockout configuration defaults. Both are configuration constants, not
// business rules buried in call sites; config may override them per process.
const (
	// DefaultLockoutThreshold is the number of consecutive failures that
	// triggers a lockout.
	DefaultLockoutThreshold = 5

	// DefaultLockoutDuration is how long an account stays locked.
	DefaultLockoutDuration = 15 * time.Minute
)

// LockoutPolicy holds the tunable lockout parameters.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns the standard lockout policy.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

// LockState is the lockout view of an account: Unlocked carries the failure
// counter, Locked carries the expiry. The zero value is Unlocked(0).
type LockState struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

// IsLocked returns true if the state is Locked and the lock has not lapsed.
func (s LockState) IsLocked(now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}

// EvaluateLock transitions a lapsed lock back to Unlocked(0) before the
// password is evaluated. It returns the (possibly updated) state, whether the
// attempt must be rejected outright, and whether the state changed.
func (s LockState) EvaluateLock(now time.Time) (next LockState, rejected, changed bool) {
	if s.LockedUntil == nil {
		return s, false, false
	}
	if s.LockedUntil.After(now) {
		return s, true, false
	}
	// Lock has lapsed: counter resets before the password is checked.
	return LockState{}, false, true
}

// RecordFailure transitions the state after a password mismatch. Crossing the
// threshold moves to Locked(now + duration); the attempt that crosses it is
// reported as locked.
func (s LockState) RecordFailure(now time.Time, policy LockoutPolicy) (next LockState, locked bool) {
	next = LockState{FailedAttempts: s.FailedAttempts + 1}
	if next.FailedAttempts >= policy.Threshold {
		until := now.Add(policy.Duration)
		next.LockedUntil = &until
		return next, true
	}
	return next, false
}

// RecordSuccess resets the state to Unlocked(0).
func (s LockState) RecordSuccess() LockState {
	return LockState{}
}

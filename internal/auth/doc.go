// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package auth provides the credential and session-security core for DocVault.
//
// # Domain Types
//
// Domain types (Account, Session) should be created using their respective
// constructors:
//   - NewAccount - creates an Account with validated username and password hash
//   - NewSession - creates a Session with validated account and expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - register, login, logout, change-password, session reads
//   - ResetService - forgot-password and reset-password flows
//
// Services are created with New*Service constructors that validate dependencies.
//
// # Session Consistency
//
// The SessionStore is the single source of truth for session state. Both the
// HTTP request path and the realtime connection path resolve session tokens
// against the same store instance; neither caches an authenticated status
// beyond a single request or inbound message, so logout and lockout take
// effect for already-open connections.
package auth

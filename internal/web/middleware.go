// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/docvault/docvault/internal/auth"
)

// SessionCookieName is the cookie carrying the plaintext session token.
const SessionCookieName = "docvault_session"

// SessionResolver resolves a plaintext session token to a live session.
// auth.Service implements it.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*auth.Session, error)
}

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the session placed by RequireSession, or nil.
func SessionFromContext(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// tokenFromRequest extracts the session token from the session cookie or an
// Authorization bearer header. The cookie wins when both are present.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireSession resolves the request's session token and stores the session
// in the request context. Requests without a live session get 401.
func RequireSession(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := resolver.CurrentSession(r.Context(), tokenFromRequest(r))
			if err != nil {
				respondError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

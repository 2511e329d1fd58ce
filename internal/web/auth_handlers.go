// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/observability"
)

// AuthService is the slice of auth.Service the HTTP layer depends on.
type AuthService interface {
	Register(ctx context.Context, username, password string, email *string) (*auth.Account, error)
	Login(ctx context.Context, username, password string) (*auth.Session, string, error)
	Logout(ctx context.Context, token string) error
	CurrentSession(ctx context.Context, token string) (*auth.Session, error)
	ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error
	SessionTTL() time.Duration
}

// ResetService is the slice of auth.ResetService the HTTP layer depends on.
type ResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler serves registration, login, and credential-recovery endpoints.
type AuthHandler struct {
	auth    AuthService
	reset   ResetService
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. metrics may be nil.
func NewAuthHandler(authSvc AuthService, reset ResetService, metrics *observability.Metrics, logger *slog.Logger) (*AuthHandler, error) {
	if authSvc == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("auth service cannot be nil")
	}
	if reset == nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("reset service cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthHandler{auth: authSvc, reset: reset, metrics: metrics, logger: logger}, nil
}

type registerRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	account, err := h.auth.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		respondError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RegistrationsTotal.Inc()
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"account": map[string]any{
			"id":       account.ID.String(),
			"username": account.Username,
		},
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	session, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.recordLogin(err)
		respondError(w, err)
		return
	}
	h.recordLogin(nil)

	http.SetCookie(w, h.sessionCookie(token, session.ExpiresAt))
	respondJSON(w, http.StatusOK, map[string]any{
		"token":        token,
		"display_name": session.Payload.DisplayName,
		"expires_at":   session.ExpiresAt,
	})
}

func (h *AuthHandler) recordLogin(err error) {
	if h.metrics == nil {
		return
	}
	if err == nil {
		h.metrics.LoginsTotal.WithLabelValues("success").Inc()
		return
	}
	h.metrics.LoginsTotal.WithLabelValues("failure").Inc()
	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == "AUTH_ACCOUNT_LOCKED" {
		h.metrics.LockoutsTotal.Inc()
	}
}

func (h *AuthHandler) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), tokenFromRequest(r)); err != nil {
		respondError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		respondError(w, oops.Code("SESSION_MISSING").Errorf("session is missing or expired"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"account_id":    session.Payload.AccountID.String(),
		"display_name":  session.Payload.DisplayName,
		"authenticated": session.Payload.Authenticated,
		"expires_at":    session.ExpiresAt,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), tokenFromRequest(r), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// handleForgotPassword always answers 202. Whether the email matched an
// account is never observable from the response.
func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.reset.RequestReset(r.Context(), req.Email); err != nil {
		h.logger.ErrorContext(r.Context(), "Password reset request failed", "error", err)
	} else if h.metrics != nil {
		h.metrics.PasswordResets.WithLabelValues("requested").Inc()
	}

	respondJSON(w, http.StatusAccepted, map[string]any{"status": "accepted"})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.reset.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.PasswordResets.WithLabelValues("completed").Inc()
	}
	respondJSON(w, http.StatusNoContent, nil)
}

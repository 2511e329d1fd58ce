// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 60 * time.Second

// NewRouter assembles the versioned API router. Everything under the
// session group resolves the caller's session on every request.
func NewRouter(authHandler *AuthHandler, docsHandler *DocsHandler, resolver SessionResolver) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.handleRegister)
		r.Post("/auth/login", authHandler.handleLogin)
		r.Post("/auth/logout", authHandler.handleLogout)
		r.Post("/auth/forgot-password", authHandler.handleForgotPassword)
		r.Post("/auth/reset-password", authHandler.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(resolver))

			r.Get("/auth/session", authHandler.handleSession)
			r.Post("/auth/change-password", authHandler.handleChangePassword)

			r.Get("/documents", docsHandler.handleListDocuments)
			r.Post("/documents", docsHandler.handleCreateDocument)
			r.Get("/documents/{documentID}", docsHandler.handleGetDocument)
			r.Patch("/documents/{documentID}", docsHandler.handleUpdateDocument)
			r.Delete("/documents/{documentID}", docsHandler.handleDeleteDocument)

			r.Get("/documents/{documentID}/comments", docsHandler.handleListComments)
			r.Post("/documents/{documentID}/comments", docsHandler.handleAddComment)
			r.Patch("/comments/{commentID}", docsHandler.handleEditComment)
			r.Delete("/comments/{commentID}", docsHandler.handleDeleteComment)
			r.Post("/comments/{commentID}/vote", docsHandler.handleToggleVote)
		})
	})

	return r
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package errutil

import (
	"net/http"

	"github.com/samber/oops"
)

// HTTPStatus maps an error's oops code to the HTTP status the web layer
// should respond with. Unknown codes and non-oops errors map to 500.
func HTTPStatus(err error) int {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch oopsErr.Code() {
	case "AUTH_INVALID_CREDENTIALS", "SESSION_MISSING":
		return http.StatusUnauthorized
	case "AUTH_ACCOUNT_LOCKED":
		return http.StatusForbidden
	case "AUTH_USERNAME_TAKEN", "AUTH_EMAIL_TAKEN":
		return http.StatusConflict
	case "AUTH_WEAK_PASSWORD", "AUTH_INVALID_USERNAME", "RESET_TOKEN_INVALID", "WEB_BAD_REQUEST",
		"DOC_INVALID_TITLE", "DOC_INVALID_FILE", "COMMENT_INVALID_BODY", "VOTE_INVALID":
		return http.StatusBadRequest
	case "DOC_NOT_FOUND", "COMMENT_NOT_FOUND":
		return http.StatusNotFound
	case "STORE_TRANSIENT":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

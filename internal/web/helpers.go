// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package web serves the JSON API. Every authenticated request resolves its
// session through the shared session store, the same path the realtime
// transport uses.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/docvault/docvault/pkg/errutil"
)

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return oops.Code("WEB_BAD_REQUEST").Errorf("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return oops.Code("WEB_BAD_REQUEST").Wrapf(err, "decoding request body")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps err to an HTTP status via its oops code. Server-side
// failures get a generic message so internals never reach the client.
func respondError(w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	status := errutil.HTTPStatus(err)
	msg := "internal error"
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	respondJSON(w, status, map[string]any{"error": msg})
}

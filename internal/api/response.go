// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

// Package api provides the HTTP surface: the feed routes, health
// probes, and the metrics endpoint.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/openclique/affinity/internal/logging"
)

// ErrorResponse is the wire shape for every failed request.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// respondJSON encodes v and writes it with the given status.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":true,"message":"Internal server error"}`)) //nolint:errcheck
		return
	}

	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck
}

// respondError writes a structured error response.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: true, Message: message})
}

// Package handlers exposes the HTTP API: practice items, routines,
// chord charts, the common chord reference and the autocreate pipeline.
package handlers

import (
	"encoding/json"
	"net/http"

	"practicepad/internal/contextutil"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Candidates is only set on ambiguous-classification errors and
	// lists the categories the caller may retry with.
	Candidates []string `json:"candidates,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctx := r.Context()
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, ErrorResponse{Error: message})
}

package handlers

import (
	"net/http"
	"strconv"

	"practicepad/internal/chart"
	"practicepad/internal/contextutil"
	"practicepad/internal/storage"
)

// CommonChordsHandler serves the read-only chord reference table.
type CommonChordsHandler struct {
	commons storage.CommonChordStore
}

// NewCommonChordsHandler creates a new CommonChordsHandler.
func NewCommonChordsHandler(commons storage.CommonChordStore) *CommonChordsHandler {
	return &CommonChordsHandler{commons: commons}
}

// Search handles GET /api/common-chords?name=Am&limit=10. Exact name
// matches are returned before partial ones.
func (h *CommonChordsHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	chords, err := h.commons.Search(ctx, name, limit)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to search common chords", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to search chords")
		return
	}
	if chords == nil {
		chords = []chart.Chart{}
	}
	writeJSON(w, r, http.StatusOK, chords)
}

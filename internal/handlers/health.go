package handlers

import (
	"net/http"
	"time"

	"practicepad/internal/contextutil"
	"practicepad/internal/storage"
)

// OCRChecker reports whether local OCR binaries are installed.
type OCRChecker interface {
	Available() bool
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	items   storage.ItemStore
	commons storage.CommonChordStore
	ocr     OCRChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(items storage.ItemStore, commons storage.CommonChordStore, ocr OCRChecker) *HealthHandler {
	return &HealthHandler{items: items, commons: commons, ocr: ocr}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health. The database is the one critical
// dependency; missing OCR binaries degrade autocreate but do not make
// the service unhealthy.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checks := make(map[string]string)
	var issues []string

	if _, err := h.items.Count(ctx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		checks["database"] = "error"
		issues = append(issues, "database_unavailable")
	} else {
		checks["database"] = "ok"
	}

	if n, err := h.commons.Count(ctx); err != nil || n == 0 {
		checks["common_chords"] = "empty"
	} else {
		checks["common_chords"] = "ok"
	}

	if h.ocr != nil && h.ocr.Available() {
		checks["ocr"] = "ok"
	} else {
		checks["ocr"] = "unavailable"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, r, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"practicepad/internal/chart"
	"practicepad/internal/contextutil"
	"practicepad/internal/storage"
)

// ChartsHandler handles chord chart CRUD, ordering and item-to-item
// sharing.
type ChartsHandler struct {
	charts storage.ChartStore
}

// NewChartsHandler creates a new ChartsHandler.
func NewChartsHandler(charts storage.ChartStore) *ChartsHandler {
	return &ChartsHandler{charts: charts}
}

func chartID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "chartID"), 10, 64)
}

// ListForItem handles GET /api/items/{itemID}/charts.
func (h *ChartsHandler) ListForItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "itemID")

	charts, err := h.charts.GetForItem(ctx, itemID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list charts", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to list charts")
		return
	}
	if charts == nil {
		charts = []chart.Chart{}
	}
	writeJSON(w, r, http.StatusOK, charts)
}

// BatchCreateRequest carries charts to insert for an item.
type BatchCreateRequest struct {
	Charts []chart.Chart `json:"charts"`
}

// Create handles POST /api/items/{itemID}/charts.
func (h *ChartsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "itemID")

	var req BatchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Charts) == 0 {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.charts.BatchCreate(ctx, itemID, req.Charts)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to create charts", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to create charts")
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

// Update handles PUT /api/charts/{chartID}.
func (h *ChartsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := chartID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid chart ID")
		return
	}

	var c chart.Chart
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.charts.Update(ctx, id, c)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Chart not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to update chart", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to update chart")
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

// DeleteFromItem handles DELETE /api/items/{itemID}/charts/{chartID}.
// Shared charts are only detached from the item.
func (h *ChartsHandler) DeleteFromItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "itemID")
	id, err := chartID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid chart ID")
		return
	}

	if err := h.charts.DeleteFromItem(ctx, itemID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Chart not found")
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete chart", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to delete chart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllForItem handles DELETE /api/items/{itemID}/charts.
func (h *ChartsHandler) DeleteAllForItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "itemID")

	deleted, err := h.charts.DeleteAllForItem(ctx, itemID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete charts", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to delete charts")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int64{"deleted": deleted})
}

// Reorder handles PUT /api/items/{itemID}/charts/order.
func (h *ChartsHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "itemID")

	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.OrderedIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.charts.UpdateOrder(ctx, itemID, req.OrderedIDs); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to reorder charts", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to reorder charts")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CopyRequest names the items that should share the source item's charts.
type CopyRequest struct {
	TargetItemIDs []string `json:"target_item_ids"`
}

// CopyResponse reports how many charts were shared and how many the
// targets lost.
type CopyResponse struct {
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// CopyToItems handles POST /api/items/{itemID}/charts/copy.
func (h *ChartsHandler) CopyToItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "itemID")

	var req CopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.TargetItemIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	for _, target := range req.TargetItemIDs {
		if target == itemID {
			writeError(w, r, http.StatusBadRequest, "Cannot copy charts onto the source item")
			return
		}
	}

	updated, removed, err := h.charts.CopyToItems(ctx, itemID, req.TargetItemIDs)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to copy charts", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to copy charts")
		return
	}
	writeJSON(w, r, http.StatusOK, CopyResponse{Updated: updated, Removed: removed})
}

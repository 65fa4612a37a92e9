package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"practicepad/internal/contextutil"
	"practicepad/internal/storage"
)

// RoutinesHandler handles practice routine CRUD, routine entries, the
// active routine and completion tracking.
type RoutinesHandler struct {
	routines storage.RoutineStore
}

// NewRoutinesHandler creates a new RoutinesHandler.
func NewRoutinesHandler(routines storage.RoutineStore) *RoutinesHandler {
	return &RoutinesHandler{routines: routines}
}

// RoutineResponse is one routine on the wire.
type RoutineResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	CreatedAt string `json:"created_at"`
}

// RoutineEntryResponse is one item inside a routine.
type RoutineEntryResponse struct {
	ID        int64  `json:"id"`
	RoutineID int64  `json:"routine_id"`
	ItemID    int64  `json:"item_id"`
	ItemTitle string `json:"item_title"`
	Order     int    `json:"order"`
	Completed bool   `json:"completed"`
}

func routineResponse(rt *storage.Routine) RoutineResponse {
	return RoutineResponse{
		ID:        rt.ID,
		Name:      rt.Name,
		Order:     rt.Order,
		CreatedAt: rt.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func entryResponse(e storage.RoutineEntry) RoutineEntryResponse {
	return RoutineEntryResponse{
		ID:        e.ID,
		RoutineID: e.RoutineID,
		ItemID:    e.ItemID,
		ItemTitle: e.ItemTitle,
		Order:     e.Order,
		Completed: e.Completed,
	}
}

func routineID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "routineID"), 10, 64)
}

// List handles GET /api/routines.
func (h *RoutinesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	routines, err := h.routines.List(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list routines", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to list routines")
		return
	}
	out := make([]RoutineResponse, 0, len(routines))
	for i := range routines {
		out = append(out, routineResponse(&routines[i]))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// Create handles POST /api/routines.
func (h *RoutinesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "Name is required")
		return
	}

	rt, err := h.routines.Create(ctx, req.Name)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to create routine", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to create routine")
		return
	}
	writeJSON(w, r, http.StatusCreated, routineResponse(rt))
}

// Get handles GET /api/routines/{routineID}, returning the routine with
// its entries.
func (h *RoutinesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := routineID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid routine ID")
		return
	}

	rt, err := h.routines.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Routine not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get routine", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to get routine")
		return
	}

	entries, err := h.routines.ListEntries(ctx, id)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list routine entries", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to list routine entries")
		return
	}

	entryResponses := make([]RoutineEntryResponse, 0, len(entries))
	for _, e := range entries {
		entryResponses = append(entryResponses, entryResponse(e))
	}
	writeJSON(w, r, http.StatusOK, struct {
		RoutineResponse
		Entries []RoutineEntryResponse `json:"entries"`
	}{routineResponse(rt), entryResponses})
}

// Rename handles PUT /api/routines/{routineID}.
func (h *RoutinesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := routineID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid routine ID")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "Name is required")
		return
	}

	rt, err := h.routines.Rename(ctx, id, req.Name)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Routine not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to rename routine", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to rename routine")
		return
	}
	writeJSON(w, r, http.StatusOK, routineResponse(rt))
}

// Delete handles DELETE /api/routines/{routineID}.
func (h *RoutinesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := routineID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid routine ID")
		return
	}

	if err := h.routines.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Routine not found")
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete routine", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to delete routine")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /api/routines/{routineID}/items.
func (h *RoutinesHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := routineID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid routine ID")
		return
	}

	var req struct {
		ItemID int64 `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == 0 {
		writeError(w, r, http.StatusBadRequest, "Item ID is required")
		return
	}

	entry, err := h.routines.AddItem(ctx, id, req.ItemID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Routine or item not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to add routine item", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to add item to routine")
		return
	}
	writeJSON(w, r, http.StatusCreated, entryResponse(*entry))
}

// RemoveItem handles DELETE /api/routines/{routineID}/items/{itemID}.
func (h *RoutinesHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := routineID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid routine ID")
		return
	}
	item, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.routines.RemoveItem(ctx, id, item); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Routine item not found")
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to remove routine item", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to remove item from routine")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderEntries handles PUT /api/routines/{routineID}/items/order.
func (h *RoutinesHandler) ReorderEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := routineID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid routine ID")
		return
	}

	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.OrderedIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.routines.UpdateEntryOrder(ctx, id, req.OrderedIDs); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to reorder routine entries", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to reorder routine entries")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCompleted handles PUT /api/routines/{routineID}/items/{itemID}/completed.
func (h *RoutinesHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := routineID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid routine ID")
		return
	}
	item, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.routines.SetCompleted(ctx, id, item, req.Completed); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Routine item not found")
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to set completion", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to update completion")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/routines/{routineID}/reset, clearing all
// completion flags.
func (h *RoutinesHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := routineID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid routine ID")
		return
	}

	if err := h.routines.Reset(ctx, id); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to reset routine", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to reset routine")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetActive handles GET /api/routines/active.
func (h *RoutinesHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rt, err := h.routines.GetActive(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, r, http.StatusOK, map[string]any{"active": nil})
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get active routine", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to get active routine")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"active": routineResponse(rt)})
}

// SetActive handles PUT /api/routines/active.
func (h *RoutinesHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		RoutineID int64 `json:"routine_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoutineID == 0 {
		writeError(w, r, http.StatusBadRequest, "Routine ID is required")
		return
	}

	if err := h.routines.SetActive(ctx, req.RoutineID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Routine not found")
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to set active routine", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to set active routine")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearActive handles DELETE /api/routines/active.
func (h *RoutinesHandler) ClearActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.routines.ClearActive(ctx); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to clear active routine", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to clear active routine")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"practicepad/internal/contextutil"
	"practicepad/internal/storage"
)

// ItemsHandler handles practice item CRUD, ordering and notes.
type ItemsHandler struct {
	items    storage.ItemStore
	markdown goldmark.Markdown
}

// NewItemsHandler creates a new ItemsHandler.
func NewItemsHandler(items storage.ItemStore) *ItemsHandler {
	return &ItemsHandler{
		items: items,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(ghhtml.WithHardWraps()),
		),
	}
}

// ItemRequest is the request payload for creating or updating an item.
type ItemRequest struct {
	Title       string `json:"title"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
	Tuning      string `json:"tuning,omitempty"`
	Songbook    string `json:"songbook,omitempty"`
}

// ItemResponse is one practice item on the wire.
type ItemResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Tuning      string `json:"tuning"`
	Songbook    string `json:"songbook"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func itemResponse(item *storage.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Title:       item.Title,
		Duration:    item.Duration,
		Description: item.Description,
		Order:       item.Order,
		Tuning:      item.Tuning,
		Songbook:    item.Songbook,
		CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func itemID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.items.List(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list items", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to list items")
		return
	}
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, itemResponse(&items[i]))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// Get handles GET /api/items/{itemID}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.items.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get item", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to get item")
		return
	}
	writeJSON(w, r, http.StatusOK, itemResponse(item))
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, r, http.StatusBadRequest, "Title is required")
		return
	}

	item, err := h.items.Create(ctx, &storage.Item{
		Title:       req.Title,
		Duration:    req.Duration,
		Description: req.Description,
		Tuning:      req.Tuning,
		Songbook:    req.Songbook,
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to create item", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to create item")
		return
	}
	writeJSON(w, r, http.StatusCreated, itemResponse(item))
}

// Update handles PUT /api/items/{itemID}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, r, http.StatusBadRequest, "Title is required")
		return
	}

	// The repo update rewrites every mutable column, so load the item
	// first to keep its notes and display order.
	existing, err := h.items.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get item", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to update item")
		return
	}
	existing.Title = req.Title
	existing.Duration = req.Duration
	existing.Description = req.Description
	existing.Tuning = req.Tuning
	existing.Songbook = req.Songbook

	item, err := h.items.Update(ctx, id, existing)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to update item", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to update item")
		return
	}
	writeJSON(w, r, http.StatusOK, itemResponse(item))
}

// Delete handles DELETE /api/items/{itemID}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.items.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Item not found")
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete item", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrderRequest carries IDs in their new display order.
type OrderRequest struct {
	OrderedIDs []int64 `json:"ordered_ids"`
}

// Reorder handles PUT /api/items/order.
func (h *ItemsHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.OrderedIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.items.UpdateOrder(ctx, req.OrderedIDs); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to reorder items", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to reorder items")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NotesResponse carries the raw markdown and its rendered HTML.
type NotesResponse struct {
	Notes string `json:"notes"`
	HTML  string `json:"html"`
}

// GetNotes handles GET /api/items/{itemID}/notes.
func (h *ItemsHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	notes, err := h.items.GetNotes(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get notes", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to get notes")
		return
	}

	var rendered bytes.Buffer
	if err := h.markdown.Convert([]byte(notes), &rendered); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to render notes", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to render notes")
		return
	}
	writeJSON(w, r, http.StatusOK, NotesResponse{Notes: notes, HTML: rendered.String()})
}

// SaveNotes handles PUT /api/items/{itemID}/notes.
func (h *ItemsHandler) SaveNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.items.SaveNotes(ctx, id, req.Notes); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Item not found")
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to save notes", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to save notes")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

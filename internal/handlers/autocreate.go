package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"practicepad/internal/autocreate"
	"practicepad/internal/contextutil"
)

// AutocreateHandler runs and cancels autocreate jobs for an item.
type AutocreateHandler struct {
	service *autocreate.Service
}

// NewAutocreateHandler creates a new AutocreateHandler.
func NewAutocreateHandler(service *autocreate.Service) *AutocreateHandler {
	return &AutocreateHandler{service: service}
}

// AutocreateRequest is the JSON request body. File uploads use
// multipart/form-data instead, with the same field names plus "files".
type AutocreateRequest struct {
	Text       string `json:"text,omitempty"`
	YouTubeURL string `json:"youtube_url,omitempty"`
	Intent     string `json:"intent,omitempty"`
	Category   string `json:"category,omitempty"`
}

// Run handles POST /api/items/{itemID}/autocreate.
func (h *AutocreateHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID := chi.URLParam(r, "itemID")

	in, intent, category, err := parseAutocreateRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.RunAutocreate(ctx, itemID, in, intent, category)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// Cancel handles POST /api/items/{itemID}/autocreate/cancel.
func (h *AutocreateHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if !h.service.Cancel(itemID) {
		writeError(w, r, http.StatusNotFound, "No autocreate job running for this item")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"cancelled": true})
}

// Status handles GET /api/items/{itemID}/autocreate/status.
func (h *AutocreateHandler) Status(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	writeJSON(w, r, http.StatusOK, map[string]bool{"running": h.service.Running(itemID)})
}

func parseAutocreateRequest(r *http.Request) (autocreate.Inputs, autocreate.Intent, autocreate.Category, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		in       autocreate.Inputs
		intent   string
		category string
	)
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return in, "", "", errors.New("invalid multipart request")
		}
		in.Text = r.FormValue("text")
		in.YouTubeURL = r.FormValue("youtube_url")
		intent = r.FormValue("intent")
		category = r.FormValue("category")

		if r.MultipartForm != nil {
			for _, header := range r.MultipartForm.File["files"] {
				f, err := readUpload(header)
				if err != nil {
					return in, "", "", err
				}
				in.Files = append(in.Files, f)
			}
		}
	} else {
		var req AutocreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return in, "", "", errors.New("invalid request body")
		}
		in.Text = req.Text
		in.YouTubeURL = req.YouTubeURL
		intent = req.Intent
		category = req.Category
	}

	if intent == "" {
		intent = string(autocreate.IntentAppend)
	}
	return in, autocreate.Intent(intent), autocreate.Category(category), nil
}

func readUpload(header *multipart.FileHeader) (autocreate.File, error) {
	f, err := header.Open()
	if err != nil {
		return autocreate.File{}, errors.New("failed to read uploaded file")
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return autocreate.File{}, errors.New("failed to read uploaded file")
	}

	// Multipart writers default to octet-stream; the extension is more
	// useful then.
	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = mediaTypeFromName(header.Filename)
	}
	return autocreate.File{Name: header.Filename, MediaType: mediaType, Data: data}, nil
}

func mediaTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".txt", ".tab":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func (h *AutocreateHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var ambErr *autocreate.AmbiguityError
	switch {
	case errors.As(err, &ambErr):
		candidates := make([]string, len(ambErr.Candidates))
		for i, c := range ambErr.Candidates {
			candidates[i] = string(c)
		}
		writeJSON(w, r, http.StatusConflict, ErrorResponse{
			Error:      "Could not determine the content type; pick one and retry",
			Candidates: candidates,
		})
	case errors.Is(err, autocreate.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, autocreate.ErrInputTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, autocreate.ErrJobAlreadyInProgress):
		writeError(w, r, http.StatusConflict, "An autocreate job is already running for this item")
	case errors.Is(err, autocreate.ErrTranscriptUnavailable):
		writeError(w, r, http.StatusUnprocessableEntity, "This video has no transcript available")
	case errors.Is(err, autocreate.ErrAutocreateProcessingFailed):
		logger.ErrorContext(ctx, "autocreate processing failed", "error", err)
		writeError(w, r, http.StatusBadGateway, "Chord extraction failed; try again or add the charts manually")
	case errors.Is(err, autocreate.ErrPersistencePartialFailure):
		logger.ErrorContext(ctx, "autocreate persistence partially failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Existing charts were removed but the new charts could not be saved")
	case errors.Is(err, context.Canceled):
		writeError(w, r, http.StatusConflict, "The autocreate job was cancelled")
	default:
		logger.ErrorContext(ctx, "autocreate failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

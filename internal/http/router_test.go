package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"practicepad/internal/autocreate"
	"practicepad/internal/autocreate/mocks"
	apihttp "practicepad/internal/http"
	"practicepad/internal/ocr"
	"practicepad/internal/storage"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestRouter(t *testing.T) nethttp.Handler {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO common_chords (name, chord_data, order_col) VALUES ('Am', '{"fingers":[{"string":2,"fret":1}],"barres":[],"tuning":"EADGBE"}', 0)`); err != nil {
		t.Fatalf("failed to seed common chord: %v", err)
	}

	ctrl := gomock.NewController(t)
	charts := storage.NewChartRepo(db)
	commons := storage.NewCommonChordRepo(db)
	svc := autocreate.NewService(
		charts,
		commons,
		mocks.NewMockModelInvoker(ctrl),
		mocks.NewMockExtractor(ctrl),
		mocks.NewMockTranscriptFetcher(ctrl),
		autocreate.DefaultLimits(),
	)

	return apihttp.NewRouter(&apihttp.Deps{
		Items:      storage.NewItemRepo(db),
		Routines:   storage.NewRoutineRepo(db),
		Charts:     charts,
		Commons:    commons,
		Autocreate: svc,
		OCR:        ocr.NewClient("definitely-not-a-binary", ""),
	})
}

func do(t *testing.T, router nethttp.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, nethttp.MethodGet, "/api/health", nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("health status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp.Status != "healthy" || resp.Checks["database"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
	if resp.Checks["ocr"] != "unavailable" {
		t.Errorf("ocr check = %q, want unavailable", resp.Checks["ocr"])
	}
}

func TestRouterItemAndRoutineFlow(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, nethttp.MethodPost, "/api/items", map[string]string{"title": "Blackbird"})
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("create item status = %d: %s", w.Code, w.Body.String())
	}
	var item struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &item)

	w = do(t, router, nethttp.MethodPost, "/api/routines", map[string]string{"name": "Morning"})
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("create routine status = %d: %s", w.Code, w.Body.String())
	}
	var routine struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &routine)

	w = do(t, router, nethttp.MethodPost,
		"/api/routines/"+itoa(routine.ID)+"/items", map[string]int64{"item_id": item.ID})
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("add routine item status = %d: %s", w.Code, w.Body.String())
	}

	w = do(t, router, nethttp.MethodPut, "/api/routines/active", map[string]int64{"routine_id": routine.ID})
	if w.Code != nethttp.StatusNoContent {
		t.Fatalf("set active status = %d: %s", w.Code, w.Body.String())
	}
	w = do(t, router, nethttp.MethodGet, "/api/routines/active", nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("get active status = %d", w.Code)
	}

	w = do(t, router, nethttp.MethodGet, "/api/routines/"+itoa(routine.ID), nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("get routine status = %d", w.Code)
	}
	var detail struct {
		Entries []struct {
			ItemTitle string `json:"item_title"`
		} `json:"entries"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if len(detail.Entries) != 1 || detail.Entries[0].ItemTitle != "Blackbird" {
		t.Errorf("routine entries = %+v", detail.Entries)
	}
}

func TestRouterCommonChordSearch(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, nethttp.MethodGet, "/api/common-chords?name=Am", nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("search status = %d: %s", w.Code, w.Body.String())
	}
	var chords []struct {
		Title string `json:"title"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &chords)
	if len(chords) != 1 || chords[0].Title != "Am" {
		t.Errorf("search result = %+v", chords)
	}

	w = do(t, router, nethttp.MethodGet, "/api/common-chords", nil)
	if w.Code != nethttp.StatusBadRequest {
		t.Errorf("search without name status = %d, want 400", w.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(nethttp.MethodOptions, "/api/items", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != nethttp.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, nethttp.MethodGet, "/api/nope", nil)
	if w.Code != nethttp.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", w.Code)
	}
}

func itoa(n int64) string {
	return fmt.Sprintf("%d", n)
}

package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"practicepad/internal/chart"
	"practicepad/internal/handlers"
	"practicepad/internal/storage"
)

func chartsRouter(t *testing.T) (chi.Router, *storage.ChartRepo) {
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
	repo := storage.NewChartRepo(db)
	h := handlers.NewChartsHandler(repo)

	r := chi.NewRouter()
	r.Get("/api/items/{itemID}/charts", h.ListForItem)
	r.Post("/api/items/{itemID}/charts", h.Create)
	r.Delete("/api/items/{itemID}/charts", h.DeleteAllForItem)
	r.Put("/api/items/{itemID}/charts/order", h.Reorder)
	r.Post("/api/items/{itemID}/charts/copy", h.CopyToItems)
	r.Delete("/api/items/{itemID}/charts/{chartID}", h.DeleteFromItem)
	r.Put("/api/charts/{chartID}", h.Update)
	return r, repo
}

func TestChartsCreateAndList(t *testing.T) {
	r, _ := chartsRouter(t)

	am := chart.New("Am")
	am.Fingers = []chart.Finger{{String: 2, Fret: 1}}
	w := doJSON(t, r, http.MethodPost, "/api/items/7/charts", handlers.BatchCreateRequest{
		Charts: []chart.Chart{am, chart.New("G")},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/items/7/charts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var charts []chart.Chart
	if err := json.Unmarshal(w.Body.Bytes(), &charts); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(charts) != 2 || charts[0].Title != "Am" {
		t.Errorf("charts = %+v", charts)
	}

	// An item with no charts gets an empty array, not null.
	w = doJSON(t, r, http.MethodGet, "/api/items/8/charts", nil)
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("empty list body = %q, want []", body)
	}
}

func TestChartsUpdateAndDelete(t *testing.T) {
	r, repo := chartsRouter(t)

	created, err := repo.BatchCreate(context.Background(), "7", []chart.Chart{chart.New("Am"), chart.New("G")})
	if err != nil {
		t.Fatalf("failed to seed charts: %v", err)
	}

	updated := created[0]
	updated.Title = "Am7"
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/charts/%d", created[0].ID), updated)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}
	var got chart.Chart
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Title != "Am7" {
		t.Errorf("updated title = %q", got.Title)
	}

	w = doJSON(t, r, http.MethodPut, "/api/charts/999", chart.New("X"))
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing chart status = %d, want 404", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/items/7/charts/%d", created[1].ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, "/api/items/7/charts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete all status = %d", w.Code)
	}
	var resp map[string]int64
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["deleted"] != 1 {
		t.Errorf("deleted = %d, want 1", resp["deleted"])
	}
}

func TestChartsCopyToItems(t *testing.T) {
	r, repo := chartsRouter(t)

	if _, err := repo.BatchCreate(context.Background(), "7", []chart.Chart{chart.New("Am")}); err != nil {
		t.Fatalf("failed to seed source: %v", err)
	}
	if _, err := repo.BatchCreate(context.Background(), "9", []chart.Chart{chart.New("Old")}); err != nil {
		t.Fatalf("failed to seed target: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/items/7/charts/copy", handlers.CopyRequest{
		TargetItemIDs: []string{"9"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("copy status = %d: %s", w.Code, w.Body.String())
	}
	var resp handlers.CopyResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Updated != 1 || resp.Removed != 1 {
		t.Errorf("copy = %+v, want 1 updated 1 removed", resp)
	}

	// Copying onto the source itself is rejected.
	w = doJSON(t, r, http.MethodPost, "/api/items/7/charts/copy", handlers.CopyRequest{
		TargetItemIDs: []string{"7"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("self-copy status = %d, want 400", w.Code)
	}
}

// Package http wires the chi router and request middleware.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"practicepad/internal/autocreate"
	"practicepad/internal/handlers"
	"practicepad/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Items      storage.ItemStore
	Routines   storage.RoutineStore
	Charts     storage.ChartStore
	Commons    storage.CommonChordStore
	Autocreate *autocreate.Service
	OCR        handlers.OCRChecker
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	items := handlers.NewItemsHandler(deps.Items)
	routines := handlers.NewRoutinesHandler(deps.Routines)
	charts := handlers.NewChartsHandler(deps.Charts)
	commons := handlers.NewCommonChordsHandler(deps.Commons)
	auto := handlers.NewAutocreateHandler(deps.Autocreate)
	health := handlers.NewHealthHandler(deps.Items, deps.Commons, deps.OCR)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", health)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", items.List)
			r.Post("/", items.Create)
			r.Put("/order", items.Reorder)

			r.Route("/{itemID}", func(r chi.Router) {
				r.Get("/", items.Get)
				r.Put("/", items.Update)
				r.Delete("/", items.Delete)
				r.Get("/notes", items.GetNotes)
				r.Put("/notes", items.SaveNotes)

				r.Route("/charts", func(r chi.Router) {
					r.Get("/", charts.ListForItem)
					r.Post("/", charts.Create)
					r.Delete("/", charts.DeleteAllForItem)
					r.Put("/order", charts.Reorder)
					r.Post("/copy", charts.CopyToItems)
					r.Delete("/{chartID}", charts.DeleteFromItem)
				})

				r.Route("/autocreate", func(r chi.Router) {
					r.Post("/", auto.Run)
					r.Post("/cancel", auto.Cancel)
					r.Get("/status", auto.Status)
				})
			})
		})

		r.Put("/charts/{chartID}", charts.Update)

		r.Route("/routines", func(r chi.Router) {
			r.Get("/", routines.List)
			r.Post("/", routines.Create)
			r.Get("/active", routines.GetActive)
			r.Put("/active", routines.SetActive)
			r.Delete("/active", routines.ClearActive)

			r.Route("/{routineID}", func(r chi.Router) {
				r.Get("/", routines.Get)
				r.Put("/", routines.Rename)
				r.Delete("/", routines.Delete)
				r.Post("/reset", routines.Reset)

				r.Route("/items", func(r chi.Router) {
					r.Post("/", routines.AddItem)
					r.Put("/order", routines.ReorderEntries)
					r.Delete("/{itemID}", routines.RemoveItem)
					r.Put("/{itemID}/completed", routines.SetCompleted)
				})
			})
		})

		r.Get("/common-chords", commons.Search)
	})

	return r
}

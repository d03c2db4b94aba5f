package handlers

import "github.com/go-chi/chi/v5"

// Mount registers the API routes on r
func Mount(r chi.Router, system *SystemHandlers, content *ContentHandlers, diagnostics *DiagnosticsHandlers) {
	r.Get("/health", system.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/web", content.GetWeb)
		r.Get("/lists/{listName}/items", content.GetItems)
		r.Post("/lists/{listName}/items", content.AddItem)
		r.Get("/diagnostics", diagnostics.ListRecent)
	})
}

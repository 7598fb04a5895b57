package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Document routes
		r.Post("/ingest", apiHandler.IngestHandler)
		r.Get("/urls", apiHandler.URLsHandler)
		r.Get("/documents", apiHandler.DocumentsHandler)
		r.Get("/content", apiHandler.ContentHandler)
		r.Post("/delete", apiHandler.DeleteHandler)
		r.Post("/delete_all", apiHandler.DeleteAllHandler)

		// Chat routes
		r.Post("/chat", apiHandler.ChatHandler)
		r.Get("/sessions", apiHandler.SessionsHandler)
		r.Post("/sessions/delete", apiHandler.DeleteSessionHandler)
		r.Post("/sessions/delete_all", apiHandler.DeleteAllSessionsHandler)

		// Stats route
		r.Get("/stats", apiHandler.StatsHandler)
	})

	return r
}

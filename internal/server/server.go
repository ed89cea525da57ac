// Package server exposes the HTTP API: technique previews, result ingest
// and history queries.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/repflow/internal/ingest"
	"github.com/claude/repflow/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      *storage.DB
	results *ingest.Provider
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, results *ingest.Provider, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:      db,
		results: results,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Ingest endpoint (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleIngest)
	})

	// Preview endpoints: validate a technique config and expand it
	s.router.Post("/api/v1/techniques/preview", s.handlePreview)
	s.router.Get("/api/v1/techniques", s.handleListTechniques)

	// History API
	s.router.Get("/api/v1/results", s.handleQueryResults)
	s.router.Get("/api/v1/results/summary", s.handleSummary)
	s.router.Get("/api/v1/results/{id}", s.handleGetResult)
}

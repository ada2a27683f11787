// Package api exposes the analyze and qualify pipelines over HTTP. Every
// request runs the same stages: authenticate, validate, execute, persist,
// respond.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/icp-engine/internal/auth"
	"github.com/sells-group/icp-engine/internal/icp"
	"github.com/sells-group/icp-engine/internal/memo"
	"github.com/sells-group/icp-engine/internal/qualify"
	"github.com/sells-group/icp-engine/internal/scraper"
	"github.com/sells-group/icp-engine/internal/store"
)

// Server holds the wired pipeline components behind the HTTP handlers.
type Server struct {
	store      store.Store
	scraper    *scraper.Scraper
	generator  *icp.Generator
	qualifier  *qualify.Qualifier
	verifier   auth.Verifier
	cache      *memo.Cache
	production bool
}

// New creates a Server over the given components.
func New(st store.Store, sc *scraper.Scraper, gen *icp.Generator, q *qualify.Qualifier, v auth.Verifier, cache *memo.Cache, production bool) *Server {
	return &Server{
		store:      st,
		scraper:    sc,
		generator:  gen,
		qualifier:  q,
		verifier:   v,
		cache:      cache,
		production: production,
	}
}

// Routes builds the router. Health is unauthenticated; everything under
// /api requires a bearer token.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/company/analyze", s.handleAnalyze)
		r.Post("/prospects/qualify", s.handleQualify)
		r.Get("/cache/stats", s.handleCacheStats)
		r.Delete("/cache", s.handleCacheClear)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

// Package httpapi exposes enrichment runs over HTTP: scoring, stored-run
// retrieval, and rendered run reports.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"regact/adapters/methods"
	"regact/app"
	"regact/internal"
)

// Config holds server configuration.
type Config struct {
	// Defaults fills scoring knobs the request leaves unset.
	Defaults methods.Options
	// MaxConcurrentRuns bounds in-flight scoring requests; further requests
	// get 503 until a slot frees up.
	MaxConcurrentRuns int
	Version           string
}

// Server routes API requests onto the run service.
type Server struct {
	router *chi.Mux
	runs   *app.RunService
	gate   *semaphore.Weighted
	config Config
	logger *internal.Logger
}

// NewServer creates the API server around a run service.
func NewServer(config Config, runs *app.RunService) *Server {
	if config.MaxConcurrentRuns < 1 {
		config.MaxConcurrentRuns = 1
	}

	s := &Server{
		router: chi.NewRouter(),
		runs:   runs,
		gate:   semaphore.NewWeighted(int64(config.MaxConcurrentRuns)),
		config: config,
		logger: internal.DefaultLogger.WithComponent("httpapi"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Get("/v1/methods", s.handleListMethods)
	s.router.Post("/v1/decouple", s.handleDecouple)
	s.router.Get("/v1/runs", s.handleListRuns)
	s.router.Get("/v1/runs/{id}", s.handleGetRun)
	s.router.Get("/v1/runs/{id}/results", s.handleGetResults)
	s.router.Get("/v1/runs/{id}/report", s.handleReport)
}

// Handler returns the root handler for mounting into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

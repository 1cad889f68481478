// Package server exposes the call, reconciliation, and analytics surfaces
// over HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmalink/procure-cli/internal/agent"
	"github.com/pharmalink/procure-cli/internal/analytics"
	"github.com/pharmalink/procure-cli/internal/catalog"
	"github.com/pharmalink/procure-cli/internal/config"
	"github.com/pharmalink/procure-cli/internal/task"
	"github.com/pharmalink/procure-cli/internal/transcript"
)

// Server routes HTTP requests to the runner, the analytics engine, and the
// catalog views.
type Server struct {
	runner    *agent.Runner
	analytics *analytics.Engine
	catalog   *catalog.Store
	defaults  config.AnalyticsConfig
}

// New wires a server over its collaborators.
func New(runner *agent.Runner, analyticsEngine *analytics.Engine, cat *catalog.Store, defaults config.AnalyticsConfig) *Server {
	return &Server{
		runner:    runner,
		analytics: analyticsEngine,
		catalog:   cat,
		defaults:  defaults,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/agent", func(r chi.Router) {
			r.Post("/start", s.handleStart)
			r.Get("/status/{taskID}", s.handleStatus)
			r.Get("/tasks", s.handleTasks)
			r.Post("/parse/{taskID}", s.handleParseTask)
			r.Get("/transcript/{conversationRef}", s.handleTranscript)
			r.Get("/activity/recap", s.handleRecap)
			r.Get("/activity/summary", s.handleSummary)
		})
		r.Post("/parse", s.handleParseText)
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/alternatives", s.handleAlternatives)
			r.Get("/innovative", s.handleInnovative)
			r.Get("/supplier-roi", s.handleSupplierROI)
		})
		r.Get("/suppliers", s.handleSuppliers)
		r.Get("/products", s.handleProducts)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("encoding response", zap.Error(err))
	}
}

// writeError maps known sentinels to status codes; everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case eris.Is(err, task.ErrNotFound), eris.Is(err, transcript.ErrNotFound):
		status = http.StatusNotFound
	case eris.Is(err, catalog.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

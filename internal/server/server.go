// Package server contains the HTTP API of the statplane daemon.
package server

import (
	"context"
	"net/http"
	"time"

	"statplane/internal/manager"
	"statplane/internal/server/handlers"
	"statplane/internal/server/middleware"

	"log/slog"
)

// Config holds server construction options.
type Config struct {
	Addr            string
	SubmitRateLimit float64
	MetricsHandler  http.Handler
}

// Server is the HTTP server exposing the UI-facing and orchestrator-facing
// APIs. The two surfaces are built over different manager views: the
// orchestrator routes cannot serve a full result.
type Server struct {
	httpServer *http.Server
}

// New creates a new server over the given manager.
func New(cfg Config, m *manager.Manager, log *slog.Logger) *Server {
	h := handlers.New(m.UI(), m.Orchestrator(), log)
	limit := middleware.RateLimit(cfg.SubmitRateLimit, int(cfg.SubmitRateLimit)+1)

	mux := http.NewServeMux()

	// UI-facing: full access to records, results and live events.
	mux.Handle("POST /jobs", limit(http.HandlerFunc(h.SubmitJob)))
	mux.HandleFunc("GET /jobs", h.ListJobs)
	mux.HandleFunc("GET /jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /jobs/{id}/result", h.GetResult)
	mux.HandleFunc("GET /jobs/{id}/events", h.StreamEvents)
	mux.HandleFunc("POST /jobs/{id}/cancel", h.CancelJob)
	mux.HandleFunc("GET /tools", h.ListTools)
	mux.HandleFunc("PUT /datasets/{name}", h.UploadDataset)
	mux.HandleFunc("GET /datasets", h.ListDatasets)

	// Orchestrator-facing: submit and summaries only.
	mux.Handle("POST /orchestrator/jobs", limit(http.HandlerFunc(h.OrchestratorSubmit)))
	mux.HandleFunc("GET /orchestrator/jobs/{id}/summary", h.GetSummary)

	mux.HandleFunc("GET /healthz", h.Health)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:        cfg.Addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// No WriteTimeout: the events route is a long-lived SSE stream.
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

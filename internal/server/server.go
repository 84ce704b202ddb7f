package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/registry"
)

// LeakLister is the read-only registry surface the API serves.
// *registry.Registry satisfies it.
type LeakLister interface {
	// List returns leak entries matching the filter, newest first.
	List(ctx context.Context, filter registry.Filter) ([]*model.LeakEntry, error)

	// Counts returns entry counts per status.
	Counts(ctx context.Context) (map[model.LeakStatus]int, error)
}

// Server wraps the admin HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger *slog.Logger

	leaks       LeakLister
	queriesFile string

	// trigger receives one token per accepted run-now request. The
	// scheduler drains it; a full channel means a run is already pending
	// and the request coalesces into it.
	trigger chan<- struct{}
}

// New builds the admin HTTP server with its router and middlewares.
func New(addr string, leaks LeakLister, queriesFile string, trigger chan<- struct{}, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:      logger,
		leaks:       leaks,
		queriesFile: queriesFile,
		trigger:     trigger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/queries", s.handleGetQueries)
		r.Put("/queries", s.handlePutQueries)
		r.Get("/leaks", s.handleGetLeaks)
		r.Post("/run-now", s.handleRunNow)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router for tests that drive the API in-process.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start runs the HTTP server and blocks until it stops. A graceful
// shutdown via Stop is not reported as an error.
func (s *Server) Start() error {
	s.logger.Info("admin server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server within the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("admin server shutting down")
	return s.http.Shutdown(ctx)
}

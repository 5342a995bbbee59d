// Package server exposes the prerequisite pipeline over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /courses/{id}/graph          canonical graph JSON
//	POST /courses/{id}/eligibility    body: progress JSON
//	GET  /courses/{id}/stats
//	GET  /courses/{id}/tree           prerequisite courses grouped by depth
//	GET  /courses/{id}/layout         query: direction, node_separation, ...
//	GET  /courses/{id}/graph.svg      query: completed, in_progress, ...
//	GET  /metrics                     when enabled
//
// Errors are JSON objects {"error", "code", "retry"}. A course without a
// prerequisite record is a 404; a record that fails validation is a 502
// with retry set, since only upstream can fix it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/prereqgraph/internal/config"
	"github.com/matzehuels/prereqgraph/pkg/pipeline"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server serves the HTTP API for one pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	metrics http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New creates a server. A nil logger uses log.Default().
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/courses/{id}", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Post("/eligibility", s.handleEligibility)
		r.Get("/stats", s.handleStats)
		r.Get("/tree", s.handleTree)
		r.Get("/layout", s.handleLayout)
		for format := range pipeline.ContentTypes {
			r.Get("/graph."+format, s.handleRender(format))
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", false)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "INVALID_INPUT", "method not allowed", false)
	})
	return r
}

// Run listens on cfg.Addr until ctx is canceled, then drains in-flight
// requests for up to cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

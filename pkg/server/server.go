// Package server exposes the impact engine over HTTP: JSON endpoints for
// impact snapshots, life projections, daily targets, sample ingest and chart
// series, backed by the SQLite store.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ampedlife/amped/pkg/impact"
	"github.com/ampedlife/amped/pkg/store"
	"github.com/ampedlife/amped/pkg/target"
)

// Server is the amped HTTP API server.
type Server struct {
	db      *store.DB
	engine  *impact.Engine
	targets *target.Engine
	logger  *slog.Logger
	router  chi.Router
	version string
	started time.Time
	now     func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version string reported by /healthz.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithImpactEngine replaces the default aggregation engine.
func WithImpactEngine(e *impact.Engine) Option {
	return func(s *Server) { s.engine = e }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server over the given store and target engine.
func New(db *store.DB, targets *target.Engine, opts ...Option) *Server {
	s := &Server{
		db:      db,
		engine:  impact.New(),
		targets: targets,
		logger:  slog.Default(),
		version: "dev",
		started: time.Now(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/impact", s.handleImpact)
		r.Post("/projection", s.handleProjection)
		r.Post("/targets/{metric}", s.handleTarget)
		r.Post("/samples", s.handleAddSamples)
		r.Get("/chart/{metric}", s.handleChart)
	})

	s.router = r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

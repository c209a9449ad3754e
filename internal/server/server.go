// Package server exposes the translator over HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"translatex/internal/backend"
	"translatex/internal/metrics"
	"translatex/internal/translator"
	"translatex/internal/types"
)

// DefaultMaxBodyBytes limits the size of a request body.
const DefaultMaxBodyBytes = 8 << 20

// Config configures a Server.
type Config struct {
	// Options is the template for every request. Languages may be
	// overridden per request.
	Options *translator.Options
	// Registry receives the translation metrics and is served on /metrics.
	// Nil means a fresh registry.
	Registry     *prometheus.Registry
	MaxBodyBytes int64
	Version      string
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	opts    *translator.Options
	reg     *prometheus.Registry
	maxBody int64
	version string
}

// New creates and configures the server. The classification rules are
// resolved once here and shared by all requests.
func New(cfg Config) (*Server, error) {
	if cfg.Options == nil {
		return nil, types.NewAppError(types.ErrConfig, "server options are required", nil)
	}
	if err := translator.ValidateOptions(cfg.Options).Err(); err != nil {
		return nil, err
	}

	opts := *cfg.Options
	c, err := translator.ResolveClassifier(&opts)
	if err != nil {
		return nil, err
	}
	opts.Classifier = c

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewPrometheus(reg)
	}
	// Requests run concurrently, so there is no shared progress callback.
	opts.Progress = nil

	s := &Server{
		opts:    &opts,
		reg:     reg,
		maxBody: cfg.MaxBodyBytes,
		version: cfg.Version,
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/languages", s.handleLanguages)
		r.Post("/translate", s.handleTranslate)
		r.Post("/chunks", s.handleChunks)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": backend.NameOf(s.opts.Backend),
		"version": s.version,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

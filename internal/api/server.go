// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api provides the HTTP surface of the site: pages, assets, health
// endpoints and the upload session API.
package api

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ManuGH/stemsplit/internal/api/middleware"
	"github.com/ManuGH/stemsplit/internal/api/problem"
	"github.com/ManuGH/stemsplit/internal/apidocs"
	"github.com/ManuGH/stemsplit/internal/config"
	"github.com/ManuGH/stemsplit/internal/health"
	"github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/upload"
	"github.com/ManuGH/stemsplit/internal/web"
)

// SessionsPath is the mount point of the upload session API.
const SessionsPath = "/api/v1/sessions"

// multipartOverhead is allowed on top of the file size for part headers and
// the closing boundary.
const multipartOverhead = 64 * 1024

const defaultHeartbeat = 15 * time.Second

// Deps are the collaborators of the server.
type Deps struct {
	Registry *upload.Registry
	Health   *health.Manager
	Renderer *web.Renderer
	Docs     *apidocs.Document
}

// Server serves the site.
type Server struct {
	cfg      atomic.Pointer[config.AppConfig]
	registry *upload.Registry
	health   *health.Manager
	pages    *web.Pages
	logger   zerolog.Logger

	// heartbeat is the SSE keep-alive interval.
	heartbeat time.Duration

	once    sync.Once
	handler http.Handler
}

// New creates a server for cfg.
func New(cfg config.AppConfig, deps Deps) *Server {
	s := &Server{
		registry:  deps.Registry,
		health:    deps.Health,
		logger:    log.WithComponent("api"),
		heartbeat: defaultHeartbeat,
	}
	s.cfg.Store(&cfg)
	s.pages = web.NewPages(deps.Renderer, deps.Docs, s.maxBytes)
	return s
}

// UpdateConfig applies a reloaded configuration. Settings baked into the
// middleware stack, like CORS origins and rate limits, need a restart.
func (s *Server) UpdateConfig(cfg config.AppConfig) {
	s.cfg.Store(&cfg)
}

func (s *Server) config() config.AppConfig { return *s.cfg.Load() }

func (s *Server) maxBytes() int64 {
	if n := s.config().Upload.MaxBytes; n > 0 {
		return n
	}
	return upload.DefaultMaxBytes
}

// Handler returns the root handler. It is built once.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() { s.handler = s.routes() })
	return s.handler
}

func (s *Server) routes() http.Handler {
	cfg := s.config()
	trusted := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            len(cfg.AllowedOrigins) > 0,
		AllowedOrigins:        cfg.AllowedOrigins,
		EnableSecurityHeaders: true,
		TrustedProxies:        trusted,
		EnableMetrics:         cfg.Metrics.Enabled,
		TracingService:        tracingService(cfg),
		EnableLogging:         true,
	})

	if s.health != nil {
		r.Get("/healthz", s.health.ServeHealth)
		r.Get("/readyz", s.health.ServeReady)
	}
	r.Handle("/static/*", web.StaticHandler("/static"))
	r.Get("/openapi.yaml", apidocs.ServeHTTP)
	s.pages.Mount(r)

	r.Route(SessionsPath, func(r chi.Router) {
		if cfg.RateLimit.Enabled && cfg.RateLimit.RPM > 0 {
			r.Use(middleware.SessionRateLimit(cfg.RateLimit.RPM, trusted))
		}
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/file", s.handleSelectFile)
			r.Delete("/file", s.handleRemoveFile)
			r.Put("/options", s.handleSetOptions)
			r.Post("/submit", s.handleSubmit)
			r.Get("/events", s.handleEvents)
		})
	})

	r.NotFound(s.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusMethodNotAllowed, "request/method", "Method Not Allowed", "METHOD_NOT_ALLOWED", "", nil)
	})
	return r
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		problem.Write(w, r, http.StatusNotFound, "request/not_found", "Not Found", "NOT_FOUND", "", nil)
		return
	}
	s.pages.NotFound(w, r)
}

func tracingService(cfg config.AppConfig) string {
	if !cfg.Tracing.Enabled {
		return ""
	}
	if cfg.LogService != "" {
		return cfg.LogService
	}
	return "stemsplit"
}

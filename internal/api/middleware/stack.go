// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package middleware provides the HTTP ingress middleware of the site.
package middleware

import (
	"net"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/stemsplit/internal/log"
)

// StackConfig configures the canonical HTTP ingress middleware stack.
type StackConfig struct {
	// CORS
	EnableCORS           bool
	AllowedOrigins       []string
	CORSAllowCredentials bool

	// Security headers
	EnableSecurityHeaders bool
	CSP                   string

	// TrustedProxies defines which IPs are trusted to set X-Forwarded-Proto.
	TrustedProxies []*net.IPNet

	// Observability
	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r. Rate limiting is
// mounted per route group because it only guards the session API.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(Recoverer)
	// 2. RequestID (correlation early)
	r.Use(RequestID)
	// 3. CORS (so OPTIONS and browser clients behave)
	if cfg.EnableCORS {
		r.Use(CORS(cfg.AllowedOrigins, cfg.CORSAllowCredentials))
	}
	// 4. CSRF (fail-closed for state-changing requests)
	r.Use(CSRFProtection(cfg.AllowedOrigins))
	// 5. Security headers
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP, cfg.TrustedProxies))
	}
	// 6. Metrics
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 7. Tracing
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	// 8. Logging (wraps handlers, captures full latency)
	if cfg.EnableLogging {
		r.Use(log.Middleware())
	}
}

// ParseTrustedProxies converts CIDR strings. Invalid entries are skipped;
// config validation rejects them earlier.
func ParseTrustedProxies(cidrs []string) []*net.IPNet {
	var out []*net.IPNet
	for _, c := range cidrs {
		if _, n, err := net.ParseCIDR(c); err == nil {
			out = append(out, n)
		}
	}
	return out
}

package middleware

import (
	"net/http"
	"strings"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, X-Request-ID, Last-Event-ID"
	corsExpose  = "Retry-After, Content-Length, Location, X-Request-ID"
)

// CORS sets Cross-Origin Resource Sharing headers for an explicit origin
// list. "*" allows every origin.
func CORS(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if normalized, ok := normalizeOrigin(origin); ok {
			allowed[normalized] = true
		} else if strings.TrimSpace(origin) == "*" {
			allowed["*"] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if origin, ok := normalizeOrigin(r.Header.Get("Origin")); ok && (allowed["*"] || allowed[origin]) {
				h.Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
				if allowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Expose-Headers", corsExpose)
			h.Set("Access-Control-Max-Age", "600")

			// Responses differ per Origin.
			if vary := h.Get("Vary"); vary == "" {
				h.Set("Vary", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers")
			} else if !strings.Contains(vary, "Origin") {
				h.Set("Vary", vary+", Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Allow", corsMethods)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

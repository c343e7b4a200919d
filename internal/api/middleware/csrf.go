package middleware

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ManuGH/stemsplit/internal/api/problem"
)

// CSRFProtection rejects state-changing requests whose Origin (or Referer)
// is neither an allowed origin nor the strict same origin.
//
// Safe methods pass. Unsafe methods without any origin information fail
// closed. Same-origin is only trusted when no forwarding headers are present.
func CSRFProtection(allowedOrigins []string) func(http.Handler) http.Handler {
	var origins map[string]bool
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if origins == nil {
			origins = make(map[string]bool)
		}
		if trimmed == "*" {
			origins["*"] = true
			continue
		}
		if normalized, ok := normalizeOrigin(trimmed); ok {
			origins[normalized] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			requestOrigin := requestOrigin(r)
			if requestOrigin == "" {
				writeCSRFProblem(w, r, "Missing origin or referer header")
				return
			}
			if !originAllowed(requestOrigin, origins, r) {
				writeCSRFProblem(w, r, "Origin not trusted")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeCSRFProblem(w http.ResponseWriter, r *http.Request, detail string) {
	problem.Write(w, r, http.StatusForbidden, "auth/csrf", "Forbidden", "CSRF_FORBIDDEN", detail, nil)
}

// requestOrigin prefers Origin and falls back to the scheme and host of Referer.
func requestOrigin(r *http.Request) string {
	if origin, ok := normalizeOrigin(r.Header.Get("Origin")); ok {
		return origin
	}

	referer, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || referer.Scheme == "" || referer.Host == "" {
		return ""
	}
	origin, _ := normalizeOrigin(referer.Scheme + "://" + referer.Host)
	return origin
}

func originAllowed(origin string, allowed map[string]bool, r *http.Request) bool {
	if allowed["*"] || allowed[origin] {
		return true
	}
	if hasProxyHeaders(r) {
		return false
	}
	return origin == strictSameOrigin(r)
}

var forwardingHeaders = []string{
	"Forwarded",
	"X-Forwarded-For",
	"X-Forwarded-Host",
	"X-Forwarded-Proto",
	"X-Forwarded-Server",
}

func hasProxyHeaders(r *http.Request) bool {
	for _, h := range forwardingHeaders {
		if r.Header.Get(h) != "" {
			return true
		}
	}
	return false
}

// strictSameOrigin rebuilds the origin from Host and the connection state only.
func strictSameOrigin(r *http.Request) string {
	if r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	origin, _ := normalizeOrigin(scheme + "://" + r.Host)
	return origin
}

// normalizeOrigin lowercases scheme and host and drops default ports.
func normalizeOrigin(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" || strings.ContainsAny(host, " \t\r\n/@\\") {
		return "", false
	}

	port := parsed.Port()
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return "", false
		}
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	if port != "" {
		return scheme + "://" + net.JoinHostPort(host, port), true
	}
	if strings.Contains(host, ":") {
		return scheme + "://[" + host + "]", true
	}
	return scheme + "://" + host, true
}

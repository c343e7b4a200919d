// SPDX-License-Identifier: MIT

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/stemsplit/internal/api/problem"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// RequestLimit is the maximum number of requests allowed in the window.
	RequestLimit int
	// WindowSize is the sliding window.
	WindowSize time.Duration
	// KeyFunc extracts the limiter key. Defaults to the client IP.
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimit limits requests with a sliding window counter and answers
// 429 problems carrying Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	retryAfter := strconv.Itoa(max(1, int(cfg.WindowSize.Seconds())))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			problem.Write(w, r, http.StatusTooManyRequests, "rate_limit/exceeded", "Too Many Requests", "RATE_LIMITED",
				"Too many requests. Please try again later.", nil)
		}),
	)
}

// SessionRateLimit limits the session API to rpm requests per minute per
// client.
func SessionRateLimit(rpm int, trusted []*net.IPNet) func(http.Handler) http.Handler {
	return RateLimit(RateLimitConfig{
		RequestLimit: rpm,
		WindowSize:   time.Minute,
		KeyFunc:      ClientKey(trusted),
	})
}

// ClientKey keys requests by client address. X-Forwarded-For is honoured
// only when the peer is a trusted proxy; the right-most hop outside the
// trusted ranges is the client.
func ClientKey(trusted []*net.IPNet) func(*http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		peer := RemoteIP(r)
		if peer == nil {
			return r.RemoteAddr, nil
		}
		if !IsIPAllowed(peer, trusted) {
			return peer.String(), nil
		}

		hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				break
			}
			if !IsIPAllowed(ip, trusted) {
				return ip.String(), nil
			}
		}
		return peer.String(), nil
	}
}

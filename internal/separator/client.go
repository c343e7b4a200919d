// Package separator is the HTTP client for the external audio separation
// backend: multipart upload, job status polling and track URLs.
package separator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/platform/httpx"
	"github.com/ManuGH/stemsplit/internal/resilience"
)

// Backend paths.
const (
	UploadPath = "/api/upload"
	StatusPath = "/v1/status/"
	TracksPath = "/v1/tracks/"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout bounds a whole request, including streaming the upload body.
	Timeout          time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
	// PollRPS caps status requests across all jobs.
	PollRPS float64
}

// Client talks to the separation backend.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *resilience.CircuitBreaker
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient builds a client. The base URL must already be validated.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.PollRPS <= 0 {
		cfg.PollRPS = 20
	}

	burst := max(1, int(cfg.PollRPS))

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: httpx.NewClient(cfg.Timeout,
			httpx.WithResponseHeaderTimeout(cfg.Timeout),
			httpx.WithTracing("separator"),
		),
		breaker: resilience.NewCircuitBreaker("separator", cfg.BreakerThreshold, cfg.BreakerReset,
			resilience.WithFailurePredicate(countsAgainstBreaker)),
		limiter: rate.NewLimiter(rate.Limit(cfg.PollRPS), burst),
		logger:  log.WithComponent("separator"),
	}
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TrackURL returns the download URL for a separated track.
func (c *Client) TrackURL(trackID string) string {
	return c.baseURL + TracksPath + url.PathEscape(trackID)
}

// BreakerState exposes the circuit state for diagnostics.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Ping reports whether the backend answers HTTP at all. Any status code counts
// as reachable; only transport errors fail.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping separator: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

package separator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ManuGH/stemsplit/internal/metrics"
)

// Track is one separated stem in a completed job.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
}

// JobStatus is the backend's view of a job.
type JobStatus struct {
	JobID    string  `json:"job_id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Tracks   []Track `json:"tracks"`
	Error    string  `json:"error,omitempty"`
}

// Status fetches GET {base}/v1/status/{job_id}. Calls are rate limited
// across all jobs and pass through the circuit breaker.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	if jobID == "" {
		return nil, ErrNoJobID
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("status rate limit: %w", err)
	}

	var out JobStatus
	start := time.Now()
	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+StatusPath+url.PathEscape(jobID), nil)
		if err != nil {
			return fmt.Errorf("create status request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
			return &StatusError{Op: "status", Code: resp.StatusCode, Body: truncate(raw)}
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
			return fmt.Errorf("decode status: %w", err)
		}
		return nil
	})
	metrics.ObserveBackendRequest("status", requestOutcome(err), start)
	if err != nil {
		metrics.RecordStatusPoll(requestOutcome(err))
		return nil, err
	}

	metrics.RecordStatusPoll("ok")
	if out.JobID == "" {
		out.JobID = jobID
	}
	return &out, nil
}

func requestOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isCircuitOpen(err):
		return "open"
	default:
		return "error"
	}
}

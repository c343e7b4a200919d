package separator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/metrics"
	"github.com/ManuGH/stemsplit/internal/telemetry"
)

const maxLoggedBody = 4 << 10

// UploadRequest describes one multipart upload.
type UploadRequest struct {
	FileName string
	Size     int64
	Content  io.Reader
	Model    string

	HighQuality bool
	EnhanceBass bool

	// Progress receives the rounded percentage of file bytes sent. It is
	// called from the transport goroutine and must not block.
	Progress func(percent int)
}

// UploadResult is the backend's answer to an upload.
type UploadResult struct {
	Body  []byte
	JobID string
}

// Upload sends the file as a single multipart POST to {base}/api/upload.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	ctx, span := telemetry.Tracer("separator").Start(ctx, "separator.upload")
	defer span.End()
	span.SetAttributes(telemetry.UploadAttributes(log.SessionIDFromContext(ctx), req.FileName, "", req.Model, req.Size)...)

	body, contentType, length, err := buildMultipart(req)
	if err != nil {
		return nil, err
	}

	var result *UploadResult
	start := time.Now()
	err = c.breaker.Execute(func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, body)
		if err != nil {
			return fmt.Errorf("create upload request: %w", err)
		}
		httpReq.ContentLength = length
		httpReq.Header.Set("Content-Type", contentType)
		httpReq.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("read upload response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &StatusError{Op: "upload", Code: resp.StatusCode, Body: truncate(raw)}
		}

		result = &UploadResult{Body: raw, JobID: extractJobID(raw)}
		return nil
	})
	metrics.ObserveBackendRequest("upload", requestOutcome(err), start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return nil, err
	}

	logger := log.WithContext(ctx, c.logger)
	logger.Info().
		Str("event", "separator.upload_response").
		Str(log.FieldFileName, req.FileName).
		Str(log.FieldJobID, result.JobID).
		Str("body", truncate(result.Body)).
		Msg("upload accepted")

	return result, nil
}

// buildMultipart lays out the form as head + file + tail so the body can be
// streamed with a known Content-Length.
func buildMultipart(req UploadRequest) (io.Reader, string, int64, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("model", req.Model); err != nil {
		return nil, "", 0, fmt.Errorf("write model field: %w", err)
	}
	if req.HighQuality {
		if err := mw.WriteField("highQuality", "true"); err != nil {
			return nil, "", 0, fmt.Errorf("write highQuality field: %w", err)
		}
	}
	if req.EnhanceBass {
		if err := mw.WriteField("enhanceBass", "true"); err != nil {
			return nil, "", 0, fmt.Errorf("write enhanceBass field: %w", err)
		}
	}
	if _, err := mw.CreateFormFile("file", req.FileName); err != nil {
		return nil, "", 0, fmt.Errorf("create file part: %w", err)
	}
	headLen := buf.Len()
	if err := mw.Close(); err != nil {
		return nil, "", 0, fmt.Errorf("close multipart: %w", err)
	}

	raw := buf.Bytes()
	head := raw[:headLen]
	tail := raw[headLen:]

	file := &progressReader{r: req.Content, total: req.Size, report: req.Progress}
	body := io.MultiReader(bytes.NewReader(head), file, bytes.NewReader(tail))
	length := int64(len(head)) + req.Size + int64(len(tail))

	return body, mw.FormDataContentType(), length, nil
}

type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	last   int
	report func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.report != nil {
		p.sent += int64(n)
		pct := percent(p.sent, p.total)
		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}

func percent(sent, total int64) int {
	if total <= 0 {
		total = 1
	}
	pct := int(math.Round(float64(sent) * 100 / float64(total)))
	return min(max(pct, 0), 100)
}

// extractJobID reads a job identifier from a JSON response if one is present.
func extractJobID(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"job_id", "jobId", "id"} {
		switch v := payload[key].(type) {
		case string:
			return v
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody] + "..."
	}
	return s
}

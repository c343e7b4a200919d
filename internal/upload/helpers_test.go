package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/stemsplit/internal/separator"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	reqs  []separator.UploadRequest
	body  []string

	// errs is consumed one per call; nil entries succeed.
	errs  []error
	jobID string
	// block, when set, holds the upload until closed or cancelled.
	block    chan struct{}
	progress []int
}

func (f *fakeUploader) Upload(ctx context.Context, req separator.UploadRequest) (*separator.UploadResult, error) {
	f.mu.Lock()
	f.calls++
	f.reqs = append(f.reqs, req)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	block := f.block
	progress := f.progress
	f.mu.Unlock()

	data, readErr := io.ReadAll(req.Content)
	if readErr != nil {
		return nil, readErr
	}
	f.mu.Lock()
	f.body = append(f.body, string(data))
	f.mu.Unlock()

	for _, p := range progress {
		req.Progress(p)
	}

	if block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-block:
		}
	}
	if err != nil {
		return nil, err
	}
	return &separator.UploadResult{Body: []byte(`{"job_id":"` + f.jobID + `"}`), JobID: f.jobID}, nil
}

func (f *fakeUploader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeUploader) LastRequest() separator.UploadRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

var errNetwork = errors.New("connection refused")

func fastTracker() *SimulatedTracker {
	return &SimulatedTracker{
		QueueDelay: 5 * time.Millisecond,
		Tick:       time.Millisecond,
		MaxStep:    5,
		Rand:       func() float64 { return 0.99 },
	}
}

func newTestController(t *testing.T, up Uploader, tr Tracker) (*Controller, *Spool) {
	t.Helper()
	spool, err := NewSpool(t.TempDir())
	require.NoError(t, err)
	c := NewController("test-session", Deps{Uploader: up, Tracker: tr, Spool: spool, MaxBytes: 1 << 20})
	t.Cleanup(c.Close)
	return c, spool
}

func selectSong(t *testing.T, c *Controller, name, content string) Selection {
	t.Helper()
	sel, err := c.SelectContent(name, "", int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)
	return sel
}

func waitState(t *testing.T, c *Controller, cond func(State) bool) State {
	t.Helper()
	var last State
	require.Eventually(t, func() bool {
		last = c.State()
		return cond(last)
	}, 2*time.Second, time.Millisecond, "state never matched: %+v", last)
	return last
}

func statusRank(s JobStatus) int {
	switch s {
	case StatusNone:
		return 0
	case StatusQueued:
		return 1
	case StatusProcessing:
		return 2
	default:
		return 3
	}
}

package separator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/stemsplit/internal/resilience"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:          srv.URL + "/",
		Timeout:          5 * time.Second,
		BreakerThreshold: 2,
		BreakerReset:     time.Minute,
		PollRPS:          1000,
	})
}

func TestUpload_SendsMultipartForm(t *testing.T) {
	content := bytes.Repeat([]byte("a"), 256*1024)

	var gotFields map[string]string
	var gotFile []byte
	var gotName string
	var gotLength int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, UploadPath, r.URL.Path)
		gotLength = r.ContentLength

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotName = hdr.Filename
		gotFile, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"job_id":"job-42","status":"queued"}`))
	}))

	var mu sync.Mutex
	var reported []int
	res, err := c.Upload(context.Background(), UploadRequest{
		FileName:    "song.mp3",
		Size:        int64(len(content)),
		Content:     bytes.NewReader(content),
		Model:       "advanced",
		HighQuality: true,
		EnhanceBass: true,
		Progress: func(p int) {
			mu.Lock()
			reported = append(reported, p)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "job-42", res.JobID)
	assert.Equal(t, "song.mp3", gotName)
	assert.Equal(t, content, gotFile)
	assert.Greater(t, gotLength, int64(len(content)), "content length must be known")
	assert.Equal(t, map[string]string{"model": "advanced", "highQuality": "true", "enhanceBass": "true"}, gotFields)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, reported)
	assert.Equal(t, 100, reported[len(reported)-1])
	for i := 1; i < len(reported); i++ {
		assert.GreaterOrEqual(t, reported[i], reported[i-1], "progress must be monotonic")
	}
}

func TestUpload_OmitsDisabledFlags(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "standard", r.FormValue("model"))
		_, hq := r.MultipartForm.Value["highQuality"]
		_, eb := r.MultipartForm.Value["enhanceBass"]
		assert.False(t, hq)
		assert.False(t, eb)
		_, _ = w.Write([]byte("ok"))
	}))

	res, err := c.Upload(context.Background(), UploadRequest{
		FileName: "a.wav", Size: 3, Content: strings.NewReader("abc"), Model: "standard",
	})
	require.NoError(t, err)
	assert.Empty(t, res.JobID, "non-JSON body has no job id")
	assert.Equal(t, "ok", string(res.Body))
}

func TestUpload_Non2xxIsStatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "disk full", http.StatusInsufficientStorage)
	}))

	_, err := c.Upload(context.Background(), UploadRequest{
		FileName: "a.wav", Size: 1, Content: strings.NewReader("a"), Model: "standard",
	})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInsufficientStorage, se.Code)
	assert.Contains(t, se.Body, "disk full")
	assert.True(t, se.Temporary())
}

func TestUpload_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		_, err := c.Upload(context.Background(), UploadRequest{FileName: "a", Size: 1, Content: strings.NewReader("a")})
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.Upload(context.Background(), UploadRequest{FileName: "a", Size: 1, Content: strings.NewReader("a")})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestUpload_ClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	for i := 0; i < 3; i++ {
		_, err := c.Upload(context.Background(), UploadRequest{FileName: "a", Size: 1, Content: strings.NewReader("a")})
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/status/job%2F1", r.URL.EscapedPath())
		_ = json.NewEncoder(w).Encode(JobStatus{
			Status:   "completed",
			Progress: 100,
			Tracks:   []Track{{ID: "t1", Name: "vocals"}},
		})
	}))

	st, err := c.Status(context.Background(), "job/1")
	require.NoError(t, err)
	assert.Equal(t, "job/1", st.JobID, "job id defaulted from request")
	assert.Equal(t, "completed", st.Status)
	require.Len(t, st.Tracks, 1)
	assert.Equal(t, "vocals", st.Tracks[0].Name)
}

func TestStatus_Errors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.Status(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoJobID)

	_, err = c.Status(context.Background(), "missing")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.False(t, se.Temporary())
}

func TestStatus_RespectsCancellation(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", PollRPS: 0.001})
	// drain the single burst token
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Status(ctx, "job")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "rate"), "got %v", err)
}

func TestTrackURLAndPing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	assert.True(t, strings.HasSuffix(c.TrackURL("a b"), "/v1/tracks/a%20b"))
	assert.False(t, strings.HasSuffix(c.BaseURL(), "/"))
	assert.NoError(t, c.Ping(context.Background()), "any HTTP answer is reachable")

	dead := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	assert.Error(t, dead.Ping(context.Background()))
}

func TestExtractJobID(t *testing.T) {
	tests := map[string]string{
		`{"job_id":"a"}`: "a",
		`{"jobId":"b"}`:  "b",
		`{"id":17}`:      "17",
		`{"other":1}`:    "",
		`not json`:       "",
	}
	for body, want := range tests {
		assert.Equal(t, want, extractJobID([]byte(body)), body)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, percent(0, 10))
	assert.Equal(t, 50, percent(5, 10))
	assert.Equal(t, 100, percent(10, 10))
	assert.Equal(t, 100, percent(20, 10))
	assert.Equal(t, 100, percent(1, 0), "zero total behaves like one byte")
}

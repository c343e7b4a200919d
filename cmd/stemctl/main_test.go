package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/stemsplit/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

type fakeSeparator struct {
	mu     sync.Mutex
	fields map[string]string
	file   string
	status int
}

func (f *fakeSeparator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/upload" {
		http.NotFound(w, r)
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = map[string]string{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(part)
		if part.FormName() == "file" {
			f.file = part.FileName()
			continue
		}
		f.fields[part.FormName()] = string(b)
	}

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"job_id":"job-42"}`)
}

// writeTestConfig points a fast simulated tracker at api.
func writeTestConfig(t *testing.T, api string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Separator.BaseURL = api
	cfg.Upload.SpoolDir = filepath.Join(dir, "spool")
	cfg.Upload.Tracker = config.TrackerSimulated
	cfg.Upload.QueueDelay = 5 * time.Millisecond
	cfg.Upload.TickInterval = 2 * time.Millisecond
	cfg.Upload.MaxStep = 40
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.WriteFile(path, cfg))
	return path
}

func writeAudio(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x1}, size), 0o600))
	return path
}

func TestModelsCommand(t *testing.T) {
	out, _, err := runCLI(t, "models")
	require.NoError(t, err)
	for _, id := range []string{"standard", "advanced", "professional"} {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "Free")

	out, _, err = runCLI(t, "models", "--json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "["))
}

func TestPlansCommandBilling(t *testing.T) {
	monthly, _, err := runCLI(t, "plans")
	require.NoError(t, err)
	assert.Contains(t, monthly, "/month")
	assert.Contains(t, monthly, "/forever")

	yearly, _, err := runCLI(t, "plans", "--billing", "yearly")
	require.NoError(t, err)
	assert.Contains(t, yearly, "/year")
	assert.NotContains(t, yearly, "/month")
}

func TestUploadCommandCompletes(t *testing.T) {
	sep := &fakeSeparator{}
	srv := httptest.NewServer(sep)
	t.Cleanup(srv.Close)

	cfgPath := writeTestConfig(t, srv.URL)
	file := writeAudio(t, "song.mp3", 4096)

	out, _, err := runCLI(t, "-c", cfgPath, "upload", file, "--model", "advanced", "--enhance-bass")
	require.NoError(t, err)

	assert.Contains(t, out, "Processing Complete!")
	assert.Contains(t, out, "job-42")
	for _, name := range []string{"vocals.mp3", "instruments.mp3", "drums.mp3", "bass.mp3"} {
		assert.Contains(t, out, name)
	}

	sep.mu.Lock()
	defer sep.mu.Unlock()
	assert.Equal(t, "song.mp3", sep.file)
	assert.Equal(t, map[string]string{"model": "advanced", "enhanceBass": "true"}, sep.fields)
}

func TestUploadCommandDetach(t *testing.T) {
	srv := httptest.NewServer(&fakeSeparator{})
	t.Cleanup(srv.Close)

	out, _, err := runCLI(t, "-c", writeTestConfig(t, srv.URL), "upload", writeAudio(t, "clip.wav", 128), "--detach")
	require.NoError(t, err)
	assert.Contains(t, out, "uploaded, job job-42")
	assert.NotContains(t, out, "vocals.mp3")
}

func TestUploadCommandFailures(t *testing.T) {
	srv := httptest.NewServer(&fakeSeparator{status: http.StatusBadGateway})
	t.Cleanup(srv.Close)
	cfgPath := writeTestConfig(t, srv.URL)

	t.Run("server error", func(t *testing.T) {
		_, _, err := runCLI(t, "-c", cfgPath, "upload", writeAudio(t, "song.mp3", 64))
		require.Error(t, err)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, _, err := runCLI(t, "-c", cfgPath, "upload", writeAudio(t, "notes.txt", 64))
		require.Error(t, err)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, _, err := runCLI(t, "-c", cfgPath, "upload", writeAudio(t, "song.mp3", 64), "--model", "turbo")
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := runCLI(t, "-c", cfgPath, "upload", filepath.Join(t.TempDir(), "nope.mp3"))
		require.Error(t, err)
	})
}


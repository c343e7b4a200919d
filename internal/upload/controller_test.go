// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upload

import (
	"context"
	"errors"
	"os"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_NoFileFailsWithoutNetworkCall(t *testing.T) {
	up := &fakeUploader{}
	c, _ := newTestController(t, up, fastTracker())

	err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrNoFile)

	st := c.State()
	assert.Equal(t, MsgNoFile, st.Error)
	assert.False(t, st.Uploading)
	assert.Equal(t, 0, up.Calls())

	require.ErrorIs(t, c.Start(context.Background()), ErrNoFile)
	assert.Equal(t, 0, up.Calls())
}

func TestSubmit_FullLifecycle(t *testing.T) {
	up := &fakeUploader{jobID: "job-1"}
	c, _ := newTestController(t, up, fastTracker())
	selectSong(t, c, "song.mp3", "ID3-audio")

	updates, cancel := c.Subscribe()
	defer cancel()

	require.NoError(t, c.Submit(context.Background()))

	st := c.State()
	assert.True(t, st.Uploaded)
	assert.Equal(t, 100, st.UploadProgress)
	assert.Equal(t, "job-1", st.JobID)
	assert.Empty(t, st.Error)

	var seen []State
	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case s := <-updates:
			seen = append(seen, s)
			done = s.Status == StatusCompleted
		case <-timeout:
			t.Fatal("job never completed")
		}
	}

	lastRank, lastProgress := 0, 0
	for _, s := range seen {
		assert.GreaterOrEqual(t, statusRank(s.Status), lastRank, "status moved backwards")
		assert.GreaterOrEqual(t, s.Progress, lastProgress, "progress moved backwards")
		assert.GreaterOrEqual(t, s.Progress, 0)
		assert.LessOrEqual(t, s.Progress, 100)
		lastRank, lastProgress = statusRank(s.Status), s.Progress
	}

	final := c.State()
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)
	assert.Equal(t, StaticOutputs(), final.Outputs)
	assert.Len(t, final.Outputs, 4)
	assert.Equal(t, "ID3-audio", up.body[0])
}

func TestSubmit_FailureKeepsSelectionAndAllowsRetry(t *testing.T) {
	up := &fakeUploader{errs: []error{errNetwork}, jobID: "job-2"}
	c, _ := newTestController(t, up, fastTracker())
	sel := selectSong(t, c, "song.wav", "RIFF")

	err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrUploadFailed)
	require.ErrorIs(t, err, errNetwork)

	st := c.State()
	assert.Equal(t, MsgUploadFailed, st.Error)
	assert.False(t, st.Uploading)
	assert.False(t, st.Uploaded)
	require.NotNil(t, st.Selection)
	assert.Equal(t, sel.Name, st.Selection.Name)
	assert.Equal(t, StatusNone, st.Status)

	require.NoError(t, c.Submit(context.Background()))
	st = c.State()
	assert.Empty(t, st.Error, "retry clears the error")
	assert.True(t, st.Uploaded)
	assert.Equal(t, 2, up.Calls())
}

func TestSelectFile_ClearsPreviousState(t *testing.T) {
	up := &fakeUploader{errs: []error{errNetwork}}
	c, _ := newTestController(t, up, fastTracker())
	selectSong(t, c, "a.mp3", "a")

	require.Error(t, c.Submit(context.Background()))
	require.Equal(t, MsgUploadFailed, c.State().Error)

	selectSong(t, c, "b.flac", "b")
	st := c.State()
	assert.Empty(t, st.Error)
	assert.Equal(t, "b.flac", st.Selection.Name)

	// after a completed job, a new selection clears outputs too
	require.NoError(t, c.Submit(context.Background()))
	waitState(t, c, func(s State) bool { return s.Status == StatusCompleted })

	selectSong(t, c, "c.mp4", "c")
	st = c.State()
	assert.False(t, st.Uploaded)
	assert.Equal(t, StatusNone, st.Status)
	assert.Equal(t, 0, st.Progress)
	assert.Empty(t, st.Outputs)
	assert.Equal(t, MediaVideo, st.Selection.Kind)
}

func TestSubmit_RejectsWhileUploadingAndAfterSuccess(t *testing.T) {
	block := make(chan struct{})
	up := &fakeUploader{block: block, jobID: "job-3"}
	c, _ := newTestController(t, up, &SimulatedTracker{QueueDelay: time.Hour, Tick: time.Hour, MaxStep: 5})
	selectSong(t, c, "song.mp3", "x")

	require.NoError(t, c.Start(context.Background()))
	waitState(t, c, func(s State) bool { return s.Uploading })

	assert.ErrorIs(t, c.Submit(context.Background()), ErrBusy)
	assert.ErrorIs(t, c.SelectFile(Selection{Name: "other.mp3"}), ErrBusy)
	// Rejected before the body is read.
	_, err := c.SelectContent("other.mp3", "audio/mpeg", 5, iotest.ErrReader(errors.New("body was read")))
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.RemoveFile(), ErrBusy)

	close(block)
	waitState(t, c, func(s State) bool { return s.Uploaded && s.Status == StatusQueued })

	assert.ErrorIs(t, c.Submit(context.Background()), ErrAlreadyUploaded)
	assert.Equal(t, 1, up.Calls())
}

func TestSubmit_UploadProgressIsMonotonic(t *testing.T) {
	block := make(chan struct{})
	up := &fakeUploader{block: block, progress: []int{30, 20, 70}}
	c, _ := newTestController(t, up, fastTracker())
	selectSong(t, c, "song.mp3", "x")

	require.NoError(t, c.Start(context.Background()))
	st := waitState(t, c, func(s State) bool { return s.UploadProgress == 70 })
	assert.True(t, st.Uploading)

	close(block)
	waitState(t, c, func(s State) bool { return s.Uploaded })
}

func TestSubmit_CallerCancellationFailsUpload(t *testing.T) {
	up := &fakeUploader{block: make(chan struct{})}
	c, _ := newTestController(t, up, fastTracker())
	selectSong(t, c, "song.mp3", "x")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Submit(ctx)
	require.ErrorIs(t, err, context.Canceled)
	st := c.State()
	assert.Equal(t, MsgUploadFailed, st.Error)
	assert.NotNil(t, st.Selection)
}

func TestSetOptions(t *testing.T) {
	up := &fakeUploader{}
	c, _ := newTestController(t, up, fastTracker())

	err := c.SetOptions(Options{Model: "turbo"})
	require.ErrorIs(t, err, ErrUnknownModel)
	err = c.SetOptions(Options{Model: ModelAdvanced, OutputFormat: "ogg"})
	require.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, DefaultOptions(), c.State().Options)

	require.NoError(t, c.SetOptions(Options{Model: ModelProfessional, HighQuality: true, EnhanceVocals: true}))
	assert.Equal(t, FormatMP3, c.State().Options.OutputFormat, "empty format defaults to mp3")

	selectSong(t, c, "song.mp3", "x")
	require.NoError(t, c.Submit(context.Background()))

	req := up.LastRequest()
	assert.Equal(t, "professional", req.Model)
	assert.True(t, req.HighQuality)
	assert.False(t, req.EnhanceBass)
	assert.Equal(t, "song.mp3", req.FileName)
	assert.Equal(t, int64(1), req.Size)
}

func TestRemoveFile(t *testing.T) {
	c, _ := newTestController(t, &fakeUploader{}, fastTracker())
	sel := selectSong(t, c, "song.mp3", "x")

	require.NoError(t, c.RemoveFile())
	assert.Nil(t, c.State().Selection)

	_, err := os.Stat(sel.Path)
	assert.True(t, os.IsNotExist(err), "spooled file removed")

	require.ErrorIs(t, c.Submit(context.Background()), ErrNoFile)
}

func TestSelectContent_Validation(t *testing.T) {
	c, spool := newTestController(t, &fakeUploader{}, fastTracker())

	first := selectSong(t, c, "one.mp3", "1")
	second := selectSong(t, c, "two.mp3", "2")

	_, err := os.Stat(first.Path)
	assert.True(t, os.IsNotExist(err), "replaced selection is removed from the spool")
	_, err = os.Stat(second.Path)
	assert.NoError(t, err)

	_, err = c.SelectContent("notes.txt", "text/plain", 4, nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	entries, err := os.ReadDir(spool.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClose_CancelsJobAndCleansUp(t *testing.T) {
	up := &fakeUploader{jobID: "job-4"}
	spool, err := NewSpool(t.TempDir())
	require.NoError(t, err)
	c := NewController("s", Deps{
		Uploader: up,
		Tracker:  &SimulatedTracker{QueueDelay: time.Hour, Tick: time.Hour, MaxStep: 5},
		Spool:    spool,
	})
	sel := selectSong(t, c, "song.mp3", "x")

	updates, _ := c.Subscribe()
	require.NoError(t, c.Submit(context.Background()))
	waitState(t, c, func(s State) bool { return s.Status == StatusQueued })

	c.Close()
	c.Close() // idempotent

	st := c.State()
	assert.Equal(t, StatusCancelled, st.Status)
	assert.Equal(t, MsgCancelled, st.Message)

	_, err = os.Stat(sel.Path)
	assert.True(t, os.IsNotExist(err))

	// subscription drains then closes
	var last State
	for s := range updates {
		last = s
	}
	assert.Equal(t, StatusCancelled, last.Status)

	assert.ErrorIs(t, c.SelectFile(Selection{}), ErrClosed)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrClosed)
}

func TestClose_CancelsInflightUpload(t *testing.T) {
	up := &fakeUploader{block: make(chan struct{})}
	c, _ := newTestController(t, up, fastTracker())
	selectSong(t, c, "song.mp3", "x")

	require.NoError(t, c.Start(context.Background()))
	waitState(t, c, func(s State) bool { return s.Uploading })

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the upload")
	}
	st := c.State()
	assert.False(t, st.Uploading)
	assert.Empty(t, st.Error, "cancellation is not a user-visible failure")
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	c, _ := newTestController(t, &fakeUploader{}, fastTracker())

	ch, cancel := c.Subscribe()
	first := <-ch
	assert.Equal(t, StatusNone, first.Status)
	assert.Equal(t, "test-session", first.SessionID)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestIdle(t *testing.T) {
	c, _ := newTestController(t, &fakeUploader{}, fastTracker())
	now := time.Now()

	assert.False(t, c.Idle(now, time.Minute))
	assert.True(t, c.Idle(now.Add(2*time.Minute), time.Minute))

	_, cancel := c.Subscribe()
	assert.False(t, c.Idle(now.Add(2*time.Minute), time.Minute), "watched sessions are never idle")
	cancel()
}

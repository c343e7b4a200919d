// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/metrics"
	"github.com/ManuGH/stemsplit/internal/separator"
)

// Uploader sends the selected file to the separation backend.
type Uploader interface {
	Upload(ctx context.Context, req separator.UploadRequest) (*separator.UploadResult, error)
}

// Deps are the collaborators shared by controllers.
type Deps struct {
	Uploader Uploader
	Tracker  Tracker
	Spool    *Spool
	MaxBytes int64
}

const subscriberBuffer = 8

// Controller is the upload workflow of one page session. All methods are
// safe for concurrent use.
type Controller struct {
	id     string
	deps   Deps
	logger zerolog.Logger

	// ctx is cancelled by Close and parents every upload and job.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	state        State
	closed       bool
	uploadCancel context.CancelFunc
	jobCancel    context.CancelFunc
	jobGen       uint64
	subs         map[int]chan State
	nextSub      int
	lastActive   time.Time
}

// NewController creates an idle controller.
func NewController(id string, deps Deps) *Controller {
	if deps.MaxBytes <= 0 {
		deps.MaxBytes = DefaultMaxBytes
	}
	if deps.Tracker == nil {
		deps.Tracker = NewSimulatedTracker()
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctx = log.ContextWithSessionID(ctx, id)

	return &Controller{
		id:     id,
		deps:   deps,
		logger: log.WithComponent("upload").With().Str(log.FieldSessionID, id).Logger(),
		ctx:    ctx,
		cancel: cancel,
		state: State{
			SessionID: id,
			Options:   DefaultOptions(),
			Status:    StatusNone,
		},
		subs:       make(map[int]chan State),
		lastActive: time.Now(),
	}
}

// ID returns the session ID.
func (c *Controller) ID() string { return c.id }

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SelectFile replaces the selection and clears any previous error, upload
// result, job status and outputs.
func (c *Controller) SelectFile(sel Selection) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Uploading {
		c.mu.Unlock()
		return ErrBusy
	}

	var stale string
	if c.state.Selection != nil && c.state.Selection.Path != sel.Path {
		stale = c.state.Selection.Path
	}

	c.stopJobLocked()
	c.state.Selection = &sel
	c.resetResultLocked()
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Info().
		Str("event", "upload.file_selected").
		Str(log.FieldFileName, sel.Name).
		Int64(log.FieldFileSize, sel.Size).
		Str(log.FieldMediaKind, string(sel.Kind)).
		Msg("file selected")

	if stale != "" && c.deps.Spool != nil {
		c.deps.Spool.Remove(stale)
	}
	return nil
}

// SelectContent validates a file, spools its content and selects it.
func (c *Controller) SelectContent(name, mimeType string, size int64, r io.Reader) (Selection, error) {
	if c.deps.Spool == nil {
		return Selection{}, errors.New("upload: no spool configured")
	}
	kind, mediaType, err := ValidateFile(name, mimeType, size, c.deps.MaxBytes)
	if err != nil {
		return Selection{}, err
	}
	// Fail before spooling; SelectFile checks again once the copy is done.
	c.mu.Lock()
	closed, uploading := c.closed, c.state.Uploading
	c.mu.Unlock()
	switch {
	case closed:
		return Selection{}, ErrClosed
	case uploading:
		return Selection{}, ErrBusy
	}

	path, n, err := c.deps.Spool.Store(c.id, r, c.deps.MaxBytes)
	if err != nil {
		return Selection{}, err
	}
	if n == 0 {
		c.deps.Spool.Remove(path)
		return Selection{}, ErrEmptyFile
	}

	sel := Selection{Name: name, Kind: kind, MIMEType: mediaType, Size: n, Path: path}
	if err := c.SelectFile(sel); err != nil {
		c.deps.Spool.Remove(path)
		return Selection{}, err
	}
	return sel, nil
}

// RemoveFile clears the selection only.
func (c *Controller) RemoveFile() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Uploading {
		c.mu.Unlock()
		return ErrBusy
	}
	var path string
	if c.state.Selection != nil {
		path = c.state.Selection.Path
	}
	c.state.Selection = nil
	c.publishLocked()
	c.mu.Unlock()

	if path != "" && c.deps.Spool != nil {
		c.deps.Spool.Remove(path)
	}
	return nil
}

// SetOptions replaces the model and advanced options used by the next upload.
func (c *Controller) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.state.Options = opts
	c.publishLocked()
	return nil
}

type pendingUpload struct {
	ctx    context.Context
	cancel context.CancelFunc
	sel    Selection
	opts   Options
}

// Submit uploads the selected file and waits for the upload to finish. Job
// tracking continues in the background after a successful upload.
func (c *Controller) Submit(ctx context.Context) error {
	u, err := c.begin()
	if err != nil {
		return err
	}
	defer c.wg.Done()

	stop := context.AfterFunc(ctx, u.cancel)
	defer stop()
	return c.runUpload(u)
}

// Start checks the same preconditions as Submit and runs the upload in the
// background.
func (c *Controller) Start(_ context.Context) error {
	u, err := c.begin()
	if err != nil {
		return err
	}
	go func() {
		defer c.wg.Done()
		_ = c.runUpload(u)
	}()
	return nil
}

func (c *Controller) begin() (*pendingUpload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return nil, ErrClosed
	case c.state.Selection == nil:
		c.state.Error = MsgNoFile
		c.publishLocked()
		return nil, ErrNoFile
	case c.state.Uploading:
		return nil, ErrBusy
	case c.state.Uploaded:
		return nil, ErrAlreadyUploaded
	}

	c.stopJobLocked()
	c.resetResultLocked()
	c.state.Uploading = true
	c.publishLocked()

	ctx, cancel := context.WithCancel(c.ctx)
	c.uploadCancel = cancel
	c.wg.Add(1)

	return &pendingUpload{ctx: ctx, cancel: cancel, sel: *c.state.Selection, opts: c.state.Options}, nil
}

func (c *Controller) runUpload(u *pendingUpload) error {
	defer u.cancel()

	res, err := c.send(u)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.uploadCancel = nil
	c.state.Uploading = false

	if err != nil {
		if c.closed {
			metrics.RecordUpload("cancelled", u.sel.Size)
			return ErrClosed
		}
		metrics.RecordUpload("failure", u.sel.Size)
		c.state.Error = MsgUploadFailed
		c.publishLocked()
		c.logger.Error().
			Err(err).
			Str("event", "upload.failed").
			Str(log.FieldFileName, u.sel.Name).
			Msg("upload failed")
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	if c.closed {
		metrics.RecordUpload("cancelled", u.sel.Size)
		return ErrClosed
	}

	metrics.RecordUpload("success", u.sel.Size)
	c.state.Uploaded = true
	c.state.UploadProgress = 100
	c.state.JobID = res.JobID
	c.publishLocked()

	c.logger.Info().
		Str("event", "upload.succeeded").
		Str(log.FieldFileName, u.sel.Name).
		Str(log.FieldJobID, res.JobID).
		Msg("upload succeeded")

	c.startJobLocked(res.JobID)
	return nil
}

func (c *Controller) send(u *pendingUpload) (*separator.UploadResult, error) {
	if c.deps.Uploader == nil {
		return nil, errors.New("upload: no uploader configured")
	}
	if c.deps.Spool == nil {
		return nil, errors.New("upload: no spool configured")
	}
	f, err := c.deps.Spool.Open(u.sel.Path)
	if err != nil {
		return nil, fmt.Errorf("open spooled file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return c.deps.Uploader.Upload(u.ctx, separator.UploadRequest{
		FileName:    u.sel.Name,
		Size:        u.sel.Size,
		Content:     f,
		Model:       string(u.opts.Model),
		HighQuality: u.opts.HighQuality,
		EnhanceBass: u.opts.EnhanceBass,
		Progress:    c.setUploadProgress,
	})
}

func (c *Controller) setUploadProgress(pct int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Uploading || pct <= c.state.UploadProgress {
		return
	}
	c.state.UploadProgress = min(pct, 100)
	c.publishLocked()
}

// startJobLocked launches the tracker for a freshly accepted upload.
func (c *Controller) startJobLocked(jobID string) {
	c.jobGen++
	gen := c.jobGen

	ctx, cancel := context.WithCancel(c.ctx)
	if jobID != "" {
		ctx = log.ContextWithJobID(ctx, jobID)
	}
	c.jobCancel = cancel

	tracker := c.deps.Tracker
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		tracker.Track(ctx, jobID, func(u Update) { c.applyUpdate(gen, tracker.Name(), u) })
	}()
}

func (c *Controller) applyUpdate(gen uint64, tracker string, u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.jobGen || c.state.Status.Terminal() {
		return
	}

	old := c.state.Status
	c.state.Status = u.Status
	c.state.Progress = min(max(c.state.Progress, u.Progress), 100)
	c.state.Message = u.Message
	if u.Status == StatusCompleted {
		c.state.Progress = 100
		c.state.Outputs = append([]OutputFile(nil), u.Outputs...)
	}
	c.publishLocked()

	if old != u.Status {
		recordTransition(tracker, u.Status)
		c.logger.Info().
			Str("event", "job.transition").
			Str(log.FieldJobID, c.state.JobID).
			Str(log.FieldOldState, string(old)).
			Str(log.FieldNewState, string(u.Status)).
			Msg("job status changed")
	}
}

func (c *Controller) stopJobLocked() {
	c.jobGen++
	if c.jobCancel != nil {
		c.jobCancel()
		c.jobCancel = nil
	}
}

func (c *Controller) resetResultLocked() {
	c.state.Error = ""
	c.state.Uploaded = false
	c.state.UploadProgress = 0
	c.state.JobID = ""
	c.state.Status = StatusNone
	c.state.Progress = 0
	c.state.Message = ""
	c.state.Outputs = nil
}

// Subscribe returns a channel of state snapshots, starting with the current
// one. Slow readers miss intermediate snapshots, never the latest. The
// channel is closed by the returned cancel func or by Close.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, subscriberBuffer)
	if c.closed {
		ch <- c.state.clone()
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.lastActive = time.Now()
	ch <- c.state.clone()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
			c.lastActive = time.Now()
		})
	}
}

func (c *Controller) publishLocked() {
	c.state.Seq++
	c.lastActive = time.Now()
	snap := c.state.clone()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// drop the oldest snapshot to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Idle reports whether nobody watches the session and nothing happened for ttl.
func (c *Controller) Idle(now time.Time, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs) == 0 && !c.state.Uploading && now.Sub(c.lastActive) > ttl
}

// Close cancels any upload in flight and stops job tracking. A job that had
// not reached a terminal status is reported cancelled. Close waits for the
// background goroutines and removes the spooled file.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.state.Status == StatusQueued || c.state.Status == StatusProcessing {
		recordTransition(c.deps.Tracker.Name(), StatusCancelled)
		c.state.Status = StatusCancelled
		c.state.Message = MsgCancelled
	}
	c.state.Uploading = false
	c.publishLocked()

	c.closed = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	var path string
	if c.state.Selection != nil {
		path = c.state.Selection.Path
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	if path != "" && c.deps.Spool != nil {
		c.deps.Spool.Remove(path)
	}
	c.logger.Debug().Str("event", "upload.session_closed").Msg("session closed")
}

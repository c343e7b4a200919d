package upload

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/metrics"
	"github.com/ManuGH/stemsplit/internal/separator"
)

// Update is one observation of a job's progress.
type Update struct {
	Status   JobStatus
	Progress int
	Outputs  []OutputFile
	Message  string
}

// Tracker follows a job from acceptance to a terminal status. Track blocks
// until the job is terminal or ctx is done; emit is called synchronously.
type Tracker interface {
	Name() string
	Track(ctx context.Context, jobID string, emit func(Update))
}

// SimulatedTracker fakes job progress with a one-shot delay and a ticker.
type SimulatedTracker struct {
	QueueDelay time.Duration
	Tick       time.Duration
	// MaxStep bounds each random increment: step in [0, MaxStep).
	MaxStep float64
	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// NewSimulatedTracker returns a tracker with the page's timings.
func NewSimulatedTracker() *SimulatedTracker {
	return &SimulatedTracker{
		QueueDelay: 1500 * time.Millisecond,
		Tick:       time.Second,
		MaxStep:    5,
	}
}

func (t *SimulatedTracker) Name() string { return "simulated" }

func (t *SimulatedTracker) Track(ctx context.Context, _ string, emit func(Update)) {
	emit(Update{Status: StatusQueued})

	delay := time.NewTimer(t.QueueDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	emit(Update{Status: StatusProcessing})

	ticker := time.NewTicker(t.Tick)
	defer ticker.Stop()

	progress := 0.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			progress += t.step()
			if progress >= 100 {
				emit(Update{Status: StatusCompleted, Progress: 100, Outputs: StaticOutputs()})
				return
			}
			emit(Update{Status: StatusProcessing, Progress: displayProgress(progress)})
		}
	}
}

func (t *SimulatedTracker) step() float64 {
	r := t.Rand
	if r == nil {
		r = rand.Float64
	}
	return r() * t.MaxStep
}

func displayProgress(p float64) int {
	return int(min(math.Round(p), 100))
}

// StatusSource is the part of the separator client the polling tracker needs.
type StatusSource interface {
	Status(ctx context.Context, jobID string) (*separator.JobStatus, error)
	TrackURL(trackID string) string
}

// maxPollErrors is the number of consecutive failed polls tolerated before
// the job is reported failed.
const maxPollErrors = 3

// PollingTracker follows a real job through GET /v1/status/{job_id}.
type PollingTracker struct {
	Source   StatusSource
	Interval time.Duration
}

// NewPollingTracker polls src every interval.
func NewPollingTracker(src StatusSource, interval time.Duration) *PollingTracker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &PollingTracker{Source: src, Interval: interval}
}

func (t *PollingTracker) Name() string { return "polling" }

func (t *PollingTracker) Track(ctx context.Context, jobID string, emit func(Update)) {
	logger := log.WithComponentFromContext(ctx, "tracker")

	emit(Update{Status: StatusQueued})
	if jobID == "" {
		logger.Warn().Str("event", "job.no_id").Msg("upload response carried no job id")
		emit(Update{Status: StatusFailed, Message: MsgProcessingFailed})
		return
	}

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	last := Update{Status: StatusQueued}
	errs := 0
	for {
		st, err := t.Source.Status(ctx, jobID)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			errs++
			logger.Warn().Err(err).Str("event", "job.poll_failed").Int("attempt", errs).Msg("status poll failed")
			if errs >= maxPollErrors {
				emit(Update{Status: StatusFailed, Progress: last.Progress, Message: MsgProcessingFailed})
				return
			}
		default:
			errs = 0
			next := t.translate(st, last)
			if next.Status != last.Status || next.Progress != last.Progress {
				emit(next)
				last = next
			}
			if next.Status.Terminal() {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// translate maps a remote status onto the local lifecycle. Progress never
// moves backwards.
func (t *PollingTracker) translate(st *separator.JobStatus, last Update) Update {
	progress := max(last.Progress, int(math.Round(min(max(st.Progress, 0), 100))))

	switch strings.ToLower(st.Status) {
	case "queued", "pending":
		return Update{Status: StatusQueued, Progress: progress}
	case "processing", "running":
		return Update{Status: StatusProcessing, Progress: progress}
	case "completed", "succeeded", "success":
		outputs := make([]OutputFile, 0, len(st.Tracks))
		for _, tr := range st.Tracks {
			u := tr.DownloadURL
			if u == "" {
				u = t.Source.TrackURL(tr.ID)
			}
			outputs = append(outputs, OutputFile{Name: trackFileName(tr), URL: u})
		}
		return Update{Status: StatusCompleted, Progress: 100, Outputs: outputs}
	case "failed", "error":
		return Update{Status: StatusFailed, Progress: progress, Message: MsgProcessingFailed}
	default:
		// unknown remote states keep the current one
		return Update{Status: last.Status, Progress: progress}
	}
}

func trackFileName(tr separator.Track) string {
	name := tr.Name
	if name == "" {
		name = tr.ID
	}
	if !strings.Contains(name, ".") {
		name += ".mp3"
	}
	return name
}

func recordTransition(tracker string, s JobStatus) {
	metrics.RecordJobTransition(tracker, string(s))
}

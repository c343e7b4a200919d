package upload

import (
	"github.com/ManuGH/stemsplit/internal/config"
)

// TrackerFor builds the tracker selected by cfg.Tracker.
func TrackerFor(cfg config.UploadConfig, src StatusSource) Tracker {
	if cfg.Tracker == config.TrackerPolling && src != nil {
		return NewPollingTracker(src, cfg.PollInterval)
	}
	return &SimulatedTracker{
		QueueDelay: cfg.QueueDelay,
		Tick:       cfg.TickInterval,
		MaxStep:    cfg.MaxStep,
	}
}

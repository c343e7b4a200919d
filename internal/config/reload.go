// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/metrics"
)

// ConfigHolder holds configuration with atomic reloading capability.
// It provides thread-safe access to configuration and supports hot reloading
// from file or manual trigger via SIGHUP.
type ConfigHolder struct {
	mu      sync.RWMutex
	current AppConfig
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	debounce time.Duration

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader *Loader) *ConfigHolder {
	return &ConfigHolder{
		current:         initial,
		loader:          loader,
		logger:          xglog.WithComponent("config"),
		debounce:        500 * time.Millisecond,
		reloadListeners: make([]chan<- AppConfig, 0),
	}
}

// Get returns the current configuration (thread-safe read).
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload reloads configuration from file and environment.
// If loading or validation fails, the old configuration is kept.
func (h *ConfigHolder) Reload(_ context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("failed to load new configuration")
		metrics.RecordConfigReload(false)
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.mu.Unlock()

	h.notifyListeners(newCfg)
	h.logChanges(oldCfg, newCfg)
	metrics.RecordConfigReload(true)

	h.logger.Info().
		Str("event", "config.reload_success").
		Msg("configuration reloaded successfully")

	return nil
}

// StartWatcher starts watching the config file for changes.
// If no config file is in use, this is a no-op (config comes from ENV only).
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher)

	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Write and Create cover editors that replace the file.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				h.logger.Debug().
					Str("event", "config.file_changed").
					Str("op", event.Op.String()).
					Msg("config file changed")

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(h.debounce, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error().
							Err(err).
							Str("event", "config.auto_reload_failed").
							Msg("automatic config reload failed")
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop stops the config watcher (if running).
func (h *ConfigHolder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel to receive config reload notifications.
// The caller is responsible for closing the channel.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

// notifyListeners sends the new config to all registered listeners (non-blocking).
func (h *ConfigHolder) notifyListeners(newCfg AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- newCfg:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	if old.LogLevel != newCfg.LogLevel {
		h.logger.Info().
			Str("old", old.LogLevel).
			Str("new", newCfg.LogLevel).
			Msg("config changed: logLevel")
	}
	if old.Separator.BaseURL != newCfg.Separator.BaseURL {
		h.logger.Info().
			Str("old", old.Separator.BaseURL).
			Str("new", newCfg.Separator.BaseURL).
			Msg("config changed: separator.baseURL")
	}
	if old.Upload.Tracker != newCfg.Upload.Tracker {
		h.logger.Info().
			Str("old", old.Upload.Tracker).
			Str("new", newCfg.Upload.Tracker).
			Msg("config changed: upload.tracker")
	}
	if old.Upload.MaxBytes != newCfg.Upload.MaxBytes {
		h.logger.Info().
			Int64("old", old.Upload.MaxBytes).
			Int64("new", newCfg.Upload.MaxBytes).
			Msg("config changed: upload.maxBytes")
	}
	if old.Listen != newCfg.Listen {
		h.logger.Warn().
			Str("old", old.Listen).
			Str("new", newCfg.Listen).
			Msg("config changed: listen (requires restart)")
	}
}

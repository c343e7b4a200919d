// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/stemsplit/internal/config"
	"github.com/ManuGH/stemsplit/internal/upload"
)

// App owns the long-lived runtime lifecycle (config watcher, reload wiring,
// session sweeper) and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	registry     *upload.Registry
	apply        func(config.AppConfig)
	reloadSignal os.Signal

	sweepInterval time.Duration
}

// NewApp creates a new App orchestrator. apply is called with every
// reloaded configuration.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, registry *upload.Registry, apply func(config.AppConfig)) *App {
	return &App{
		logger:        logger,
		manager:       manager,
		cfgHolder:     cfgHolder,
		registry:      registry,
		apply:         apply,
		reloadSignal:  syscall.SIGHUP,
		sweepInterval: time.Minute,
	}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// The watcher is best-effort: SIGHUP still reloads without it.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		defer a.cfgHolder.Stop()
	}

	if a.cfgHolder != nil && a.apply != nil {
		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					a.apply(cfg)
				}
			}
		})
	}

	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	if a.registry != nil {
		g.Go(func() error {
			a.registry.Run(ctx, a.sweepInterval)
			return nil
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/stemsplit/internal/api"
	"github.com/ManuGH/stemsplit/internal/apidocs"
	"github.com/ManuGH/stemsplit/internal/config"
	"github.com/ManuGH/stemsplit/internal/health"
	"github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/metrics"
	"github.com/ManuGH/stemsplit/internal/separator"
	"github.com/ManuGH/stemsplit/internal/telemetry"
	"github.com/ManuGH/stemsplit/internal/upload"
	"github.com/ManuGH/stemsplit/internal/web"
)

// Options are the inputs of Build.
type Options struct {
	Version string
	Config  config.AppConfig
	// Holder enables hot reload. Optional.
	Holder *config.ConfigHolder
}

// Build wires every component of the site and returns the runnable App.
func Build(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	logger := log.WithComponent("daemon")

	serverCfg, err := config.ParseServerConfigForApp(cfg)
	if err != nil {
		return nil, err
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: opts.Version,
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Warn().Err(err).Str("event", "telemetry.init_failed").Msg("tracing disabled")
		tp = nil
	}

	client := separator.NewClient(SeparatorConfig(cfg))

	spool, err := upload.NewSpool(cfg.Upload.SpoolDir)
	if err != nil {
		return nil, fmt.Errorf("spool: %w", err)
	}
	if n, err := spool.Purge(); err != nil {
		logger.Warn().Err(err).Str("event", "spool.purge_failed").Msg("failed to purge spool")
	} else if n > 0 {
		logger.Info().Str("event", "spool.purged").Int("count", n).Msg("removed stale spool files")
	}

	registry := upload.NewRegistry(UploadDeps(cfg, client, spool), cfg.Upload.SessionTTL)

	renderer, err := web.NewRenderer(opts.Version)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	docs, err := apidocs.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("api docs: %w", err)
	}

	hm := health.NewManager(opts.Version)
	hm.RegisterChecker(health.NewDirChecker("spool", spool.Dir()))
	if cfg.Upload.Tracker == config.TrackerPolling {
		hm.RegisterChecker(health.NewFuncChecker("separator", func(ctx context.Context) error {
			probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return client.Ping(probeCtx)
		}, health.StatusDegraded))
	}

	srv := api.New(cfg, api.Deps{
		Registry: registry,
		Health:   hm,
		Renderer: renderer,
		Docs:     docs,
	})

	deps := Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	}
	if cfg.Metrics.Enabled {
		deps.MetricsHandler = promhttp.Handler()
		deps.MetricsAddr = cfg.Metrics.Listen
	}
	metrics.SetBuildInfo(opts.Version)

	mgr, err := NewManager(serverCfg, deps)
	if err != nil {
		return nil, err
	}

	// LIFO: sessions close before the spool purge, tracing flushes last.
	if tp != nil {
		mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	}
	mgr.RegisterShutdownHook("spool", func(context.Context) error {
		_, err := spool.Purge()
		return err
	})
	mgr.RegisterShutdownHook("sessions", func(context.Context) error {
		registry.Close()
		return nil
	})

	apply := func(next config.AppConfig) {
		if err := log.SetLevel(next.LogLevel); err != nil {
			logger.Warn().Err(err).Str("level", next.LogLevel).Msg("invalid log level in reloaded config")
		}
		registry.Configure(UploadDeps(next, client, spool), next.Upload.SessionTTL)
		srv.UpdateConfig(next)
		logger.Info().Str("event", "config.applied").Msg("reloaded configuration applied")
	}

	return NewApp(logger, mgr, opts.Holder, registry, apply), nil
}

// SeparatorConfig maps the application config onto the backend client.
func SeparatorConfig(cfg config.AppConfig) separator.Config {
	return separator.Config{
		BaseURL:          cfg.Separator.BaseURL,
		Timeout:          cfg.Separator.Timeout,
		BreakerThreshold: cfg.Separator.BreakerThreshold,
		BreakerReset:     cfg.Separator.BreakerReset,
		PollRPS:          cfg.Separator.PollRPS,
	}
}

// UploadDeps builds the collaborators of new upload sessions.
func UploadDeps(cfg config.AppConfig, client *separator.Client, spool *upload.Spool) upload.Deps {
	return upload.Deps{
		Uploader: client,
		Tracker:  upload.TrackerFor(cfg.Upload, client),
		Spool:    spool,
		MaxBytes: cfg.Upload.MaxBytes,
	}
}

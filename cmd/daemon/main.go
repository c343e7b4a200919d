// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command daemon serves the stemsplit site.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/stemsplit/internal/config"
	"github.com/ManuGH/stemsplit/internal/daemon"
	"github.com/ManuGH/stemsplit/internal/health"
	xglog "github.com/ManuGH/stemsplit/internal/log"
	"github.com/ManuGH/stemsplit/internal/version"
)

// envConfigPath names a config file when --config is absent.
const envConfigPath = "STEMSPLIT_CONFIG"

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "stemsplit",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envConfigPath))
	}

	// Precedence: ENV > File > Defaults
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", path).
		Msg("configuration loaded")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("startup checks failed, verify configuration and permissions")
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.Listen).
		Msg("starting stemsplit")
	logger.Info().Msgf("→ Separator: %s", maskURL(cfg.Separator.BaseURL))
	logger.Info().Msgf("→ Job tracking: %s", cfg.Upload.Tracker)
	logger.Info().Msgf("→ Spool: %s (max %d bytes)", cfg.Upload.SpoolDir, cfg.Upload.MaxBytes)

	app, err := daemon.Build(ctx, daemon.Options{
		Version: version.Version,
		Config:  cfg,
		Holder:  config.NewConfigHolder(cfg, loader),
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "bootstrap.failed").
			Msg("failed to build daemon")
	}

	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}

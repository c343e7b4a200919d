// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/ManuGH/stemsplit/internal/config"
	"github.com/ManuGH/stemsplit/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment before the server starts.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Str("event", "startup.checks_begin").Msg("running pre-flight startup checks")

	if err := checkSpoolDir(logger, cfg.Upload.SpoolDir); err != nil {
		return fmt.Errorf("spool directory check failed: %w", err)
	}

	if err := checkSeparator(logger, cfg); err != nil {
		return fmt.Errorf("separator configuration invalid: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Info().Str("event", "startup.checks_passed").Msg("all startup checks passed")
	return nil
}

func checkSpoolDir(logger zerolog.Logger, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str(log.FieldPath, path).Msg("spool directory is writable")
	return nil
}

func checkSeparator(logger zerolog.Logger, cfg config.AppConfig) error {
	u, err := url.Parse(cfg.Separator.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid separator URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("separator URL scheme must be http or https, got: %s", u.Scheme)
	}
	if cfg.Separator.BaseURL == config.DefaultSeparatorURL {
		logger.Warn().
			Str(log.FieldBaseURL, cfg.Separator.BaseURL).
			Msg("separator URL not configured; using local development backend")
	}
	if cfg.Upload.Tracker == config.TrackerSimulated {
		logger.Info().Msg("job progress is simulated; the backend is only called for uploads")
	}
	return nil
}

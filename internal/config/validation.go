// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for stemsplit.
package config

import (
	"fmt"

	"github.com/ManuGH/stemsplit/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("listen", cfg.Listen)
	v.OneOf("logLevel", cfg.LogLevel, []string{"trace", "debug", "info", "warn", "error"})

	for i, cidr := range cfg.TrustedProxies {
		v.CIDR(fmt.Sprintf("trustedProxies[%d]", i), cidr)
	}

	v.URL("separator.baseURL", cfg.Separator.BaseURL, []string{"http", "https"})
	v.PositiveDuration("separator.timeout", cfg.Separator.Timeout)
	v.Range("separator.breakerThreshold", cfg.Separator.BreakerThreshold, 1, 100)
	v.PositiveDuration("separator.breakerReset", cfg.Separator.BreakerReset)
	if cfg.Separator.PollRPS <= 0 {
		v.AddError("separator.pollRPS", "must be positive", cfg.Separator.PollRPS)
	}

	if cfg.Metrics.Enabled {
		v.ListenAddr("metrics.listen", cfg.Metrics.Listen)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("tracing.samplingRate", cfg.Tracing.SamplingRate, 0, 1)
	}

	if cfg.RateLimit.Enabled {
		v.Range("rateLimit.rpm", cfg.RateLimit.RPM, 1, 100000)
	}

	v.Positive("upload.maxBytes", cfg.Upload.MaxBytes)
	v.WritableDirectory("upload.spoolDir", cfg.Upload.SpoolDir)
	v.OneOf("upload.tracker", cfg.Upload.Tracker, []string{TrackerSimulated, TrackerPolling})
	v.PositiveDuration("upload.queueDelay", cfg.Upload.QueueDelay)
	v.PositiveDuration("upload.tickInterval", cfg.Upload.TickInterval)
	v.FloatRange("upload.maxStep", cfg.Upload.MaxStep, 0.1, 100)
	v.PositiveDuration("upload.pollInterval", cfg.Upload.PollInterval)
	v.PositiveDuration("upload.sessionTTL", cfg.Upload.SessionTTL)

	v.PositiveDuration("server.readTimeout", cfg.Server.ReadTimeout)
	if cfg.Server.WriteTimeout < 0 {
		v.AddError("server.writeTimeout", "must be >= 0", cfg.Server.WriteTimeout)
	}

	if !v.IsValid() {
		return v.Err()
	}
	return nil
}

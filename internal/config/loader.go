// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvListen         = "STEMSPLIT_LISTEN"
	EnvLogLevel       = "STEMSPLIT_LOG_LEVEL"
	EnvLogService     = "STEMSPLIT_LOG_SERVICE"
	EnvAllowedOrigins = "STEMSPLIT_ALLOWED_ORIGINS"
	EnvTrustedProxies = "STEMSPLIT_TRUSTED_PROXIES"
	EnvAPIURL         = "STEMSPLIT_API_URL"
	// EnvPublicAPIURL is honoured for deployments that still export the
	// front-end build variable.
	EnvPublicAPIURL     = "NEXT_PUBLIC_API_URL"
	EnvSeparatorTimeout = "STEMSPLIT_SEPARATOR_TIMEOUT"
	EnvMetricsEnabled   = "STEMSPLIT_METRICS_ENABLED"
	EnvMetricsListen    = "STEMSPLIT_METRICS_LISTEN"
	EnvTracingEnabled   = "STEMSPLIT_TRACING_ENABLED"
	EnvTracingExporter  = "STEMSPLIT_TRACING_EXPORTER"
	EnvTracingEndpoint  = "STEMSPLIT_TRACING_ENDPOINT"
	EnvRateLimitEnabled = "STEMSPLIT_RATELIMIT_ENABLED"
	EnvRateLimitRPM     = "STEMSPLIT_RATELIMIT_RPM"
	EnvUploadMaxBytes   = "STEMSPLIT_UPLOAD_MAX_BYTES"
	EnvUploadSpoolDir   = "STEMSPLIT_SPOOL_DIR"
	EnvUploadTracker    = "STEMSPLIT_TRACKER"
	EnvPollInterval     = "STEMSPLIT_POLL_INTERVAL"
	EnvSessionTTL       = "STEMSPLIT_SESSION_TTL"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// Path returns the config file path (may be empty).
func (l *Loader) Path() string {
	return l.configPath
}

// Load loads configuration with precedence: ENV > File > Defaults
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)

	if abs, err := filepath.Abs(cfg.Upload.SpoolDir); err == nil {
		cfg.Upload.SpoolDir = abs
	}
	cfg.Separator.BaseURL = strings.TrimRight(cfg.Separator.BaseURL, "/")
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile decodes a YAML file on top of cfg with STRICT parsing.
// Unknown fields cause an error to prevent misconfiguration.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}

	// An explicit empty list means the same as an absent one.
	cfg.AllowedOrigins = nilIfEmpty(cfg.AllowedOrigins)
	cfg.TrustedProxies = nilIfEmpty(cfg.TrustedProxies)
	return nil
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

// mergeEnv applies environment overrides (highest priority).
func mergeEnv(cfg *AppConfig) {
	cfg.Listen = ParseString(EnvListen, cfg.Listen)
	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = ParseString(EnvLogService, cfg.LogService)
	cfg.AllowedOrigins = ParseList(EnvAllowedOrigins, cfg.AllowedOrigins)
	cfg.TrustedProxies = ParseList(EnvTrustedProxies, cfg.TrustedProxies)

	cfg.Separator.BaseURL = ParseStringWithAlias(EnvAPIURL, EnvPublicAPIURL, cfg.Separator.BaseURL)
	cfg.Separator.Timeout = ParseDuration(EnvSeparatorTimeout, cfg.Separator.Timeout)

	cfg.Metrics.Enabled = ParseBool(EnvMetricsEnabled, cfg.Metrics.Enabled)
	cfg.Metrics.Listen = ParseString(EnvMetricsListen, cfg.Metrics.Listen)

	cfg.Tracing.Enabled = ParseBool(EnvTracingEnabled, cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = ParseString(EnvTracingExporter, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = ParseString(EnvTracingEndpoint, cfg.Tracing.Endpoint)

	cfg.RateLimit.Enabled = ParseBool(EnvRateLimitEnabled, cfg.RateLimit.Enabled)
	cfg.RateLimit.RPM = ParseInt(EnvRateLimitRPM, cfg.RateLimit.RPM)

	cfg.Upload.MaxBytes = ParseInt64(EnvUploadMaxBytes, cfg.Upload.MaxBytes)
	cfg.Upload.SpoolDir = ParseString(EnvUploadSpoolDir, cfg.Upload.SpoolDir)
	cfg.Upload.Tracker = ParseString(EnvUploadTracker, cfg.Upload.Tracker)
	cfg.Upload.PollInterval = ParseDuration(EnvPollInterval, cfg.Upload.PollInterval)
	cfg.Upload.SessionTTL = ParseDuration(EnvSessionTTL, cfg.Upload.SessionTTL)
}

// LoadFileConfig loads a YAML config file on top of defaults without env overrides.
func LoadFileConfig(path string) (AppConfig, error) {
	cfg := Default()
	err := NewLoader(path, "").loadFile(path, &cfg)
	return cfg, err
}

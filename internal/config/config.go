// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the fully merged runtime configuration.
// Precedence: ENV > YAML file > defaults.
type AppConfig struct {
	Version string `yaml:"-"`

	Listen         string   `yaml:"listen"`
	LogLevel       string   `yaml:"logLevel"`
	LogService     string   `yaml:"logService"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	// TrustedProxies are CIDRs allowed to set X-Forwarded-Proto.
	TrustedProxies []string `yaml:"trustedProxies,omitempty"`

	Server    ServerRuntimeConfig `yaml:"server"`
	Metrics   MetricsConfig       `yaml:"metrics"`
	Tracing   TracingConfig       `yaml:"tracing"`
	RateLimit RateLimitConfig     `yaml:"rateLimit"`
	Separator SeparatorConfig     `yaml:"separator"`
	Upload    UploadConfig        `yaml:"upload"`
}

// ServerRuntimeConfig holds HTTP server timeouts.
type ServerRuntimeConfig struct {
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes  int           `yaml:"maxHeaderBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc | http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// RateLimitConfig limits the session API per client IP.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
	RPM     int  `yaml:"rpm"`
}

// SeparatorConfig points at the external separation service.
type SeparatorConfig struct {
	BaseURL          string        `yaml:"baseURL"`
	Timeout          time.Duration `yaml:"timeout"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
	PollRPS          float64       `yaml:"pollRPS"`
}

// UploadConfig tunes the upload workflow.
type UploadConfig struct {
	MaxBytes     int64         `yaml:"maxBytes"`
	SpoolDir     string        `yaml:"spoolDir"`
	Tracker      string        `yaml:"tracker"` // simulated | polling
	QueueDelay   time.Duration `yaml:"queueDelay"`
	TickInterval time.Duration `yaml:"tickInterval"`
	MaxStep      float64       `yaml:"maxStep"`
	PollInterval time.Duration `yaml:"pollInterval"`
	SessionTTL   time.Duration `yaml:"sessionTTL"`
}

// Tracker modes.
const (
	TrackerSimulated = "simulated"
	TrackerPolling   = "polling"
)

// DefaultSeparatorURL matches the local development backend.
const DefaultSeparatorURL = "http://localhost:5000"

// Default returns the built-in defaults.
func Default() AppConfig {
	return AppConfig{
		Listen:     ":3000",
		LogLevel:   "info",
		LogService: "stemsplit",
		Server: ServerRuntimeConfig{
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    0, // SSE streams stay open
			IdleTimeout:     120 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 15 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "development",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPM:     600,
		},
		Separator: SeparatorConfig{
			BaseURL:          DefaultSeparatorURL,
			Timeout:          5 * time.Minute,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
			PollRPS:          20,
		},
		Upload: UploadConfig{
			MaxBytes:     100 * 1024 * 1024,
			SpoolDir:     "/tmp/stemsplit-spool",
			Tracker:      TrackerSimulated,
			QueueDelay:   1500 * time.Millisecond,
			TickInterval: time.Second,
			MaxStep:      5,
			PollInterval: 2 * time.Second,
			SessionTTL:   30 * time.Minute,
		},
	}
}

package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Upstream defaults
	DefaultUpstreamTimeout = 30 * time.Second

	// Admin config source defaults
	DefaultAdminSource       = "remote"
	DefaultAdminCacheTTL     = 60 * time.Second
	DefaultAdminFetchTimeout = 5 * time.Second
	DefaultAdminWatch        = true

	// Reset service defaults
	DefaultResetBackend       = "memory"
	DefaultResetSQLitePath    = "data/reset_tokens.db"
	DefaultResetTokenTTL      = time.Hour
	DefaultResetSweepSchedule = "*/10 * * * *"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Metrics defaults
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "gatekeeper"
	DefaultMetricsPath      = "/metrics"
)

// ApplyDefaults fills in default values for any configuration fields that
// were not explicitly set. It modifies the configuration in place.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Upstream defaults
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}

	// Admin config source defaults
	if cfg.Admin.Source == "" {
		cfg.Admin.Source = DefaultAdminSource
	}
	if cfg.Admin.CacheTTL == 0 {
		cfg.Admin.CacheTTL = DefaultAdminCacheTTL
	}
	if cfg.Admin.FetchTimeout == 0 {
		cfg.Admin.FetchTimeout = DefaultAdminFetchTimeout
	}

	// Reset service defaults
	if cfg.Reset.Backend == "" {
		cfg.Reset.Backend = DefaultResetBackend
	}
	if cfg.Reset.SQLitePath == "" {
		cfg.Reset.SQLitePath = DefaultResetSQLitePath
	}
	if cfg.Reset.TokenTTL == 0 {
		cfg.Reset.TokenTTL = DefaultResetTokenTTL
	}
	if cfg.Reset.SweepSchedule == "" {
		cfg.Reset.SweepSchedule = DefaultResetSweepSchedule
	}

	// Logging defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}

	// Metrics defaults
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// NewDefaultConfig returns a configuration populated entirely with defaults.
// Boolean fields that default to true are set here because ApplyDefaults
// cannot distinguish "unset" from "false" for them.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Admin.Watch = DefaultAdminWatch
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

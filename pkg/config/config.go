package config

import "time"

// Config is the root configuration structure for Gatekeeper.
// It contains all configuration sections for the HTTP server, the upstream
// application, the admin policy config source, the password-reset token
// service, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and graceful shutdown settings.
	Server ServerConfig `yaml:"server"`

	// Upstream contains configuration for the application Gatekeeper fronts.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Admin contains configuration for the admin policy config source
	// (remote endpoint or local file) and its cache.
	Admin AdminConfig `yaml:"admin"`

	// Reset contains configuration for the password-reset token service.
	Reset ResetConfig `yaml:"reset"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. A zero or negative value means no timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// UpstreamConfig contains configuration for the fronted application.
type UpstreamConfig struct {
	// URL is the base URL of the upstream application. Pass-through and
	// rewritten requests are proxied here. If empty, Gatekeeper runs in
	// standalone mode and answers pass-through requests with 204 No Content.
	URL string `yaml:"url"`

	// Timeout is the per-request timeout for proxied requests.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// AdminConfig contains configuration for the admin policy config source.
type AdminConfig struct {
	// Source selects where the policy config is loaded from.
	// Options: "remote" (admin API over HTTP), "file" (local file with
	// optional watch-and-reload).
	// Default: "remote"
	Source string `yaml:"source"`

	// Endpoint is the base URL of the admin API. The policy config is
	// fetched from {endpoint}/api/admin/middleware_config. An empty
	// endpoint is a valid local/dev state: the built-in default config
	// (everything disabled) is used.
	Endpoint string `yaml:"endpoint"`

	// Token is the bearer token presented to the admin API.
	Token string `yaml:"token"`

	// CacheTTL is how long a fetched config is considered fresh. Both
	// successful and failed fetches are held for the full TTL so a down
	// admin API is not hammered.
	// Default: 60s
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// FetchTimeout bounds a single config fetch.
	// Default: 5s
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// FilePath is the path to a local policy config file (YAML or JSON).
	// Only used when Source is "file".
	FilePath string `yaml:"file_path"`

	// Watch enables fsnotify watch-and-reload for the file source.
	// Default: true
	Watch bool `yaml:"watch"`
}

// ResetConfig contains configuration for the password-reset token service.
type ResetConfig struct {
	// Backend selects the token store backend.
	// Options: "memory", "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the path to the SQLite database file.
	// Only used when Backend is "sqlite".
	// Default: "data/reset_tokens.db"
	SQLitePath string `yaml:"sqlite_path"`

	// TokenTTL is how long a reset token stays valid after issue.
	// Default: 1h
	TokenTTL time.Duration `yaml:"token_ttl"`

	// SweepSchedule is a cron expression controlling when expired and used
	// tokens are pruned from the store. Empty disables the sweep.
	// Default: "*/10 * * * *" (every 10 minutes)
	SweepSchedule string `yaml:"sweep_schedule"`

	// UpdateEndpoint is the backend API endpoint that applies the actual
	// password change. If empty, password updates are logged and dropped
	// (standalone/dev mode).
	UpdateEndpoint string `yaml:"update_endpoint"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the /metrics endpoint is exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "gatekeeper"
	Namespace string `yaml:"namespace"`

	// Path is where the metrics endpoint is mounted.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

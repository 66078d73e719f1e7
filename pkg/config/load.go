package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Fields absent from the file keep their defaults; true-by-default
// booleans are seeded before unmarshalling so omitting them does not turn
// them off.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := &Config{}
	cfg.Admin.Watch = DefaultAdminWatch
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GATEKEEPER_SECTION_FIELD (e.g., GATEKEEPER_SERVER_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format GATEKEEPER_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("GATEKEEPER_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("GATEKEEPER_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("GATEKEEPER_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("GATEKEEPER_SERVER_MAX_HEADER_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.MaxHeaderBytes = i
		}
	}

	// Upstream overrides
	if val := os.Getenv("GATEKEEPER_UPSTREAM_URL"); val != "" {
		cfg.Upstream.URL = val
	}

	// Admin source overrides. The endpoint and token are the values most
	// commonly injected from the environment in deployments.
	if val := os.Getenv("GATEKEEPER_ADMIN_SOURCE"); val != "" {
		cfg.Admin.Source = val
	}
	if val := os.Getenv("GATEKEEPER_ADMIN_ENDPOINT"); val != "" {
		cfg.Admin.Endpoint = val
	}
	if val := os.Getenv("GATEKEEPER_ADMIN_TOKEN"); val != "" {
		cfg.Admin.Token = val
	}
	if val := os.Getenv("GATEKEEPER_ADMIN_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Admin.CacheTTL = d
		}
	}
	if val := os.Getenv("GATEKEEPER_ADMIN_FETCH_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Admin.FetchTimeout = d
		}
	}
	if val := os.Getenv("GATEKEEPER_ADMIN_FILE_PATH"); val != "" {
		cfg.Admin.FilePath = val
	}
	if val := os.Getenv("GATEKEEPER_ADMIN_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Admin.Watch = b
		}
	}

	// Reset service overrides
	if val := os.Getenv("GATEKEEPER_RESET_BACKEND"); val != "" {
		cfg.Reset.Backend = val
	}
	if val := os.Getenv("GATEKEEPER_RESET_SQLITE_PATH"); val != "" {
		cfg.Reset.SQLitePath = val
	}
	if val := os.Getenv("GATEKEEPER_RESET_TOKEN_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Reset.TokenTTL = d
		}
	}
	if val := os.Getenv("GATEKEEPER_RESET_UPDATE_ENDPOINT"); val != "" {
		cfg.Reset.UpdateEndpoint = val
	}

	// Telemetry overrides
	if val := os.Getenv("GATEKEEPER_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GATEKEEPER_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GATEKEEPER_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}

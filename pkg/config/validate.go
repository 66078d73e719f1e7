package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateAdmin(&cfg.Admin)...)
	errs = append(errs, validateReset(&cfg.Reset)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "must not be empty",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid address %q: must be host:port", cfg.ListenAddress),
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "upstream.url",
				Message: fmt.Sprintf("invalid URL %q: must be an absolute http(s) URL", cfg.URL),
			})
		}
	}

	return errs
}

func validateAdmin(cfg *AdminConfig) []FieldError {
	var errs []FieldError

	switch cfg.Source {
	case "remote":
		// An empty endpoint is the documented local/dev state, but a
		// present endpoint must be a valid URL.
		if cfg.Endpoint != "" {
			u, err := url.Parse(cfg.Endpoint)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, FieldError{
					Field:   "admin.endpoint",
					Message: fmt.Sprintf("invalid URL %q: must be an absolute http(s) URL", cfg.Endpoint),
				})
			}
		}
	case "file":
		if cfg.FilePath == "" {
			errs = append(errs, FieldError{
				Field:   "admin.file_path",
				Message: "must be set when admin.source is \"file\"",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "admin.source",
			Message: fmt.Sprintf("invalid source %q: must be \"remote\" or \"file\"", cfg.Source),
		})
	}

	if cfg.CacheTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "admin.cache_ttl",
			Message: "must not be negative",
		})
	}
	if cfg.FetchTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "admin.fetch_timeout",
			Message: "must be positive",
		})
	}

	return errs
}

func validateReset(cfg *ResetConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "reset.backend",
			Message: fmt.Sprintf("invalid backend %q: must be \"memory\" or \"sqlite\"", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "reset.sqlite_path",
			Message: "must be set when reset.backend is \"sqlite\"",
		})
	}

	if cfg.TokenTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "reset.token_ttl",
			Message: "must be positive",
		})
	}

	if cfg.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "reset.sweep_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.SweepSchedule, err),
			})
		}
	}

	if cfg.UpdateEndpoint != "" {
		u, err := url.Parse(cfg.UpdateEndpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "reset.update_endpoint",
				Message: fmt.Sprintf("invalid URL %q: must be an absolute http(s) URL", cfg.UpdateEndpoint),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q: must be debug, info, warn, or error", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q: must be json or text", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "must start with \"/\"",
		})
	}

	return errs
}

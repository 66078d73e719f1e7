// Package config provides configuration loading, validation, and defaults
// for the Gatekeeper service.
//
// Configuration is loaded from a YAML file and may be overridden by
// environment variables using the GATEKEEPER_SECTION_FIELD naming convention.
// Validation errors are collected and reported together so a misconfigured
// deployment surfaces every problem in a single run.
package config

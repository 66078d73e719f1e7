// Package adminconfig defines the admin-managed policy configuration, its
// load-time compilation, and the TTL cache that keeps a current copy in
// process.
//
// The config drives every request-time policy decision: maintenance mode,
// access control, redirects, A/B test rewrites, and feature flags. It is
// fetched from the admin API (or read from a local file in development),
// validated and compiled once per load, and replaced wholesale on refresh.
// A broken or unreachable config source never takes traffic down: the cache
// keeps serving the last known good config, or the built-in disabled
// default if nothing was ever loaded.
package adminconfig

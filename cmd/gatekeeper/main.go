// Gatekeeper is the edge policy gateway for the LexHub directory platform.
//
// It sits in front of the web application and evaluates admin-managed
// request policies on every request:
//   - Maintenance mode with exempt paths
//   - Role-based access control by path prefix
//   - Admin-configured redirects
//   - Deterministic A/B test path rewrites
//   - Percentage-rollout feature flags
//
// It also hosts the password-reset token endpoints used by the frontend.
//
// Usage:
//
//	# Start with default configuration
//	gatekeeper run
//
//	# Start with a custom configuration file
//	gatekeeper run --config /path/to/config.yaml
//
//	# Validate configuration without starting
//	gatekeeper validate --policy policies.yaml
//
//	# Show version information
//	gatekeeper version
package main

func main() {
	Execute()
}

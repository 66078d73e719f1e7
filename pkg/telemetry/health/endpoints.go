package health

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// VersionInfo contains build and version information.
type VersionInfo struct {
	// Version is the semantic version (e.g., "1.0.0")
	Version string `json:"version"`

	// Commit is the git commit hash
	Commit string `json:"commit"`

	// BuildTime is when the binary was built
	BuildTime string `json:"build_time"`

	// GoVersion is the Go version used to build
	GoVersion string `json:"go_version"`
}

// LivenessHandler returns an HTTP handler for the liveness probe endpoint.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.CheckLiveness(r.Context())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(status)
		}
	}
}

// ReadinessHandler returns an HTTP handler for the readiness probe
// endpoint. It returns 503 when any registered component check fails.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.CheckReadiness(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(status)
		}
	}
}

// VersionHandler returns an HTTP handler for version information.
func VersionHandler(version, commit, buildTime string) http.HandlerFunc {
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(info)
	}
}

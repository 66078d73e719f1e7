package adminconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// configPath is the admin API route the policy config is served from.
const configPath = "/api/admin/middleware_config"

// ErrNotConfigured is returned by RemoteSource when no endpoint or token is
// configured. This is the documented local/dev state, not an outage: the
// cache falls back to the built-in default config without logging a warning.
var ErrNotConfigured = errors.New("admin config endpoint not configured")

// Source loads and compiles a policy config. Implementations are the remote
// admin API and a local file.
type Source interface {
	// Load fetches, parses, and compiles the config. The returned Compiled
	// is never nil on success.
	Load(ctx context.Context) (*Compiled, error)

	// Describe returns a short human-readable description of the source
	// for logs and health reporting.
	Describe() string
}

// RemoteSource loads the policy config from the admin API over HTTP.
type RemoteSource struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewRemoteSource creates a remote source for the given admin API base URL
// and bearer token. timeout bounds a single fetch; it is enforced on top of
// any deadline already present on the caller's context.
func NewRemoteSource(endpoint, token string, timeout time.Duration) *RemoteSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteSource{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Load fetches and compiles the policy config from the admin API.
// It returns ErrNotConfigured when the endpoint or token is missing.
func (s *RemoteSource) Load(ctx context.Context) (*Compiled, error) {
	if s.endpoint == "" || s.token == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+configPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build config request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("config fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body so the response can be reused,
		// but never trust it in the error message wholesale.
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		return nil, fmt.Errorf("config fetch returned status %d", resp.StatusCode)
	}

	var cfg Config
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config response: %w", err)
	}

	compiled, err := Compile(&cfg)
	if err != nil {
		return nil, fmt.Errorf("rejected fetched config: %w", err)
	}
	return compiled, nil
}

// Describe returns the admin API URL this source reads from.
func (s *RemoteSource) Describe() string {
	if s.endpoint == "" {
		return "remote (not configured)"
	}
	return "remote " + s.endpoint + configPath
}

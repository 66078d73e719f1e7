package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lexhub/gatekeeper/pkg/config"
	"lexhub/gatekeeper/pkg/policy"
	"lexhub/gatekeeper/pkg/reset"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer assembles a standalone server over a local policy file.
func newTestServer(t *testing.T, policyYAML string) (*Server, http.Handler) {
	t.Helper()

	policyPath := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(policyPath, []byte(policyYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Admin.Source = "file"
	cfg.Admin.FilePath = policyPath
	cfg.Admin.Watch = false
	cfg.Reset.SweepSchedule = ""

	srv, err := New(cfg, discardLogger(), BuildInfo{Version: "test", Commit: "abc", BuildTime: "now"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	handler, err := srv.setupRoutes()
	if err != nil {
		t.Fatalf("setupRoutes() error = %v", err)
	}
	return srv, handler
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestServer_HealthEndpoints(t *testing.T) {
	_, handler := newTestServer(t, "maintenance:\n  enabled: false\n")

	if w := get(handler, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", w.Code)
	}
	if w := get(handler, "/readyz"); w.Code != http.StatusOK {
		t.Errorf("/readyz status = %d, want 200", w.Code)
	}

	w := get(handler, "/version")
	if w.Code != http.StatusOK {
		t.Fatalf("/version status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("/version body %q: %v", w.Body.String(), err)
	}
	if body["version"] != "test" {
		t.Errorf("version = %q, want test", body["version"])
	}
}

// Running with no admin endpoint at all is the documented zero-config dev
// mode: the gateway serves the built-in default config and must still
// report ready.
func TestServer_ReadyWithoutAdminEndpoint(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Reset.SweepSchedule = ""

	srv, err := New(cfg, discardLogger(), BuildInfo{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	handler, err := srv.setupRoutes()
	if err != nil {
		t.Fatalf("setupRoutes() error = %v", err)
	}

	// Force a config refresh attempt so the not-configured state is the
	// recorded one, not just the initial empty state.
	get(handler, "/lawyers")

	w := get(handler, "/readyz")
	if w.Code != http.StatusOK {
		t.Errorf("/readyz status = %d in zero-config mode, want 200; body %s", w.Code, w.Body.String())
	}
}

// A configured-but-broken source is a failing dependency and does degrade
// readiness.
func TestServer_DegradedWhenConfigSourceFails(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Admin.Source = "file"
	cfg.Admin.FilePath = filepath.Join(t.TempDir(), "absent.yaml")
	cfg.Admin.Watch = false
	cfg.Reset.SweepSchedule = ""

	srv, err := New(cfg, discardLogger(), BuildInfo{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	handler, err := srv.setupRoutes()
	if err != nil {
		t.Fatalf("setupRoutes() error = %v", err)
	}

	get(handler, "/lawyers")

	w := get(handler, "/readyz")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz status = %d with a failing config source, want 503", w.Code)
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	_, handler := newTestServer(t, "maintenance:\n  enabled: false\n")

	get(handler, "/lawyers") // generate one request metric

	w := get(handler, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "gatekeeper_requests_total") {
		t.Error("scrape output missing request counter")
	}
}

// Standalone mode answers surviving traffic with 204 and the policy
// headers attached.
func TestServer_StandalonePassThrough(t *testing.T) {
	_, handler := newTestServer(t, `
feature_flags:
  - key: new-search
    enabled: true
    rollout_percentage: 100
`)

	w := get(handler, "/lawyers")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get(policy.HeaderFeatureFlags); got != "new-search" {
		t.Errorf("%s = %q, want new-search", policy.HeaderFeatureFlags, got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID on response")
	}
}

func TestServer_MaintenanceMode(t *testing.T) {
	_, handler := newTestServer(t, `
maintenance:
  enabled: true
  message: Em manutenção
  allowed_paths:
    - /healthz
`)

	w := get(handler, "/lawyers")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Em manutenção") {
		t.Error("maintenance page missing admin message")
	}

	// Health probes are mounted before the policy chain and stay reachable.
	if w := get(handler, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("/healthz status = %d during maintenance, want 200", w.Code)
	}
}

func TestServer_Redirect(t *testing.T) {
	_, handler := newTestServer(t, `
redirects:
  - source: /old-blog
    destination: /blog
    permanent: true
    enabled: true
`)

	w := get(handler, "/old-blog")
	if w.Code != http.StatusMovedPermanently {
		t.Errorf("status = %d, want 301", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/blog" {
		t.Errorf("Location = %q, want /blog", got)
	}
}

func TestServer_ResetEndpointsBypassPolicy(t *testing.T) {
	_, handler := newTestServer(t, `
maintenance:
  enabled: true
`)

	r := httptest.NewRequest("POST", reset.ForgotPasswordPath,
		strings.NewReader(`{"email": "maria@example.com"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("forgot-password status = %d during maintenance, want 200", w.Code)
	}
}

func TestServer_ProxiesToUpstream(t *testing.T) {
	var upstreamPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("from upstream"))
	}))
	defer upstream.Close()

	policyPath := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(policyPath, []byte(`
ab_tests:
  - key: exp
    enabled: true
    variants:
      - name: v2
        weight: 1
        path: /checkout-v2
    target_paths:
      - /checkout
`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Admin.Source = "file"
	cfg.Admin.FilePath = policyPath
	cfg.Admin.Watch = false
	cfg.Reset.SweepSchedule = ""
	cfg.Upstream.URL = upstream.URL

	srv, err := New(cfg, discardLogger(), BuildInfo{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	handler, err := srv.setupRoutes()
	if err != nil {
		t.Fatalf("setupRoutes() error = %v", err)
	}

	w := get(handler, "/checkout")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if upstreamPath != "/checkout-v2" {
		t.Errorf("upstream saw %q, want rewritten /checkout-v2", upstreamPath)
	}
	if w.Body.String() != "from upstream" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestNew_RejectsBadUpstreamURL(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Upstream.URL = "://not-a-url"
	cfg.Reset.SweepSchedule = ""

	srv, err := New(cfg, discardLogger(), BuildInfo{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := srv.setupRoutes(); err == nil {
		t.Error("setupRoutes() error = nil, want error for bad upstream URL")
	}
}

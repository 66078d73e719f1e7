package reset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"lexhub/gatekeeper/pkg/telemetry/logging"
)

// PasswordUpdater applies the actual password change. Gatekeeper does not
// own the user database; the change is delegated to the backend API.
type PasswordUpdater interface {
	// UpdatePassword sets a new password for the account.
	UpdatePassword(ctx context.Context, email, password string) error
}

// HTTPUpdater posts password changes to the backend API endpoint.
type HTTPUpdater struct {
	endpoint string
	client   *http.Client
}

// NewHTTPUpdater creates an updater that posts to the given endpoint.
func NewHTTPUpdater(endpoint string, timeout time.Duration) *HTTPUpdater {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPUpdater{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// UpdatePassword posts the change and fails on any non-2xx response.
func (u *HTTPUpdater) UpdatePassword(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode password update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build password update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("password update request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.CopyN(io.Discard, resp.Body, 512)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("password update returned status %d", resp.StatusCode)
	}
	return nil
}

// LogUpdater is the development PasswordUpdater: it logs that a change
// would have happened and drops it.
type LogUpdater struct {
	logger *slog.Logger
}

// NewLogUpdater creates a log-only updater.
func NewLogUpdater(logger *slog.Logger) *LogUpdater {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogUpdater{logger: logger.With("component", "reset.updater")}
}

// UpdatePassword logs the (redacted) change. The password itself is never
// logged.
func (u *LogUpdater) UpdatePassword(ctx context.Context, email, password string) error {
	u.logger.Info("password update skipped (no update endpoint configured)",
		"email", logging.MaskEmail(email),
	)
	return nil
}

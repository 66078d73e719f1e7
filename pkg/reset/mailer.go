package reset

import (
	"context"
	"log/slog"

	"lexhub/gatekeeper/pkg/telemetry/logging"
)

// Mailer delivers the reset link to the user. Gatekeeper itself does not
// speak SMTP; production deployments plug in a client for whatever mail
// service the platform uses.
type Mailer interface {
	// SendResetLink delivers the reset token to the given address.
	SendResetLink(ctx context.Context, email, token string) error
}

// LogMailer is the development Mailer: it logs the (redacted) delivery
// instead of sending anything.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With("component", "reset.mailer")}
}

// SendResetLink logs the delivery. The email and token are masked; even
// dev logs must not be a credential store.
func (m *LogMailer) SendResetLink(ctx context.Context, email, token string) error {
	m.logger.Info("reset link issued",
		"email", logging.MaskEmail(email),
		"token", logging.MaskToken(token),
	)
	return nil
}

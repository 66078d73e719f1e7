package reset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Validation messages surfaced to the caller. The wording is part of the
// API contract with the web frontend, which displays them verbatim.
const (
	MsgTokenInvalid = "Token inválido"
	MsgTokenUsed    = "Token já utilizado"
	MsgTokenExpired = "Token expirado"
)

// Validation is the result of checking a reset token.
type Validation struct {
	// IsValid is true when the token exists, is unused, and has not expired.
	IsValid bool `json:"isValid"`

	// Email is the account the token was issued for, set only when valid.
	Email string `json:"email,omitempty"`

	// Error is the validation failure message, set only when invalid.
	Error string `json:"error,omitempty"`
}

// Service issues, validates, and consumes password-reset tokens on top of
// a Store.
type Service struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger

	// now is the clock, injectable for tests.
	now func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock overrides the service clock for tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a token service. ttl is how long issued tokens stay
// valid; zero selects the default of one hour.
func NewService(store Store, ttl time.Duration, logger *slog.Logger, opts ...ServiceOption) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "reset.service"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates and stores a fresh reset token for the given email.
func (s *Service) Issue(ctx context.Context, email string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	now := s.now()
	if err := s.store.Put(ctx, &Token{
		Token:     token,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

// Validate checks a token and returns the structured result the HTTP
// surface exposes. Check order matters: an expired-and-used token reports
// "used", matching how the frontend distinguishes the two states.
func (s *Service) Validate(ctx context.Context, token string) Validation {
	t, err := s.store.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return Validation{Error: MsgTokenInvalid}
	}
	if err != nil {
		s.logger.Error("token lookup failed", "error", err)
		return Validation{Error: MsgTokenInvalid}
	}

	if t.Used {
		return Validation{Error: MsgTokenUsed}
	}
	if s.now().After(t.ExpiresAt) {
		return Validation{Error: MsgTokenExpired}
	}
	return Validation{IsValid: true, Email: t.Email}
}

// MarkUsed consumes a token after a successful reset. Unknown tokens are a
// no-op.
func (s *Service) MarkUsed(ctx context.Context, token string) error {
	return s.store.MarkUsed(ctx, token)
}

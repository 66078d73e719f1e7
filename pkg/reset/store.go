package reset

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get for unknown tokens.
var ErrNotFound = errors.New("token not found")

// Token is a stored password-reset token.
type Token struct {
	// Token is the token string itself, the store key.
	Token string

	// Email is the account the reset was requested for.
	Email string

	// CreatedAt is when the token was issued.
	CreatedAt time.Time

	// ExpiresAt is when the token stops being valid.
	ExpiresAt time.Time

	// Used marks a token that already completed a reset.
	Used bool
}

// Store persists reset tokens. Implementations must be safe for concurrent
// use: tokens are written and consumed from independent request handlers.
type Store interface {
	// Put inserts a token. Inserting an existing token string replaces it.
	Put(ctx context.Context, t *Token) error

	// Get returns the token record, or ErrNotFound.
	Get(ctx context.Context, token string) (*Token, error)

	// MarkUsed sets used=true for the token. Unknown tokens are a no-op,
	// never an error.
	MarkUsed(ctx context.Context, token string) error

	// DeleteExpired removes tokens that are expired or already used as of
	// now, returning how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}

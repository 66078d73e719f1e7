package reset

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-process map. It is the default
// backend for single-instance deployments; all tokens are lost on restart.
//
// Unlike a bare map, entries do not accumulate for the process lifetime:
// the sweeper runs DeleteExpired on a schedule.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]*Token),
	}
}

// Put inserts a token.
func (s *MemoryStore) Put(ctx context.Context, t *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tokens[t.Token] = &cp
	return nil
}

// Get returns the token record, or ErrNotFound. Expired entries are still
// returned: the service layer owns the "Token expirado" distinction, and
// removal is the sweeper's job.
func (s *MemoryStore) Get(ctx context.Context, token string) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// MarkUsed sets used=true for the token; unknown tokens are a no-op.
func (s *MemoryStore) MarkUsed(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[token]; ok {
		t.Used = true
	}
	return nil
}

// DeleteExpired removes expired and used tokens.
func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, t := range s.tokens {
		if t.Used || now.After(t.ExpiresAt) {
			delete(s.tokens, key)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored tokens. Used by tests and health
// reporting.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

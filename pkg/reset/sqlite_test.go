package reset

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tokens.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_PutGet(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	tok := &Token{
		Token:     "abc123",
		Email:     "maria@example.com",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.Put(ctx, tok); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Email != tok.Email || got.Used {
		t.Errorf("Get() = %+v", got)
	}
	if !got.ExpiresAt.Equal(tok.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, tok.ExpiresAt)
	}
}

func TestSQLiteStore_PutUpsert(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	store.Put(ctx, &Token{Token: "abc", Email: "old@example.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	if err := store.Put(ctx, &Token{Token: "abc", Email: "new@example.com", CreatedAt: now, ExpiresAt: now.Add(2 * time.Hour)}); err != nil {
		t.Fatalf("Put() upsert error = %v", err)
	}

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Email != "new@example.com" {
		t.Errorf("Email = %q, want new@example.com", got.Email)
	}
}

func TestSQLiteStore_PutRejectsEmptyToken(t *testing.T) {
	store := newTestSQLiteStore(t)
	if err := store.Put(context.Background(), &Token{}); err == nil {
		t.Error("Put() error = nil, want error for empty token")
	}
}

func TestSQLiteStore_GetUnknown(t *testing.T) {
	store := newTestSQLiteStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_MarkUsed(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	store.Put(ctx, &Token{Token: "abc", Email: "a@b.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	if err := store.MarkUsed(ctx, "abc"); err != nil {
		t.Fatalf("MarkUsed() error = %v", err)
	}
	got, _ := store.Get(ctx, "abc")
	if !got.Used {
		t.Error("MarkUsed() did not set Used")
	}

	if err := store.MarkUsed(ctx, "unknown"); err != nil {
		t.Errorf("MarkUsed(unknown) error = %v, want nil", err)
	}
}

func TestSQLiteStore_DeleteExpired(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	store.Put(ctx, &Token{Token: "live", Email: "a@b.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	store.Put(ctx, &Token{Token: "expired", Email: "a@b.com", CreatedAt: now, ExpiresAt: now.Add(-time.Minute)})
	store.Put(ctx, &Token{Token: "used", Email: "a@b.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour), Used: true})

	removed, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, err := store.Get(ctx, "live"); err != nil {
		t.Errorf("live token removed: %v", err)
	}
	if _, err := store.Get(ctx, "expired"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired token survived: %v", err)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tokens.db")
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	store.Put(ctx, &Token{Token: "persist", Email: "a@b.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "persist")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Email != "a@b.com" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestSQLiteStore_CloseIsIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewSQLiteStore_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("NewSQLiteStore(\"\") error = nil, want error")
	}
}

package reset

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serviceClock is a manually stepped clock for service tests.
type serviceClock struct {
	t time.Time
}

func (c *serviceClock) Now() time.Time          { return c.t }
func (c *serviceClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *MemoryStore, *serviceClock) {
	t.Helper()
	clock := &serviceClock{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore()
	svc := NewService(store, time.Hour, discardLogger(), WithServiceClock(clock.Now))
	return svc, store, clock
}

func TestService_Lifecycle(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	token, err := svc.Issue(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if len(token) != TokenLength {
		t.Fatalf("len(token) = %d, want %d", len(token), TokenLength)
	}

	v := svc.Validate(ctx, token)
	if !v.IsValid {
		t.Fatalf("Validate() = %+v, want valid", v)
	}
	if v.Email != "maria@example.com" {
		t.Errorf("Email = %q, want maria@example.com", v.Email)
	}
	if v.Error != "" {
		t.Errorf("Error = %q, want empty", v.Error)
	}

	// Still valid just before expiry.
	clock.Advance(59 * time.Minute)
	if v := svc.Validate(ctx, token); !v.IsValid {
		t.Errorf("Validate() before expiry = %+v, want valid", v)
	}

	if err := svc.MarkUsed(ctx, token); err != nil {
		t.Fatalf("MarkUsed() error = %v", err)
	}
	v = svc.Validate(ctx, token)
	if v.IsValid || v.Error != MsgTokenUsed {
		t.Errorf("Validate() after use = %+v, want error %q", v, MsgTokenUsed)
	}
}

func TestService_ValidateUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	v := svc.Validate(context.Background(), "no-such-token")
	if v.IsValid || v.Error != MsgTokenInvalid {
		t.Errorf("Validate() = %+v, want error %q", v, MsgTokenInvalid)
	}
	if v.Email != "" {
		t.Errorf("Email = %q, want empty on invalid token", v.Email)
	}
}

func TestService_ValidateExpiredToken(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	token, err := svc.Issue(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	clock.Advance(61 * time.Minute)
	v := svc.Validate(ctx, token)
	if v.IsValid || v.Error != MsgTokenExpired {
		t.Errorf("Validate() = %+v, want error %q", v, MsgTokenExpired)
	}
}

// A token that is both used and expired reports "used"; the frontend
// messaging depends on that precedence.
func TestService_UsedBeatsExpired(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	token, err := svc.Issue(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := svc.MarkUsed(ctx, token); err != nil {
		t.Fatalf("MarkUsed() error = %v", err)
	}

	clock.Advance(2 * time.Hour)
	v := svc.Validate(ctx, token)
	if v.Error != MsgTokenUsed {
		t.Errorf("Validate() error = %q, want %q", v.Error, MsgTokenUsed)
	}
}

func TestService_MarkUsedUnknownTokenIsNoOp(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.MarkUsed(context.Background(), "no-such-token"); err != nil {
		t.Errorf("MarkUsed() error = %v, want nil", err)
	}
}

func TestService_IssueIsPerRequest(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	t1, err := svc.Issue(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	t2, err := svc.Issue(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if t1 == t2 {
		t.Error("two issues for the same email produced the same token")
	}
	if store.Len() != 2 {
		t.Errorf("store.Len() = %d, want 2", store.Len())
	}
	if v := svc.Validate(ctx, t1); !v.IsValid {
		t.Errorf("earlier token invalidated by a newer issue: %+v", v)
	}
}

package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCheckLiveness_IgnoresComponentChecks(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("broken", func(ctx context.Context) error {
		return errors.New("down")
	})

	status := c.CheckLiveness(context.Background())
	if status.Status != "ok" {
		t.Errorf("Status = %q, want ok", status.Status)
	}
}

func TestCheckReadiness(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("config", func(ctx context.Context) error { return nil })
	c.RegisterCheck("store", func(ctx context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Fatalf("Status = %q, want ready", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Errorf("len(Checks) = %d, want 2", len(status.Checks))
	}
	for name, result := range status.Checks {
		if result.Status != "ok" {
			t.Errorf("check %q = %+v, want ok", name, result)
		}
	}
}

func TestCheckReadiness_Degraded(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("healthy", func(ctx context.Context) error { return nil })
	c.RegisterCheck("broken", func(ctx context.Context) error {
		return errors.New("config source unreachable")
	})

	status := c.CheckReadiness(context.Background())
	if status.Status != "degraded" {
		t.Fatalf("Status = %q, want degraded", status.Status)
	}
	if got := status.Checks["broken"]; got.Status != "unhealthy" || got.Message != "config source unreachable" {
		t.Errorf("broken check = %+v", got)
	}
	if got := status.Checks["healthy"]; got.Status != "ok" {
		t.Errorf("healthy check = %+v", got)
	}
}

func TestCheckReadiness_TimeoutPerCheck(t *testing.T) {
	c := New(50 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	start := time.Now()
	status := c.CheckReadiness(context.Background())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("readiness took %v, timeout not applied", elapsed)
	}
	if status.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", status.Status)
	}
}

func TestRegisterCheck_Replaces(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("config", func(ctx context.Context) error {
		return errors.New("old")
	})
	c.RegisterCheck("config", func(ctx context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Errorf("Status = %q, want ready after replacement", status.Status)
	}
}

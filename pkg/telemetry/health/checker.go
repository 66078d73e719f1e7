// Package health provides liveness and readiness probes. Readiness
// reflects the state of the admin config source: a gateway serving the
// built-in default because its config source is down is degraded, not
// dead.
package health

import (
	"context"
	"sync"
	"time"
)

// CheckFunc performs a health check for a component. It returns nil if the
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// CheckResult represents the result of a single health check.
type CheckResult struct {
	// Status is the health status: "ok" or "unhealthy"
	Status string `json:"status"`

	// Message provides additional context for unhealthy status
	Message string `json:"message,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// Status represents the overall health status of the service.
type Status struct {
	// Status is the overall status: "ok", "ready", or "degraded"
	Status string `json:"status"`

	// Checks contains the status of individual components (readiness only)
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the health check was performed
	Timestamp time.Time `json:"timestamp"`
}

// Checker manages health checks for service components.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	// checkTimeout bounds each individual check.
	checkTimeout time.Duration
}

// New creates a health checker. A zero timeout defaults to 5 seconds per
// check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a health check for a named component, replacing
// any existing check with the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// CheckLiveness reports that the process is alive. It never runs component
// checks: liveness failing should mean "restart me", and a degraded config
// source is not that.
func (c *Checker) CheckLiveness(ctx context.Context) Status {
	return Status{Status: "ok", Timestamp: time.Now()}
}

// CheckReadiness runs all registered component checks. Any failing check
// degrades the overall status.
func (c *Checker) CheckReadiness(ctx context.Context) Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	status := Status{
		Status:    "ready",
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now(),
	}

	for name, fn := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
		start := time.Now()
		err := fn(checkCtx)
		cancel()

		result := CheckResult{Status: "ok", Duration: time.Since(start)}
		if err != nil {
			result.Status = "unhealthy"
			result.Message = err.Error()
			status.Status = "degraded"
		}
		status.Checks[name] = result
	}

	return status
}

package adminconfig

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// FetchResult labels the outcome of a cache refresh for observers.
type FetchResult string

const (
	// FetchOK means the source returned a valid config.
	FetchOK FetchResult = "ok"
	// FetchFailed means the source errored and the previous value was kept.
	FetchFailed FetchResult = "failed"
	// FetchNotConfigured means no source is configured (dev mode).
	FetchNotConfigured FetchResult = "not_configured"
)

// Cache holds the current policy config and refreshes it from its Source
// when the TTL elapses. It is an explicit object constructed once at
// process start and injected wherever the config is needed; there is no
// package-level state.
//
// Refresh behavior:
//   - Fresh value: returned without I/O.
//   - Stale value: one goroutine refetches; concurrent callers keep using
//     the previous value instead of piling onto the source.
//   - Fetch failure: the previous value (or the built-in default if none
//     exists) is served, and the failure itself is cached for a full TTL
//     so a down admin API is retried at most once per window.
//
// Get never fails: policy evaluation must keep working through a config
// service outage.
type Cache struct {
	source Source
	ttl    time.Duration
	logger *slog.Logger

	// now is the clock, injectable for tests.
	now func() time.Time

	// onFetch, if set, observes refresh outcomes (metrics hook).
	onFetch func(FetchResult)

	mu        sync.Mutex
	current   *Compiled
	fetchedAt time.Time
	haveValue bool
	lastErr   error
	fetching  bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the cache clock. Tests use this to step time without
// sleeping.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithFetchObserver registers a hook invoked after every refresh attempt.
func WithFetchObserver(fn func(FetchResult)) CacheOption {
	return func(c *Cache) { c.onFetch = fn }
}

// NewCache creates a config cache over the given source. ttl controls how
// long both successful and failed fetches are held.
func NewCache(source Source, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		source:  source,
		ttl:     ttl,
		logger:  logger.With("component", "adminconfig.cache"),
		now:     time.Now,
		current: DefaultCompiled(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current policy config, refreshing it from the source if
// the cached value has gone stale. It never returns nil.
func (c *Cache) Get(ctx context.Context) *Compiled {
	c.mu.Lock()

	fresh := !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl
	if c.fetching || fresh {
		cfg := c.current
		c.mu.Unlock()
		return cfg
	}

	// Claim the refresh and stamp the window up front: concurrent callers
	// and repeated failures both ride the previous value until the next
	// TTL boundary.
	c.fetching = true
	c.fetchedAt = c.now()
	prev := c.current
	c.mu.Unlock()

	compiled, err := c.source.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false
	c.lastErr = err

	switch {
	case err == nil:
		c.current = compiled
		c.haveValue = true
		c.observe(FetchOK)
		c.logger.Debug("policy config refreshed", "source", c.source.Describe())
	case errors.Is(err, ErrNotConfigured):
		// Local/dev mode. Keep whatever we have (default on first use).
		c.observe(FetchNotConfigured)
		c.logger.Debug("policy config source not configured, using default")
	default:
		c.observe(FetchFailed)
		if c.haveValue {
			c.logger.Warn("policy config refresh failed, serving last known value",
				"source", c.source.Describe(),
				"error", err,
			)
		} else {
			c.logger.Warn("policy config refresh failed, serving built-in default",
				"source", c.source.Describe(),
				"error", err,
			)
		}
		c.current = prev
	}

	return c.current
}

// Invalidate discards the freshness of the cached value. The next Get
// refetches immediately; the current value keeps serving until then.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}

// Stats describes the cache state for health reporting.
type Stats struct {
	// FetchedAt is when the current TTL window started.
	FetchedAt time.Time

	// UsingDefault is true while no config has ever been loaded.
	UsingDefault bool

	// LastError is the error from the most recent refresh, if any.
	LastError error
}

// Stats returns a snapshot of the cache state.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		FetchedAt:    c.fetchedAt,
		UsingDefault: !c.haveValue,
		LastError:    c.lastErr,
	}
}

func (c *Cache) observe(r FetchResult) {
	if c.onFetch != nil {
		c.onFetch(r)
	}
}

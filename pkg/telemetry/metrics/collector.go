// Package metrics provides Prometheus metrics for the gateway: request
// throughput and latency, policy decisions by outcome, config cache
// refreshes, and reset token operations.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"lexhub/gatekeeper/pkg/config"
)

// Collector owns the metrics registry and all metric vectors.
type Collector struct {
	registry *prometheus.Registry

	// Request throughput and latency
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// Policy decisions by outcome
	decisionsTotal *prometheus.CounterVec

	// Config cache refresh attempts by result
	configFetchesTotal *prometheus.CounterVec

	// Reset token operations
	resetOpsTotal *prometheus.CounterVec
}

// NewCollector creates and registers all gateway metrics.
func NewCollector(cfg *config.MetricsConfig) *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "requests_total",
				Help:      "Total number of requests handled by the gateway",
			},
			[]string{"method", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "Request handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "policy_decisions_total",
				Help:      "Policy pipeline decisions by terminal outcome",
			},
			[]string{"outcome"},
		),

		configFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "config_fetches_total",
				Help:      "Policy config refresh attempts by result",
			},
			[]string{"result"},
		),

		resetOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "reset_token_operations_total",
				Help:      "Password-reset token operations by type and result",
			},
			[]string{"operation", "result"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.decisionsTotal,
		c.configFetchesTotal,
		c.resetOpsTotal,
	)

	return c
}

// RecordRequest records a completed request.
func (c *Collector) RecordRequest(method string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordDecision records a policy pipeline outcome.
func (c *Collector) RecordDecision(outcome string) {
	c.decisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordConfigFetch records a config cache refresh attempt.
func (c *Collector) RecordConfigFetch(result string) {
	c.configFetchesTotal.WithLabelValues(result).Inc()
}

// RecordResetOp records a reset token operation.
func (c *Collector) RecordResetOp(operation, result string) {
	c.resetOpsTotal.WithLabelValues(operation, result).Inc()
}

// Registry returns the underlying registry, for tests and the handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

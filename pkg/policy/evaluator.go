package policy

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"lexhub/gatekeeper/pkg/adminconfig"
)

// Outcome labels the terminal result of policy evaluation.
type Outcome string

const (
	// OutcomeMaintenance serves the static maintenance page.
	OutcomeMaintenance Outcome = "maintenance"

	// OutcomeRedirect sends an HTTP redirect.
	OutcomeRedirect Outcome = "redirect"

	// OutcomeRewrite internally rewrites the request path before
	// forwarding upstream.
	OutcomeRewrite Outcome = "rewrite"

	// OutcomePassThrough forwards the request unchanged, possibly with
	// advisory headers attached.
	OutcomePassThrough Outcome = "pass_through"
)

// Response headers set by the evaluator.
const (
	HeaderFeatureFlags = "x-feature-flags"
	HeaderABTest       = "x-ab-test"
	HeaderABVariant    = "x-ab-variant"
	HeaderUserID       = "x-user-id"
)

// Cache-Control values by path class.
const (
	cacheControlAPI     = "no-cache, no-store, must-revalidate"
	cacheControlStatic  = "public, max-age=31536000, immutable"
	cacheControlDefault = "public, max-age=3600, stale-while-revalidate=86400"
)

// maintenanceRetryAfter is the Retry-After value on maintenance responses,
// in seconds.
const maintenanceRetryAfter = "3600"

// Decision is the outcome of evaluating one request against the policy
// config. Exactly one Outcome applies; the remaining fields are only
// meaningful for their outcome.
type Decision struct {
	// Outcome is the terminal pipeline result.
	Outcome Outcome

	// Status is the response status for maintenance and redirect outcomes.
	Status int

	// Location is the redirect target.
	Location string

	// RewritePath is the internal rewrite target path.
	RewritePath string

	// Message is the maintenance page message.
	Message string

	// Headers are advisory response headers to attach (feature flags,
	// A/B annotations, user id, cache policy).
	Headers http.Header

	// UserID is the derived bucketing identity for the request.
	UserID string
}

// Evaluator runs the request policy pipeline. It is stateless: every
// decision is a pure function of the request and the compiled config,
// which is what makes bucketing reproducible and the evaluator trivially
// safe under concurrent requests.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{logger: logger.With("component", "policy.evaluator")}
}

// Evaluate decides what to do with a request. Stages run in a fixed order
// that is a design contract: maintenance overrides everything, access
// control overrides redirects, redirects override experimentation, and
// feature flags are advisory metadata on whatever response survives.
//
// Evaluation never takes a request down: a panic anywhere in the pipeline
// degrades to an unconditional pass-through with no headers.
func (e *Evaluator) Evaluate(r *http.Request, cfg *adminconfig.Compiled) (d Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("policy evaluation panicked, passing request through",
				"panic", rec,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			d = Decision{Outcome: OutcomePassThrough, Headers: http.Header{}}
		}
	}()
	return e.evaluate(r, cfg)
}

func (e *Evaluator) evaluate(r *http.Request, cfg *adminconfig.Compiled) Decision {
	path := r.URL.Path
	userID := DeriveIdentity(r)

	// Stage 1: maintenance mode.
	if cfg.Maintenance.Enabled && !pathAllowed(path, cfg.Maintenance.AllowedPaths) {
		return Decision{
			Outcome: OutcomeMaintenance,
			Status:  http.StatusServiceUnavailable,
			Message: cfg.Maintenance.Message,
			Headers: http.Header{"Retry-After": {maintenanceRetryAfter}},
			UserID:  userID,
		}
	}

	// Stage 2: access control. The derived identity is never consulted
	// here; only the role header counts.
	for i := range cfg.AccessControl {
		rule := &cfg.AccessControl[i]
		if !strings.HasPrefix(path, rule.Path) {
			continue
		}
		role := r.Header.Get(RoleHeader)
		if role == "" {
			role = "guest"
		}
		if role != rule.RequiredRole && role != "admin" {
			return Decision{
				Outcome:  OutcomeRedirect,
				Status:   http.StatusFound,
				Location: "/login",
				UserID:   userID,
			}
		}
		break
	}

	// Stage 3: redirects.
	for i := range cfg.Redirects {
		rule := &cfg.Redirects[i]
		if !strings.HasPrefix(path, rule.Source) {
			continue
		}
		status := http.StatusFound
		if rule.Permanent {
			status = http.StatusMovedPermanently
		}
		return Decision{
			Outcome:  OutcomeRedirect,
			Status:   status,
			Location: rule.Destination,
			UserID:   userID,
		}
	}

	// Stage 4: A/B test rewrite. Only the first matching test applies,
	// and only a variant whose path differs from the request produces a
	// terminal rewrite.
	for i := range cfg.ABTests {
		test := &cfg.ABTests[i]
		if !test.MatchesTarget(path) {
			continue
		}
		bucket := Hash(userID+test.Key) % test.TotalWeight
		variant := pickVariant(bucket, test)
		if variant.Path != path {
			headers := http.Header{}
			headers.Set(HeaderABTest, test.Key)
			headers.Set(HeaderABVariant, variant.Name)
			return Decision{
				Outcome:     OutcomeRewrite,
				RewritePath: variant.Path,
				Headers:     headers,
				UserID:      userID,
			}
		}
		break
	}

	// Stage 5: feature flags and pass-through.
	headers := http.Header{}
	var flags []string
	for i := range cfg.FeatureFlags {
		flag := &cfg.FeatureFlags[i]
		if flagEnabledFor(flag, userID, path) {
			flags = append(flags, flag.Key)
		}
	}
	if len(flags) > 0 {
		headers.Set(HeaderFeatureFlags, strings.Join(flags, ","))
	}
	headers.Set(HeaderUserID, userID)
	headers.Set("Cache-Control", CacheControlFor(path))

	return Decision{
		Outcome: OutcomePassThrough,
		Headers: headers,
		UserID:  userID,
	}
}

// pathAllowed reports whether the path starts with any of the given
// prefixes.
func pathAllowed(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// CacheControlFor returns the Cache-Control policy for a path class:
// API routes are never cached, static assets cache for a year, and
// regular pages cache briefly with stale-while-revalidate.
func CacheControlFor(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/"):
		return cacheControlAPI
	case strings.HasPrefix(path, "/static/") || strings.Contains(path, "."):
		return cacheControlStatic
	default:
		return cacheControlDefault
	}
}

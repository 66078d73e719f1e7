package middleware

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"lexhub/gatekeeper/pkg/adminconfig"
	"lexhub/gatekeeper/pkg/policy"
)

// PolicyMiddleware evaluates the admin policy config for every request and
// applies the resulting decision:
//
//   - maintenance: a static 503 page with Retry-After
//   - redirect: 301/302 to the configured destination
//   - rewrite: the request path is rewritten in place and forwarded, with
//     the A/B annotation headers attached
//   - pass-through: forwarded with feature-flag, identity, and
//     cache-control headers attached
//
// onDecision, if non-nil, observes every outcome (metrics hook).
func PolicyMiddleware(cache *adminconfig.Cache, evaluator *policy.Evaluator, onDecision func(policy.Outcome)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := cache.Get(r.Context())
			decision := evaluator.Evaluate(r, cfg)

			if onDecision != nil {
				onDecision(decision.Outcome)
			}

			for key, values := range decision.Headers {
				for _, v := range values {
					w.Header().Add(key, v)
				}
			}

			ctx := context.WithValue(r.Context(), UserIDKey, decision.UserID)
			ctx = context.WithValue(ctx, OutcomeKey, string(decision.Outcome))
			r = r.WithContext(ctx)

			switch decision.Outcome {
			case policy.OutcomeMaintenance:
				writeMaintenancePage(w, decision)

			case policy.OutcomeRedirect:
				http.Redirect(w, r, decision.Location, decision.Status)

			case policy.OutcomeRewrite:
				r.URL.Path = decision.RewritePath
				next.ServeHTTP(w, r)

			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// writeMaintenancePage renders the static maintenance response. The
// admin-supplied message is HTML-escaped: the config source is trusted for
// policy but not for markup.
func writeMaintenancePage(w http.ResponseWriter, d policy.Decision) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(d.Status)

	message := d.Message
	if message == "" {
		message = "We are performing scheduled maintenance. Please check back soon."
	}

	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Maintenance</title></head>
<body>
<h1>Temporarily Unavailable</h1>
<p>%s</p>
</body>
</html>
`, html.EscapeString(message))
}

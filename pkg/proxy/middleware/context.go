package middleware

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// Context keys for storing values in request context.
const (
	// RequestIDKey stores the unique request ID.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey stores the request start time for latency calculation.
	StartTimeKey contextKey = "start_time"

	// UserIDKey stores the bucketing identity derived for the request.
	UserIDKey contextKey = "user_id"

	// OutcomeKey stores the policy outcome decided for the request.
	OutcomeKey contextKey = "policy_outcome"
)

// GetRequestID returns the request ID from the context, or "" if absent.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserID returns the derived user identity from the context, or "" if
// absent.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetOutcome returns the policy outcome from the context, or "" if absent.
func GetOutcome(ctx context.Context) string {
	if o, ok := ctx.Value(OutcomeKey).(string); ok {
		return o
	}
	return ""
}

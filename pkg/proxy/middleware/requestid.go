package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the HTTP header for request ID.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns a unique request ID to each request and adds
// it to the context and response headers. If the client provides a request
// ID in the X-Request-ID header, it is used instead of generating a new one.
//
// The request ID is:
//   - Added to the request context for handler access
//   - Included in the X-Request-ID response header
//   - Used for correlation in logs
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

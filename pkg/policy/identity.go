package policy

import (
	"encoding/base64"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Cookie and header names consulted during identity derivation.
const (
	// AuthTokenCookie holds the JWT-like session token set by the app.
	AuthTokenCookie = "auth_token"

	// SessionIDCookie holds the anonymous session identifier.
	SessionIDCookie = "session_id"

	// UserIDHeader is the client-supplied identity header.
	UserIDHeader = "X-User-ID"

	// RoleHeader carries the caller's role for access-control rules.
	RoleHeader = "X-User-Role"
)

// DeriveIdentity produces a stable identifier for a request, used only to
// bucket the user into feature-flag rollouts and A/B variants.
//
// Resolution order, first match wins:
//  1. The auth_token cookie, decoded as a JWT payload (user_id, then sub).
//  2. The X-User-ID header.
//  3. The session_id cookie.
//  4. base64 of "{clientIP}-{userAgent}", truncated to 16 characters.
//
// The result is advisory only. It is derived from unauthenticated client
// input and must never feed an authorization decision; access control reads
// the role header separately.
func DeriveIdentity(r *http.Request) string {
	if c, err := r.Cookie(AuthTokenCookie); err == nil && c.Value != "" {
		if id := identityFromJWT(c.Value); id != "" {
			return id
		}
	}

	if id := r.Header.Get(UserIDHeader); id != "" {
		return id
	}

	if c, err := r.Cookie(SessionIDCookie); err == nil && c.Value != "" {
		return c.Value
	}

	fingerprint := clientIP(r) + "-" + r.UserAgent()
	encoded := base64.StdEncoding.EncodeToString([]byte(fingerprint))
	if len(encoded) > 16 {
		encoded = encoded[:16]
	}
	return encoded
}

// identityFromJWT extracts user_id (or sub) from the payload segment of a
// JWT-like token. The signature is deliberately not verified: the value is
// only a bucketing key. Any decode failure returns "" and the caller falls
// through to the next identity source.
func identityFromJWT(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return ""
	}

	payload, err := decodeBase64Segment(parts[1])
	if err != nil {
		return ""
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return ""
	}

	if id := claimString(claims, "user_id"); id != "" {
		return id
	}
	return claimString(claims, "sub")
}

// decodeBase64Segment decodes a JWT segment, tolerating both the standard
// unpadded URL-safe alphabet and the padded encodings some token issuers
// emit.
func decodeBase64Segment(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// claimString renders a claim value as a string. Numeric user ids are
// common in tokens minted by the backend, so numbers are accepted too.
func claimString(claims map[string]any, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// clientIP returns the originating client address, preferring the first
// X-Forwarded-For entry when the request came through a proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

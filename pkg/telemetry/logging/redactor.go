package logging

import "strings"

// MaskEmail masks the local part of an email address for logging,
// keeping the first character and the domain: "maria@example.com"
// becomes "m***@example.com". Values that don't look like an email are
// masked entirely.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// MaskToken masks a secret token for logging, keeping only the first four
// characters: "aB3x9...". Short values are masked entirely.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return "***"
	}
	return token[:4] + "..."
}

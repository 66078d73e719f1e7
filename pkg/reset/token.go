package reset

import (
	"crypto/rand"
	"fmt"
)

// tokenAlphabet is the 62-character alphanumeric alphabet reset tokens are
// drawn from.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// TokenLength is the length of a generated reset token.
const TokenLength = 32

// GenerateToken returns a 32-character alphanumeric reset token drawn from
// a cryptographically secure random source. Reset tokens gate a password
// change, so a predictable generator is not acceptable here.
//
// Bytes are rejection-sampled so every alphabet character is equally
// likely (248 = 4*62 is the largest multiple of 62 below 256).
func GenerateToken() (string, error) {
	const maxAccepted = 248

	out := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= maxAccepted {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out), nil
}

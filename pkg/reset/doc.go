// Package reset implements the password-reset token service: secure token
// generation, a pluggable token store (in-memory or SQLite), scheduled
// pruning of dead tokens, and the HTTP endpoints the frontend calls.
//
// The service deliberately answers the forgot-password endpoint with the
// same generic message whether or not the account exists, so it cannot be
// used to enumerate registered emails.
package reset

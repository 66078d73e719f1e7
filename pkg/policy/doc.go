// Package policy implements the request policy pipeline: deterministic
// hash bucketing, bucketing-identity derivation, and the staged evaluator
// that turns an inbound request plus the admin policy config into exactly
// one of maintenance, redirect, rewrite, or pass-through.
package policy

// Package middleware provides the HTTP middleware chain for the gateway:
// panic recovery, request ID assignment, structured request logging, and
// the policy middleware that evaluates and applies admin policy decisions.
package middleware

// Package ratelimit enforces per-client sliding-window limits on sensitive
// endpoints (registration, login, reset requests).
package ratelimit

import (
	"context"
	"time"
)

// Decision reports whether a hit was allowed and, if not, how long the client
// should wait.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Store records hits per (scope, identifier) key inside a sliding window.
type Store interface {
	Hit(ctx context.Context, scope, identifier string, limit int, window time.Duration) (Decision, error)
}

// Rule is one scope's limit configuration.
type Rule struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// Default rules mirror the thresholds the original deployment used.
var (
	RuleRegister     = Rule{Scope: "auth.register", Limit: 5, Window: time.Hour}
	RuleLogin        = Rule{Scope: "auth.login", Limit: 10, Window: 5 * time.Minute}
	RuleResetRequest = Rule{Scope: "auth.reset_request", Limit: 3, Window: 15 * time.Minute}
	RuleMatchFind    = Rule{Scope: "match.find", Limit: 30, Window: time.Minute}
)

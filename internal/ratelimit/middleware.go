package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"soultribe/internal/platform/metrics"
	"soultribe/pkg/requestcontext"
)

// Middleware enforces a rule keyed by client IP. On rejection it answers 429
// with a Retry-After header. Store errors fail open: availability of the
// endpoint wins over strictness of the limit.
func Middleware(store Store, rule Rule, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identifier := requestcontext.ClientIP(ctx)
			if identifier == "" {
				identifier = "unknown"
			}

			decision, err := store.Hit(ctx, rule.Scope, identifier, rule.Limit, rule.Window)
			if err != nil {
				logger.WarnContext(ctx, "rate limit store unavailable, failing open",
					"scope", rule.Scope,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				if m != nil {
					m.RateLimitRejected.WithLabelValues(rule.Scope).Inc()
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Too many requests. Please try again later."}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Package httptransport assembles the public router from the per-domain
// handlers. Domain handlers self-register; this package only decides which
// middleware wraps which route group.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "soultribe/internal/auth/handler"
	availabilityhandler "soultribe/internal/availability/handler"
	matchhandler "soultribe/internal/match/handler"
	meetuphandler "soultribe/internal/meetup/handler"
	"soultribe/internal/platform/metrics"
	"soultribe/internal/platform/middleware"
	profilehandler "soultribe/internal/profile/handler"
	"soultribe/internal/ratelimit"
	"soultribe/internal/transport/http/shared"
)

// Deps carries everything the router composes.
type Deps struct {
	Auth         *authhandler.Handler
	Profile      *profilehandler.Handler
	Availability *availabilityhandler.Handler
	Match        *matchhandler.Handler
	Meetup       *meetuphandler.Handler

	JWT     middleware.JWTValidator
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	Health func(r *http.Request) error
}

// Limits builds the auth endpoint rate limiters from a shared store.
func Limits(store ratelimit.Store, m *metrics.Metrics, logger *slog.Logger) authhandler.Limits {
	return authhandler.Limits{
		Register:     ratelimit.Middleware(store, ratelimit.RuleRegister, m, logger),
		Login:        ratelimit.Middleware(store, ratelimit.RuleLogin, m, logger),
		ResetRequest: ratelimit.Middleware(store, ratelimit.RuleResetRequest, m, logger),
	}
}

// FindLimit builds the match discovery rate limiter.
func FindLimit(store ratelimit.Store, m *metrics.Metrics, logger *slog.Logger) matchhandler.Limiter {
	return matchhandler.Limiter(ratelimit.Middleware(store, ratelimit.RuleMatchFind, m, logger))
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	r.Get("/healthz", health(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Auth.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.JWT, deps.Logger))
		deps.Profile.Register(r)
		deps.Availability.Register(r)
		deps.Match.Register(r)
		deps.Meetup.Register(r)
	})

	return r
}

func health(check func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"reason": err.Error(),
				})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

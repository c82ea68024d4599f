// Package metrics holds the Prometheus instruments shared across handlers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersRegistered   prometheus.Counter
	SlotsCreated      prometheus.Counter
	MeetupsConfirmed  prometheus.Counter
	MatchSearches     prometheus.Counter
	ZoneFallbacks     prometheus.Counter
	RequestLatency    *prometheus.HistogramVec
	RateLimitRejected *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soultribe_users_registered_total",
			Help: "Total number of users registered.",
		}),
		SlotsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soultribe_availability_slots_created_total",
			Help: "Total number of availability slots created.",
		}),
		MeetupsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soultribe_meetups_confirmed_total",
			Help: "Total number of meetups confirmed.",
		}),
		MatchSearches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soultribe_match_searches_total",
			Help: "Total number of match candidate searches.",
		}),
		ZoneFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soultribe_timezone_fallbacks_total",
			Help: "Times an unresolvable timezone degraded to UTC.",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "soultribe_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		RateLimitRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "soultribe_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter, by scope.",
		}, []string{"scope"}),
	}
}

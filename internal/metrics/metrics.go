// Package metrics holds the Prometheus collectors for the vote server.
//
// Collectors are registered on the Registerer passed to New, so tests can
// use a fresh prometheus.NewRegistry() each time and the server can expose
// exactly its own collectors on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "slay_vote"

type Metrics struct {
	VotesSubmitted *prometheus.CounterVec
	VoteFailures   *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	RequestTime    *prometheus.HistogramVec
	Watchers       prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		VotesSubmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_submitted_total",
				Help:      "Votes stored, including re-votes that replaced an earlier choice",
			},
			[]string{"category", "kind"},
		),
		VoteFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vote_failures_total",
				Help:      "Vote submissions that were rejected or failed to store",
			},
			[]string{"reason"},
		),
		Logins: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Successful sign-ins by provider",
			},
			[]string{"provider"},
		),
		RequestTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		Watchers: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "change_watchers",
				Help:      "Open change-feed websocket connections",
			},
		),
	}
}

// ObserveRequest records one HTTP request. route is the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.RequestTime.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

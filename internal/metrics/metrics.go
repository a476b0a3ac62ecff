// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "studytrack"

type Metrics struct {
	// HTTPRequests counts handled requests.
	// Labels: method, route, status
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration measures handler latency.
	// Labels: method, route
	HTTPDuration *prometheus.HistogramVec

	// PhaseCompletions counts timer expiries.
	// Labels: phase
	PhaseCompletions *prometheus.CounterVec

	// SessionReports counts completion reporter outcomes.
	// Labels: result (persisted, failed)
	SessionReports *prometheus.CounterVec

	HabitToggles    prometheus.Counter
	AnalyticsErrors prometheus.Counter
	RateLimited     prometheus.Counter
}

// New registers every collector on reg. Tests pass a fresh registry so that
// repeated construction does not panic on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP handler latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		PhaseCompletions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "phase_completions_total",
			Help:      "Timer phases that counted down to zero",
		}, []string{"phase"}),
		SessionReports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporter",
			Name:      "session_reports_total",
			Help:      "Completed focus session writes by result",
		}, []string{"result"}),
		HabitToggles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "habits",
			Name:      "toggles_total",
			Help:      "Habit log toggles applied",
		}),
		AnalyticsErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "unavailable_total",
			Help:      "Analytics requests that failed on a storage read",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-user rate limiter",
		}),
	}
}

// Package metrics holds the Prometheus collectors shared by the gateway,
// the session manager and the development API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors bound to a private registry, so several
// clients can live in one process (and in parallel tests).
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsCount     *prometheus.CounterVec
	SessionChanges  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		ErrorsCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "errors_total",
				Help:      "Total number of classified request failures",
			},
			[]string{"method", "endpoint", "error_type"},
		),
		SessionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "transitions_total",
				Help:      "Session state transitions by target state",
			},
			[]string{"state"},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.RequestCount, m.RequestDuration, m.ErrorsCount, m.SessionChanges)
	return m
}

// ObserveRequest records one completed HTTP exchange.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestCount.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// ObserveError records a request that failed with the given classification.
func (m *Metrics) ObserveError(method, endpoint, kind string) {
	if m == nil {
		return
	}
	m.ErrorsCount.WithLabelValues(method, endpoint, kind).Inc()
}

// SessionState records a session transition.
func (m *Metrics) SessionState(state string) {
	if m == nil {
		return
	}
	m.SessionChanges.WithLabelValues(state).Inc()
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

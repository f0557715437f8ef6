// Package metrics exposes Prometheus collectors for the comment board.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the board's collectors on a private registry, so tests
// and multiple servers never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	submissions        *prometheus.CounterVec
	moderation         *prometheus.CounterVec
	moderationDuration prometheus.Histogram
	logins             *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commentboard",
			Name:      "submissions_total",
			Help:      "Public comment submissions by outcome.",
		}, []string{"outcome"}),
		moderation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commentboard",
			Name:      "moderation_total",
			Help:      "Moderation calls by outcome.",
		}, []string{"outcome"}),
		moderationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "commentboard",
			Name:      "moderation_duration_seconds",
			Help:      "Latency of moderation calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commentboard",
			Name:      "admin_logins_total",
			Help:      "Admin login attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.submissions, m.moderation, m.moderationDuration, m.logins)
	return m
}

// Submission counts one admission outcome.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// Moderation records one moderation call.
func (m *Metrics) Moderation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.moderation.WithLabelValues(outcome).Inc()
	m.moderationDuration.Observe(d.Seconds())
}

// Login counts one admin login attempt.
func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

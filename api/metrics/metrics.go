package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the checkout Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	CheckoutOutcomesTotal *prometheus.CounterVec
	SecretFetchesTotal    *prometheus.CounterVec
	FollowUpsTotal        *prometheus.CounterVec
	ActiveSessions        prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers the collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		CheckoutOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_checkout_outcomes_total",
				Help: "Checkout submissions by outcome",
			},
			[]string{"outcome"},
		),
		SecretFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_checkout_secret_fetches_total",
				Help: "Payment intent secret fetches by result",
			},
			[]string{"result"},
		),
		FollowUpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_checkout_followups_total",
				Help: "Post-payment backend calls by kind and result",
			},
			[]string{"kind", "result"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "admin_checkout_active_sessions",
				Help: "Checkout sessions currently held in memory",
			},
		),
		registry: registry,
	}
	registry.MustRegister(
		m.CheckoutOutcomesTotal,
		m.SecretFetchesTotal,
		m.FollowUpsTotal,
		m.ActiveSessions,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.CheckoutOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSecretFetch(result string) {
	if m == nil {
		return
	}
	m.SecretFetchesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordFollowUp(kind, result string) {
	if m == nil {
		return
	}
	m.FollowUpsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

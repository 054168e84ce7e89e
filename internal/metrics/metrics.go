package metrics

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-shop-session/auth"
	"github.com/jrsteele09/go-shop-session/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop_session"

var _ auth.Observer = (*SessionMetrics)(nil)

// SessionMetrics records session lifecycle events as Prometheus metrics.
type SessionMetrics struct {
	registry       *prometheus.Registry
	activeSessions *prometheus.GaugeVec
	activations    *prometheus.CounterVec
	exchanges      *prometheus.CounterVec
	deletions      prometheus.Counter
}

// New creates a SessionMetrics with its own registry, which also carries the Go and process collectors.
func New() *SessionMetrics {
	m := &SessionMetrics{
		registry: prometheus.NewRegistry(),
		activeSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active",
			Help:      "Sessions currently active for an in-flight request.",
		}, []string{"mode"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Sessions activated for a request.",
		}, []string{"mode"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_exchanges_total",
			Help:      "Session token exchanges performed, by reason.",
		}, []string{"reason"}),
		deletions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_total",
			Help:      "Sessions deleted after the Admin API kept rejecting their access token.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.activeSessions,
		m.activations,
		m.exchanges,
		m.deletions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *SessionMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *SessionMetrics) Activated(_ context.Context, session *sessions.Session) {
	m.activations.WithLabelValues(mode(session)).Inc()
	m.activeSessions.WithLabelValues(mode(session)).Inc()
}

func (m *SessionMetrics) Deactivated(_ context.Context, session *sessions.Session) {
	m.activeSessions.WithLabelValues(mode(session)).Dec()
}

func (m *SessionMetrics) Exchanged(_ context.Context, reason auth.ExchangeReason) {
	m.exchanges.WithLabelValues(string(reason)).Inc()
}

func (m *SessionMetrics) SessionDeleted(context.Context, *sessions.Session) {
	m.deletions.Inc()
}

func mode(session *sessions.Session) string {
	if session.IsOnline {
		return "online"
	}
	return "offline"
}

// Package metrics exposes Prometheus counters for join, merge and
// notification outcomes. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hackteams"

type Metrics struct {
	joins         *prometheus.CounterVec
	merges        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		joins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_total",
			Help:      "Join operations by step and outcome.",
		}, []string{"step", "outcome"}),
		merges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_total",
			Help:      "Merge invitation operations by action and outcome.",
		}, []string{"action", "outcome"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and result.",
		}, []string{"channel", "result"}),
	}
}

func (m *Metrics) ObserveJoin(step, outcome string) {
	if m == nil {
		return
	}
	m.joins.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) ObserveMerge(action, outcome string) {
	if m == nil {
		return
	}
	m.merges.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveNotification(channel, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

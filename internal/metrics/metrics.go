// Package metrics provides Prometheus collectors for the poll engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "naotimes"

// EngineMetrics holds the poll engine collectors.
type EngineMetrics struct {
	ActivePolls      prometheus.Gauge
	VotesTotal       *prometheus.CounterVec
	ResolutionsTotal *prometheus.CounterVec
	StoreErrors      prometheus.Counter
}

// NewEngineMetrics creates and registers the engine metrics on the given
// registry.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		ActivePolls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "polls",
			Name:      "active",
			Help:      "Number of polls currently tracked by the registry.",
		}),
		VotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "polls",
			Name:      "votes_total",
			Help:      "Total vote mutations, by result.",
		}, []string{"result"}),
		ResolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "polls",
			Name:      "resolutions_total",
			Help:      "Total resolved polls, by kind and decision.",
		}, []string{"kind", "decision"}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "polls",
			Name:      "store_errors_total",
			Help:      "Total snapshot store failures.",
		}),
	}

	reg.MustRegister(m.ActivePolls, m.VotesTotal, m.ResolutionsTotal, m.StoreErrors)
	return m
}

// Package metrics exposes Prometheus collectors for the balance engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry with the engine's collectors.
// It implements ledger.Recorder.
type Metrics struct {
	registry    *prometheus.Registry
	recomputes  *prometheus.CounterVec
	duration    prometheus.Histogram
	settlements prometheus.Counter
	edges       prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settleup_recompute_total",
			Help: "Balance recomputations by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "settleup_recompute_duration_seconds",
			Help:    "Time spent rebuilding a group's balance snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
		settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settleup_settlements_total",
			Help: "Settlements recorded.",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "settleup_balance_edges",
			Help: "Edges written by the most recent successful recompute.",
		}),
	}

	m.registry.MustRegister(
		m.recomputes,
		m.duration,
		m.settlements,
		m.edges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecomputeObserved records one recompute.
func (m *Metrics) RecomputeObserved(result string, elapsed time.Duration, edges int) {
	m.recomputes.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
	if result == "ok" {
		m.edges.Set(float64(edges))
	}
}

// SettlementRecorded counts one settlement.
func (m *Metrics) SettlementRecorded() {
	m.settlements.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

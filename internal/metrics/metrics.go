// Package metrics exposes engine activity as Prometheus metrics.
//
// Each Metrics value owns a private registry, so several engines (or
// tests) in one process never collide on registration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/mrqart/internal/engine"
	"github.com/roach88/mrqart/internal/journal"
)

const namespace = "mrqart"

// Metrics implements engine.Observer.
type Metrics struct {
	registry *prometheus.Registry

	frames   *prometheus.CounterVec
	events   *prometheus.CounterVec
	issued   prometheus.Counter
	pulls    *prometheus.CounterVec
	rebuilds prometheus.Counter
	inserted *prometheus.CounterVec
	queue    prometheus.Gauge
}

var _ engine.Observer = (*Metrics)(nil)

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Push frames handled, by verdict.",
		}, []string{"verdict"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Engine events handled, by kind and verdict.",
		}, []string{"kind", "verdict"}),
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pulls_issued_total",
			Help:      "Full-state pulls launched.",
		}),
		pulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pulls_total",
			Help:      "Full-state pulls completed, by outcome.",
		}, []string{"outcome"}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Views rebuilt from a full-state pull.",
		}),
		inserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_inserted_total",
			Help:      "Records rendered into a station view, by station.",
		}, []string{"station"}),
		queue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Events waiting in the engine queue.",
		}),
	}

	m.registry.MustRegister(m.frames, m.events, m.issued, m.pulls, m.rebuilds, m.inserted, m.queue)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EventHandled implements engine.Observer.
func (m *Metrics) EventHandled(kind engine.EventKind, verdict journal.Verdict) {
	m.events.WithLabelValues(kind.String(), string(verdict)).Inc()
	if kind == engine.EventFrame {
		m.frames.WithLabelValues(string(verdict)).Inc()
	}
}

// PullIssued implements engine.Observer.
func (m *Metrics) PullIssued() {
	m.issued.Inc()
}

// PullCompleted implements engine.Observer.
func (m *Metrics) PullCompleted(err error) {
	if err != nil {
		m.pulls.WithLabelValues("failed").Inc()
		return
	}
	m.pulls.WithLabelValues("ok").Inc()
}

// Rebuilt implements engine.Observer.
func (m *Metrics) Rebuilt(int) {
	m.rebuilds.Inc()
}

// RecordInserted implements engine.Observer.
func (m *Metrics) RecordInserted(station string) {
	m.inserted.WithLabelValues(station).Inc()
}

// QueueDepth implements engine.Observer.
func (m *Metrics) QueueDepth(n int) {
	m.queue.Set(float64(n))
}

// Package telemetry exposes prometheus collectors for constraint synchronization.
//
// A nil *Metrics is valid; every method is a no-op on a nil receiver so the
// engine can run without a registry.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jointsync"

type Metrics struct {
	created  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	removed  prometheus.Counter
	resyncs  prometheus.Counter
	registry prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		created: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joints_created_total",
			Help:      "Joints created in the bound world, by kind.",
		}, []string{"kind"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joints_skipped_total",
			Help:      "Joint descriptors skipped during initialization, by reason.",
		}, []string{"reason"}),
		removed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joints_removed_total",
			Help:      "Joints removed from the registry.",
		}),
		resyncs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resyncs_total",
			Help:      "Teardowns triggered by a scene or world change.",
		}),
		registry: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_joints",
			Help:      "Joints currently tracked by the registry.",
		}),
	}
}

func (m *Metrics) JointCreated(kind string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(kind).Inc()
}

func (m *Metrics) JointSkipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) JointRemoved() {
	if m == nil {
		return
	}
	m.removed.Inc()
}

func (m *Metrics) Resync() {
	if m == nil {
		return
	}
	m.resyncs.Inc()
}

func (m *Metrics) RegistrySize(n int) {
	if m == nil {
		return
	}
	m.registry.Set(float64(n))
}

// Handler serves the gathered metrics in the prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Package metrics defines the Prometheus collectors for roster broadcasts.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Broadcast results recorded on healing_broadcasts_total.
const (
	BroadcastApplied            = "applied"
	BroadcastRejectedValidation = "rejected_validation"
	BroadcastRejectedBusy       = "rejected_busy"
)

// Metrics holds all Prometheus metrics for the sync bridge
type Metrics struct {
	Broadcasts        *prometheus.CounterVec
	ModuleOutcomes    *prometheus.CounterVec
	BusDeliveries     prometheus.Counter
	RegisteredModules prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Broadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healing_broadcasts_total",
			Help: "Roster broadcasts by result",
		}, []string{"result"}),
		ModuleOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "healing_module_outcomes_total",
			Help: "Per-module delivery outcomes through registered handles",
		}, []string{"module", "outcome"}),
		BusDeliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "healing_bus_deliveries_total",
			Help: "Listener invocations performed by the broadcast bus",
		}),
		RegisteredModules: factory.NewGauge(prometheus.GaugeOpts{
			Name: "healing_registered_modules",
			Help: "Modules currently holding a registered handle",
		}),
	}
}

// ObserveBroadcast counts one broadcast attempt by result
func (m *Metrics) ObserveBroadcast(result string) {
	if m == nil {
		return
	}
	m.Broadcasts.WithLabelValues(result).Inc()
}

// ObserveOutcome counts one delivery to a registered module
func (m *Metrics) ObserveOutcome(moduleID, outcome string) {
	if m == nil {
		return
	}
	m.ModuleOutcomes.WithLabelValues(moduleID, outcome).Inc()
}

// AddBusDeliveries adds n listener invocations
func (m *Metrics) AddBusDeliveries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BusDeliveries.Add(float64(n))
}

// SetRegistered sets the number of modules holding a handle
func (m *Metrics) SetRegistered(n int) {
	if m == nil {
		return
	}
	m.RegisteredModules.Set(float64(n))
}

// Handler exposes the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics exposes the outcome of the last drift recompute pass.
type InventoryMetrics struct {
	drifted  prometheus.Gauge
	repaired prometheus.Counter
}

// NewInventoryMetrics registers the inventory drift metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	drifted := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inventory_drifted_items",
		Help:      "Items whose cached available count disagreed with the movement log on the last recompute.",
	})
	repaired := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_repaired_items_total",
		Help:      "Items whose available count was rewritten by a repair pass.",
	})
	reg.MustRegister(drifted, repaired)
	return &InventoryMetrics{drifted: drifted, repaired: repaired}
}

// ObserveRecompute records one recompute pass.
func (m *InventoryMetrics) ObserveRecompute(drifted, repaired int) {
	if m == nil || m.drifted == nil {
		return
	}
	m.drifted.Set(float64(drifted))
	m.repaired.Add(float64(repaired))
}

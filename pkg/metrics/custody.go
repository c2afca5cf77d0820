package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CustodyMetrics counts borrow/return transactions and the units they move.
type CustodyMetrics struct {
	transactions *prometheus.CounterVec
	units        *prometheus.CounterVec
}

// NewCustodyMetrics registers the custody metrics on the provided registerer.
func NewCustodyMetrics(reg prometheus.Registerer) *CustodyMetrics {
	if reg == nil {
		return &CustodyMetrics{}
	}
	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "custody_transactions_total",
		Help:      "Borrow/return transactions by action and outcome.",
	}, []string{"action", "outcome"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "custody_units_total",
		Help:      "Units moved by committed transactions.",
	}, []string{"action"})
	reg.MustRegister(transactions, units)
	return &CustodyMetrics{transactions: transactions, units: units}
}

// ObserveCommitted records a committed transaction of units.
func (c *CustodyMetrics) ObserveCommitted(action string, units int) {
	if c == nil || c.transactions == nil {
		return
	}
	c.transactions.WithLabelValues(normalizeLabel(action), "committed").Inc()
	c.units.WithLabelValues(normalizeLabel(action)).Add(float64(units))
}

// ObserveRejected records a rejected transaction under its error code.
func (c *CustodyMetrics) ObserveRejected(action, code string) {
	if c == nil || c.transactions == nil {
		return
	}
	c.transactions.WithLabelValues(normalizeLabel(action), normalizeLabel(code)).Inc()
}

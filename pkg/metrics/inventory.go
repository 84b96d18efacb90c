package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics counts committed stock movements and rejected requests.
type InventoryMetrics struct {
	movements *prometheus.CounterVec
	quantity  *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Stock ledger rows written, by reference type and direction.",
	}, []string{"ref_type", "direction"})
	quantity := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movement_quantity_total",
		Help: "Quantity moved through the stock ledger, by direction.",
	}, []string{"direction"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_operations_rejected_total",
		Help: "Stock operations rejected before any write, by error code.",
	}, []string{"operation", "code"})
	reg.MustRegister(movements, quantity, rejected)
	return &InventoryMetrics{movements: movements, quantity: quantity, rejected: rejected}
}

// ObserveMovement records one ledger row. direction is "in" or "out".
func (m *InventoryMetrics) ObserveMovement(refType, direction string, qty float64) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(refType), normalizeLabel(direction)).Inc()
	if qty > 0 {
		m.quantity.WithLabelValues(normalizeLabel(direction)).Add(qty)
	}
}

func (m *InventoryMetrics) IncRejected(operation, code string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

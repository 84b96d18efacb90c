package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestInventoryMetricsExportsMovements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewInventoryMetrics(reg)
	m.ObserveMovement("GRN", "in", 10)
	m.ObserveMovement("GRN", "in", 2.5)
	m.ObserveMovement("TRANSFER", "out", 4)
	m.IncRejected("deduct", "INSUFFICIENT_STOCK")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "stock_movements_total", "ref_type", "GRN"); err != nil || got != 2 {
		t.Fatalf("expected 2 GRN movements, got %v err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "stock_movement_quantity_total", "direction", "in"); err != nil || got != 12.5 {
		t.Fatalf("expected 12.5 quantity in, got %v err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "stock_operations_rejected_total", "code", "INSUFFICIENT_STOCK"); err != nil || got != 1 {
		t.Fatalf("expected one rejection, got %v err=%v", got, err)
	}
}

func TestProcurementMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewProcurementMetrics(reg)
	m.IncCreated("grn")
	m.IncCreated("grn")
	m.IncRejected("vendor_invoice", "OVER_INVOICE")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "procurement_documents_created_total", "kind", "grn"); err != nil || got != 2 {
		t.Fatalf("expected 2 grns, got %v err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "procurement_documents_rejected_total", "code", "OVER_INVOICE"); err != nil || got != 1 {
		t.Fatalf("expected one rejection, got %v err=%v", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var inv *InventoryMetrics
	inv.ObserveMovement("GRN", "in", 1)
	inv.IncRejected("add", "VALIDATION_ERROR")
	NewProcurementMetrics(nil).IncCreated("grn")
}

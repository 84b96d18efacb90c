package enums

import "testing"

func TestParseRoundTrips(t *testing.T) {
	if got, err := ParseStockRefType("MATERIAL_ISSUE"); err != nil || got != StockRefMaterialIssue {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
	if _, err := ParseStockRefType("material_issue"); err == nil {
		t.Fatalf("expected lowercase ref type to be rejected")
	}
	if got, err := ParsePurchaseOrderStatus("PARTIAL"); err != nil || got != PurchaseOrderStatusPartial {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
	if got, err := ParseInvoiceStatus("PAID"); err != nil || got != InvoiceStatusPaid {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
	if got, err := ParseReceiptType("DIRECT_CONSUME"); err != nil || got != ReceiptTypeDirectConsume {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
	if _, err := ParsePaymentMode("CRYPTO"); err == nil {
		t.Fatalf("expected unknown payment mode to be rejected")
	}
	if _, err := ParseWarehouseType("REGIONAL"); err == nil {
		t.Fatalf("expected unknown warehouse type to be rejected")
	}
}

func TestPurchaseOrderStatusIsTerminal(t *testing.T) {
	cases := map[PurchaseOrderStatus]bool{
		PurchaseOrderStatusOpen:      false,
		PurchaseOrderStatusPartial:   false,
		PurchaseOrderStatusClosed:    true,
		PurchaseOrderStatusCancelled: true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s terminal=%v, want %v", status, got, want)
		}
	}
}

func TestOutboxEnumsValidate(t *testing.T) {
	if !EventGrnPosted.IsValid() || OutboxEventType("order_created").IsValid() {
		t.Fatalf("unexpected event type validation")
	}
	if !AggregateVendorInvoice.IsValid() || OutboxAggregateType("vendor_order").IsValid() {
		t.Fatalf("unexpected aggregate validation")
	}
}

package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregatePurchaseOrder OutboxAggregateType = "purchase_order"
	AggregateGrn           OutboxAggregateType = "grn"
	AggregateVendorInvoice OutboxAggregateType = "vendor_invoice"
	AggregateStock         OutboxAggregateType = "stock"
	AggregateStockTransfer OutboxAggregateType = "stock_transfer"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePurchaseOrder,
	AggregateGrn,
	AggregateVendorInvoice,
	AggregateStock,
	AggregateStockTransfer,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventPurchaseOrderCreated       OutboxEventType = "purchase_order_created"
	EventPurchaseOrderStatusChanged OutboxEventType = "purchase_order_status_changed"
	EventGrnPosted                  OutboxEventType = "grn_posted"
	EventVendorInvoiceCreated       OutboxEventType = "vendor_invoice_created"
	EventVendorPaymentRecorded      OutboxEventType = "vendor_payment_recorded"
	EventStockTransferred           OutboxEventType = "stock_transferred"
	EventStockLedgerMismatch        OutboxEventType = "stock_ledger_mismatch"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPurchaseOrderCreated,
	EventPurchaseOrderStatusChanged,
	EventGrnPosted,
	EventVendorInvoiceCreated,
	EventVendorPaymentRecorded,
	EventStockTransferred,
	EventStockLedgerMismatch,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// PurchaseOrderCreatedEvent announces a new purchase order.
type PurchaseOrderCreatedEvent struct {
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	PONumber        string          `json:"po_number"`
	OrganizationID  uuid.UUID       `json:"organization_id"`
	ProjectID       *uuid.UUID      `json:"project_id,omitempty"`
	VendorID        uuid.UUID       `json:"vendor_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	LineCount       int             `json:"line_count"`
}

// PurchaseOrderStatusChangedEvent is emitted when a GRN or a cancellation moves the PO status.
type PurchaseOrderStatusChangedEvent struct {
	PurchaseOrderID uuid.UUID                 `json:"purchase_order_id"`
	PONumber        string                    `json:"po_number"`
	From            enums.PurchaseOrderStatus `json:"from"`
	To              enums.PurchaseOrderStatus `json:"to"`
	CausedBy        string                    `json:"caused_by"`
}

// GrnLine is one received line inside GrnPostedEvent.
type GrnLine struct {
	GrnItemID           uuid.UUID       `json:"grn_item_id"`
	PurchaseOrderItemID uuid.UUID       `json:"po_item_id"`
	ItemID              uuid.UUID       `json:"item_id"`
	Quantity            decimal.Decimal `json:"quantity"`
	Rate                decimal.Decimal `json:"rate"`
}

// GrnPostedEvent reports a committed goods receipt.
type GrnPostedEvent struct {
	GrnID           uuid.UUID         `json:"grn_id"`
	GrnNumber       string            `json:"grn_number"`
	PurchaseOrderID uuid.UUID         `json:"purchase_order_id"`
	VendorID        uuid.UUID         `json:"vendor_id"`
	ReceiptType     enums.ReceiptType `json:"receipt_type"`
	WarehouseID     *uuid.UUID        `json:"warehouse_id,omitempty"`
	ReceivedDate    time.Time         `json:"received_date"`
	Lines           []GrnLine         `json:"lines"`
}

// VendorInvoiceCreatedEvent reports a new payable.
type VendorInvoiceCreatedEvent struct {
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	GrnID           uuid.UUID       `json:"grn_id"`
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	VendorID        uuid.UUID       `json:"vendor_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
}

// VendorPaymentRecordedEvent reports a payment against an invoice and the invoice balance after it.
type VendorPaymentRecordedEvent struct {
	PaymentID     uuid.UUID           `json:"payment_id"`
	InvoiceID     uuid.UUID           `json:"invoice_id"`
	VendorID      uuid.UUID           `json:"vendor_id"`
	Amount        decimal.Decimal     `json:"amount"`
	PaymentMode   enums.PaymentMode   `json:"payment_mode"`
	PaidAmount    decimal.Decimal     `json:"paid_amount"`
	PendingAmount decimal.Decimal     `json:"pending_amount"`
	Status        enums.InvoiceStatus `json:"status"`
}

// StockTransferredEvent pairs the two ledger rows of a transfer.
type StockTransferredEvent struct {
	TransferID      uuid.UUID       `json:"transfer_id"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id"`
	ItemID          uuid.UUID       `json:"item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Rate            decimal.Decimal `json:"rate"`
}

// StockLedgerMismatchEvent flags a stock row whose ledger replay disagrees with the stored quantity.
type StockLedgerMismatchEvent struct {
	StockID          uuid.UUID       `json:"stock_id"`
	WarehouseID      uuid.UUID       `json:"warehouse_id"`
	ItemID           uuid.UUID       `json:"item_id"`
	StockQuantity    decimal.Decimal `json:"stock_quantity"`
	LedgerQuantity   decimal.Decimal `json:"ledger_quantity"`
	FirstBadSequence *int64          `json:"first_bad_sequence,omitempty"`
	DetectedAt       time.Time       `json:"detected_at"`
}

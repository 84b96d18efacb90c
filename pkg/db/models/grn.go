package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// Grn (goods receipt note) records physical receipt of goods against a purchase order.
type Grn struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	GrnNumber       string            `gorm:"column:grn_number;not null;uniqueIndex:ux_grns_grn_number"`
	PurchaseOrderID uuid.UUID         `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	VendorID        uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null"`
	ReceiptType     enums.ReceiptType `gorm:"column:receipt_type;type:text;not null"`
	WarehouseID     *uuid.UUID        `gorm:"column:warehouse_id;type:uuid"`
	Status          enums.GrnStatus   `gorm:"column:status;type:text;not null;index:idx_grns_status"`
	ReceivedDate    time.Time         `gorm:"column:received_date;not null"`
	Remarks         *string           `gorm:"column:remarks"`
	CreatedBy       string            `gorm:"column:created_by;not null"`
	UpdatedBy       string            `gorm:"column:updated_by;not null"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Items           []GrnItem         `gorm:"foreignKey:GrnID"`
}

func (g *Grn) BeforeCreate(*gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

// GrnItem is one received line; QuantityInvoiced is the running total billed by vendor invoices.
type GrnItem struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	GrnID               uuid.UUID       `gorm:"column:grn_id;type:uuid;not null;index"`
	PurchaseOrderItemID uuid.UUID       `gorm:"column:po_item_id;type:uuid;not null;index"`
	ItemID              uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	QuantityReceived    decimal.Decimal `gorm:"column:quantity_received;type:decimal(20,4);not null"`
	QuantityInvoiced    decimal.Decimal `gorm:"column:quantity_invoiced;type:decimal(20,4);not null;default:0"`
	Rate                decimal.Decimal `gorm:"column:rate;type:decimal(20,4);not null;default:0"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *GrnItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// PendingInvoiceQuantity is what may still be invoiced against the line.
func (i GrnItem) PendingInvoiceQuantity() decimal.Decimal {
	pending := i.QuantityReceived.Sub(i.QuantityInvoiced)
	if pending.IsNegative() {
		return decimal.Zero
	}
	return pending
}

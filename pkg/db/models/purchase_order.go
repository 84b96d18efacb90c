package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// PurchaseOrder is the vendor commitment that goods receipts are posted against.
type PurchaseOrder struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	PONumber       string                    `gorm:"column:po_number;not null;uniqueIndex:ux_purchase_orders_po_number"`
	OrganizationID uuid.UUID                 `gorm:"column:organization_id;type:uuid;not null"`
	ProjectID      *uuid.UUID                `gorm:"column:project_id;type:uuid"`
	VendorID       uuid.UUID                 `gorm:"column:vendor_id;type:uuid;not null;index:idx_purchase_orders_vendor"`
	PODate         time.Time                 `gorm:"column:po_date;not null"`
	TotalAmount    decimal.Decimal           `gorm:"column:total_amount;type:decimal(20,2);not null;default:0"`
	Status         enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;index:idx_purchase_orders_status"`
	Remarks        *string                   `gorm:"column:remarks"`
	CreatedBy      string                    `gorm:"column:created_by;not null"`
	UpdatedBy      string                    `gorm:"column:updated_by;not null"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
	Items          []PurchaseOrderItem       `gorm:"foreignKey:PurchaseOrderID"`
}

func (p *PurchaseOrder) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// PurchaseOrderItem is one ordered line; ReceivedQuantity and InvoicedQuantity are
// running totals maintained by GRN and invoice posting.
type PurchaseOrderItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseOrderID  uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	ItemID           uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	Quantity         decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null"`
	Rate             decimal.Decimal `gorm:"column:rate;type:decimal(20,4);not null;default:0"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null;default:0"`
	ReceivedQuantity decimal.Decimal `gorm:"column:received_quantity;type:decimal(20,4);not null;default:0"`
	InvoicedQuantity decimal.Decimal `gorm:"column:invoiced_quantity;type:decimal(20,4);not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *PurchaseOrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// PendingQuantity is what may still be received against the line.
func (i PurchaseOrderItem) PendingQuantity() decimal.Decimal {
	pending := i.Quantity.Sub(i.ReceivedQuantity)
	if pending.IsNegative() {
		return decimal.Zero
	}
	return pending
}

package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// ErrPaymentImmutable is returned when code tries to edit or delete a recorded payment.
var ErrPaymentImmutable = errors.New("vendor payments are immutable")

// VendorInvoice bills received goods; PendingAmount is kept equal to TotalAmount - PaidAmount, floored at zero.
type VendorInvoice struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceNumber    string              `gorm:"column:invoice_number;not null;uniqueIndex:ux_vendor_invoices_invoice_number"`
	GrnID            uuid.UUID           `gorm:"column:grn_id;type:uuid;not null;index"`
	PurchaseOrderID  uuid.UUID           `gorm:"column:purchase_order_id;type:uuid;not null"`
	VendorID         uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index:idx_vendor_invoices_vendor"`
	VendorInvoiceRef *string             `gorm:"column:vendor_invoice_ref"`
	TotalAmount      decimal.Decimal     `gorm:"column:total_amount;type:decimal(20,2);not null;default:0"`
	PaidAmount       decimal.Decimal     `gorm:"column:paid_amount;type:decimal(20,2);not null;default:0"`
	PendingAmount    decimal.Decimal     `gorm:"column:pending_amount;type:decimal(20,2);not null;default:0"`
	Status           enums.InvoiceStatus `gorm:"column:status;type:text;not null;index:idx_vendor_invoices_status"`
	InvoiceDate      time.Time           `gorm:"column:invoice_date;not null"`
	DueDate          *time.Time          `gorm:"column:due_date"`
	Remarks          *string             `gorm:"column:remarks"`
	CreatedBy        string              `gorm:"column:created_by;not null"`
	UpdatedBy        string              `gorm:"column:updated_by;not null"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Items            []VendorInvoiceItem `gorm:"foreignKey:VendorInvoiceID"`
}

func (v *VendorInvoice) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

type VendorInvoiceItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	VendorInvoiceID uuid.UUID       `gorm:"column:vendor_invoice_id;type:uuid;not null;index"`
	GrnItemID       uuid.UUID       `gorm:"column:grn_item_id;type:uuid;not null;index"`
	ItemID          uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null"`
	Rate            decimal.Decimal `gorm:"column:rate;type:decimal(20,4);not null;default:0"`
	Amount          decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *VendorInvoiceItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// VendorPaymentPO is a payment recorded against a vendor invoice. Payments are only ever added.
type VendorPaymentPO struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	VendorInvoiceID uuid.UUID         `gorm:"column:vendor_invoice_id;type:uuid;not null;index"`
	VendorID        uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	Amount          decimal.Decimal   `gorm:"column:amount;type:decimal(20,2);not null"`
	PaymentMode     enums.PaymentMode `gorm:"column:payment_mode;type:text;not null"`
	ReferenceNumber *string           `gorm:"column:reference_number"`
	PaymentDate     time.Time         `gorm:"column:payment_date;not null"`
	Remarks         *string           `gorm:"column:remarks"`
	CreatedBy       string            `gorm:"column:created_by;not null"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (VendorPaymentPO) TableName() string { return "vendor_payments" }

func (p *VendorPaymentPO) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p *VendorPaymentPO) BeforeUpdate(*gorm.DB) error {
	return ErrPaymentImmutable
}

func (p *VendorPaymentPO) BeforeDelete(*gorm.DB) error {
	return ErrPaymentImmutable
}

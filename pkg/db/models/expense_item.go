package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseItem is a line of an externally owned expense. Lines flagged StockEffect
// with a warehouse are posted into stock as direct purchases.
type ExpenseItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ExpenseID   uuid.UUID       `gorm:"column:expense_id;type:uuid;not null;index"`
	ItemID      *uuid.UUID      `gorm:"column:item_id;type:uuid"`
	Description string          `gorm:"column:description;not null"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null;default:0"`
	Rate        decimal.Decimal `gorm:"column:rate;type:decimal(20,4);not null;default:0"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null;default:0"`
	StockEffect bool            `gorm:"column:stock_effect;not null"`
	WarehouseID *uuid.UUID      `gorm:"column:warehouse_id;type:uuid"`
	CreatedBy   string          `gorm:"column:created_by;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (e *ExpenseItem) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

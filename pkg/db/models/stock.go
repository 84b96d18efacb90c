package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stock is the current balance of one item in one warehouse.
type Stock struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	WarehouseID      uuid.UUID       `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:ux_stocks_warehouse_item,priority:1"`
	ItemID           uuid.UUID       `gorm:"column:item_id;type:uuid;not null;uniqueIndex:ux_stocks_warehouse_item,priority:2;index:idx_stocks_item"`
	Quantity         decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null;default:0"`
	ReservedQuantity decimal.Decimal `gorm:"column:reserved_quantity;type:decimal(20,4);not null;default:0"`
	AvgRate          decimal.Decimal `gorm:"column:avg_rate;type:decimal(20,4);not null;default:0"`
	// LedgerSeq is the sequence of the last ledger row written for this pair.
	LedgerSeq int64     `gorm:"column:ledger_seq;not null;default:0"`
	CreatedBy string    `gorm:"column:created_by;not null"`
	UpdatedBy string    `gorm:"column:updated_by;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Stock) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Available returns the available-to-promise quantity.
func (s Stock) Available() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}

// TotalValue values the on-hand quantity at the weighted-average rate.
func (s Stock) TotalValue() decimal.Decimal {
	return s.Quantity.Mul(s.AvgRate).Round(2)
}

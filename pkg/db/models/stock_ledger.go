package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// ErrLedgerImmutable is returned when code tries to update or delete a ledger row.
var ErrLedgerImmutable = errors.New("stock ledger rows are immutable")

// StockLedger is one append-only quantity movement for a (warehouse, item) pair.
type StockLedger struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	WarehouseID  uuid.UUID          `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:ux_stock_ledgers_pair_seq,priority:1"`
	ItemID       uuid.UUID          `gorm:"column:item_id;type:uuid;not null;uniqueIndex:ux_stock_ledgers_pair_seq,priority:2"`
	Sequence     int64              `gorm:"column:sequence;not null;uniqueIndex:ux_stock_ledgers_pair_seq,priority:3"`
	RefType      enums.StockRefType `gorm:"column:ref_type;type:text;not null;index:idx_stock_ledgers_ref,priority:1"`
	RefID        uuid.UUID          `gorm:"column:ref_id;type:uuid;not null;index:idx_stock_ledgers_ref,priority:2"`
	TxnDate      time.Time          `gorm:"column:txn_date;not null"`
	QtyIn        decimal.Decimal    `gorm:"column:qty_in;type:decimal(20,4);not null;default:0"`
	QtyOut       decimal.Decimal    `gorm:"column:qty_out;type:decimal(20,4);not null;default:0"`
	BalanceAfter decimal.Decimal    `gorm:"column:balance_after;type:decimal(20,4);not null"`
	Rate         decimal.Decimal    `gorm:"column:rate;type:decimal(20,4);not null;default:0"`
	Amount       decimal.Decimal    `gorm:"column:amount;type:decimal(20,2);not null;default:0"`
	Remarks      *string            `gorm:"column:remarks"`
	ProjectID    *uuid.UUID         `gorm:"column:project_id;type:uuid"`
	CreatedBy    string             `gorm:"column:created_by;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (l *StockLedger) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

func (l *StockLedger) BeforeUpdate(*gorm.DB) error {
	return ErrLedgerImmutable
}

func (l *StockLedger) BeforeDelete(*gorm.DB) error {
	return ErrLedgerImmutable
}

// Movement returns the signed quantity change of the row.
func (l StockLedger) Movement() decimal.Decimal {
	return l.QtyIn.Sub(l.QtyOut)
}

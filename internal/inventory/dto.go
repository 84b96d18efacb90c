package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// AddStockInput describes a receipt into a warehouse.
type AddStockInput struct {
	WarehouseID uuid.UUID
	ItemID      uuid.UUID
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	RefType     enums.StockRefType
	RefID       uuid.UUID
	Remarks     *string
	ProjectID   *uuid.UUID
	Actor       string
}

// DeductStockInput describes an issue out of a warehouse at the current average rate.
type DeductStockInput struct {
	WarehouseID uuid.UUID
	ItemID      uuid.UUID
	Quantity    decimal.Decimal
	RefType     enums.StockRefType
	RefID       uuid.UUID
	Remarks     *string
	ProjectID   *uuid.UUID
	Actor       string
}

type TransferStockInput struct {
	FromWarehouseID uuid.UUID
	ToWarehouseID   uuid.UUID
	ItemID          uuid.UUID
	Quantity        decimal.Decimal
	// RefID groups both ledger rows; a new id is generated when empty.
	RefID   uuid.UUID
	Remarks *string
	Actor   string
}

type AdjustStockInput struct {
	WarehouseID uuid.UUID
	ItemID      uuid.UUID
	Quantity    decimal.Decimal
	Increase    bool
	Remarks     *string
	Actor       string
}

// ReservationInput is shared by reserve and release.
type ReservationInput struct {
	WarehouseID uuid.UUID
	ItemID      uuid.UUID
	Quantity    decimal.Decimal
	Actor       string
}

// Movement is the stock row after a movement together with the ledger row it wrote.
type Movement struct {
	Stock  models.Stock       `json:"stock"`
	Ledger models.StockLedger `json:"ledger"`
}

type TransferResult struct {
	TransferID uuid.UUID `json:"transferId"`
	Out        Movement  `json:"out"`
	In         Movement  `json:"in"`
}

// StockView is the read model exposed to callers.
type StockView struct {
	WarehouseID      uuid.UUID       `json:"warehouseId"`
	ItemID           uuid.UUID       `json:"itemId"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reservedQuantity"`
	Available        decimal.Decimal `json:"available"`
	AvgRate          decimal.Decimal `json:"avgRate"`
	TotalValue       decimal.Decimal `json:"totalValue"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func viewOf(stock models.Stock) StockView {
	return StockView{
		WarehouseID:      stock.WarehouseID,
		ItemID:           stock.ItemID,
		Quantity:         stock.Quantity,
		ReservedQuantity: stock.ReservedQuantity,
		Available:        stock.Available(),
		AvgRate:          stock.AvgRate,
		TotalValue:       stock.TotalValue(),
		UpdatedAt:        stock.UpdatedAt,
	}
}

func viewsOf(rows []models.Stock) []StockView {
	views := make([]StockView, 0, len(rows))
	for _, row := range rows {
		views = append(views, viewOf(row))
	}
	return views
}

// WarehouseSummary values every stocked item of one warehouse.
type WarehouseSummary struct {
	WarehouseID uuid.UUID       `json:"warehouseId"`
	ItemCount   int             `json:"itemCount"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Items       []StockView     `json:"items"`
}

// ItemTotal aggregates one item across all warehouses.
type ItemTotal struct {
	ItemID           uuid.UUID       `json:"itemId"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reservedQuantity"`
	Available        decimal.Decimal `json:"available"`
	Warehouses       int             `json:"warehouses"`
}

// LedgerVerification is the result of replaying a pair's ledger against its stock row.
type LedgerVerification struct {
	StockID          uuid.UUID       `json:"stockId"`
	WarehouseID      uuid.UUID       `json:"warehouseId"`
	ItemID           uuid.UUID       `json:"itemId"`
	StockQuantity    decimal.Decimal `json:"stockQuantity"`
	LedgerQuantity   decimal.Decimal `json:"ledgerQuantity"`
	Rows             int             `json:"rows"`
	FirstBadSequence *int64          `json:"firstBadSequence,omitempty"`
	Matches          bool            `json:"matches"`
}

// Package integration connects procurement documents and expenses to the inventory engine.
package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/internal/inventory"
	"github.com/angelmondragon/estateerp-backend/internal/ledger"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/lock"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

const defaultExpenseLockTTL = 30 * time.Second

type IssueMaterialInput struct {
	WarehouseID uuid.UUID
	ItemID      uuid.UUID
	Quantity    decimal.Decimal
	ProjectID   *uuid.UUID
	Remarks     *string
	Actor       string
}

type IssueResult struct {
	IssueID  uuid.UUID          `json:"issueId"`
	Movement inventory.Movement `json:"movement"`
}

type ExpenseItemInput struct {
	ItemID      *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	StockEffect bool
	WarehouseID *uuid.UUID
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type AdapterParams struct {
	Inventory inventory.Service
	Ledger    ledger.Repository
	Expenses  ExpenseRepository
	DB        txRunner
	// Locker serializes reprocessing of one expense; nil runs unlocked.
	Locker  lock.Locker
	LockTTL time.Duration
	Logger  *logger.Logger
}

// Adapter is the only path by which documents outside the inventory package move stock.
type Adapter struct {
	inventory inventory.Service
	ledger    ledger.Repository
	expenses  ExpenseRepository
	db        txRunner
	locker    lock.Locker
	lockTTL   time.Duration
	logg      *logger.Logger
}

func NewAdapter(params AdapterParams) (*Adapter, error) {
	switch {
	case params.Inventory == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory service is required")
	case params.Ledger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger repository is required")
	case params.Expenses == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expense repository is required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	ttl := params.LockTTL
	if ttl <= 0 {
		ttl = defaultExpenseLockTTL
	}
	return &Adapter{
		inventory: params.Inventory,
		ledger:    params.Ledger,
		expenses:  params.Expenses,
		db:        params.DB,
		locker:    params.Locker,
		lockTTL:   ttl,
		logg:      logg,
	}, nil
}

// ProcessGrnApproval receives every line of a warehouse-stock GRN into its warehouse at the PO rate.
// Direct-consume receipts never touch stock.
func (a *Adapter) ProcessGrnApproval(ctx context.Context, tx *gorm.DB, grn *models.Grn, actor string) ([]inventory.Movement, error) {
	if grn == nil || grn.ReceiptType != enums.ReceiptTypeWarehouseStock {
		return nil, nil
	}
	if grn.WarehouseID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse stock receipt has no warehouse").WithDetails(map[string]any{"grnId": grn.ID})
	}
	remarks := "GRN " + grn.GrnNumber
	movements := make([]inventory.Movement, 0, len(grn.Items))
	for _, item := range grn.Items {
		movement, err := a.inventory.AddStockTx(ctx, tx, inventory.AddStockInput{
			WarehouseID: *grn.WarehouseID,
			ItemID:      item.ItemID,
			Quantity:    item.QuantityReceived,
			Rate:        item.Rate,
			RefType:     enums.StockRefGRN,
			RefID:       grn.ID,
			Remarks:     &remarks,
			Actor:       actor,
		})
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	return movements, nil
}

func (a *Adapter) RecordCommitted(ctx context.Context, movements ...inventory.Movement) {
	a.inventory.RecordCommitted(ctx, movements...)
}

// IssueMaterial issues stock to a project site; the project is recorded on the ledger row.
func (a *Adapter) IssueMaterial(ctx context.Context, input IssueMaterialInput) (*IssueResult, error) {
	issueID := uuid.New()
	movement, err := a.inventory.DeductStock(ctx, inventory.DeductStockInput{
		WarehouseID: input.WarehouseID,
		ItemID:      input.ItemID,
		Quantity:    input.Quantity,
		RefType:     enums.StockRefMaterialIssue,
		RefID:       issueID,
		Remarks:     input.Remarks,
		ProjectID:   input.ProjectID,
		Actor:       input.Actor,
	})
	if err != nil {
		return nil, err
	}
	return &IssueResult{IssueID: issueID, Movement: movement}, nil
}

// ProcessExpenseItems replaces the expense's lines and receives stock-effect lines as direct purchases.
// An expense whose lines already moved stock cannot be reprocessed.
func (a *Adapter) ProcessExpenseItems(ctx context.Context, expenseID uuid.UUID, lines []ExpenseItemInput, actor string) ([]models.ExpenseItem, error) {
	if expenseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expense id is required")
	}
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	rows, err := buildExpenseRows(expenseID, lines, actor)
	if err != nil {
		return nil, err
	}

	var movements []inventory.Movement
	key := fmt.Sprintf("expense:%s", expenseID)
	err = lock.With(ctx, a.locker, key, a.lockTTL, func(ctx context.Context) error {
		return a.db.WithTx(ctx, func(tx *gorm.DB) error {
			posted, err := a.ledger.WithTx(tx).ListByRef(ctx, enums.StockRefDirectExpensePurchase, expenseID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense stock postings")
			}
			if len(posted) > 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "expense already posted stock and cannot be reprocessed").
					WithDetails(map[string]any{"expenseId": expenseID, "ledgerRows": len(posted)})
			}
			if err := a.expenses.WithTx(tx).Replace(ctx, expenseID, rows); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace expense items")
			}
			for _, row := range rows {
				if !row.StockEffect || row.WarehouseID == nil {
					continue
				}
				remarks := row.Description
				movement, err := a.inventory.AddStockTx(ctx, tx, inventory.AddStockInput{
					WarehouseID: *row.WarehouseID,
					ItemID:      *row.ItemID,
					Quantity:    row.Quantity,
					Rate:        row.Rate,
					RefType:     enums.StockRefDirectExpensePurchase,
					RefID:       expenseID,
					Remarks:     &remarks,
					Actor:       actor,
				})
				if err != nil {
					return err
				}
				movements = append(movements, movement)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	a.inventory.RecordCommitted(ctx, movements...)
	logCtx := a.logg.WithFields(a.logg.WithActor(ctx, actor), map[string]any{
		"expense_id":      expenseID.String(),
		"lines":           len(rows),
		"stock_movements": len(movements),
	})
	a.logg.Info(logCtx, "expense.items_processed")
	return rows, nil
}

func (a *Adapter) ExpenseItems(ctx context.Context, expenseID uuid.UUID) ([]models.ExpenseItem, error) {
	if expenseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expense id is required")
	}
	rows, err := a.expenses.ListByExpense(ctx, expenseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expense items")
	}
	return rows, nil
}

func (a *Adapter) StockByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]inventory.StockView, error) {
	return a.inventory.StockByWarehouse(ctx, warehouseID)
}

func (a *Adapter) StockByItem(ctx context.Context, itemID uuid.UUID) ([]inventory.StockView, error) {
	return a.inventory.StockByItem(ctx, itemID)
}

func (a *Adapter) AvailableStock(ctx context.Context, warehouseID, itemID uuid.UUID) (decimal.Decimal, error) {
	return a.inventory.AvailableStock(ctx, warehouseID, itemID)
}

func (a *Adapter) LowStock(ctx context.Context, warehouseID uuid.UUID, threshold *decimal.Decimal) ([]inventory.StockView, error) {
	return a.inventory.LowStock(ctx, warehouseID, threshold)
}

func (a *Adapter) Summary(ctx context.Context, warehouseID uuid.UUID) (inventory.WarehouseSummary, error) {
	return a.inventory.Summary(ctx, warehouseID)
}

func buildExpenseRows(expenseID uuid.UUID, lines []ExpenseItemInput, actor string) ([]models.ExpenseItem, error) {
	rows := make([]models.ExpenseItem, 0, len(lines))
	for i, line := range lines {
		details := map[string]any{"line": i}
		description := strings.TrimSpace(line.Description)
		switch {
		case description == "":
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required").WithDetails(details)
		case !line.Quantity.IsPositive():
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").WithDetails(details)
		case line.Rate.IsNegative():
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate cannot be negative").WithDetails(details)
		case line.StockEffect && (line.ItemID == nil || *line.ItemID == uuid.Nil):
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock-effect lines need an item id").WithDetails(details)
		}
		rows = append(rows, models.ExpenseItem{
			ExpenseID:   expenseID,
			ItemID:      line.ItemID,
			Description: description,
			Quantity:    line.Quantity,
			Rate:        line.Rate,
			Amount:      line.Quantity.Mul(line.Rate).Round(2),
			StockEffect: line.StockEffect,
			WarehouseID: line.WarehouseID,
			CreatedBy:   actor,
		})
	}
	return rows, nil
}

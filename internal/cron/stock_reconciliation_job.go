package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/internal/inventory"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox/payloads"
)

const defaultReconcilePageSize = 200

type ledgerVerifier interface {
	ListStocksAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Stock, error)
	VerifyLedger(ctx context.Context, warehouseID, itemID uuid.UUID) (inventory.LedgerVerification, error)
}

type mismatchEmitter interface {
	EmitIfNotPending(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error)
}

type StockReconciliationJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Stock    ledgerVerifier
	Outbox   mismatchEmitter
	PageSize int
}

type stockReconciliationJob struct {
	logg     *logger.Logger
	db       txRunner
	stock    ledgerVerifier
	outbox   mismatchEmitter
	pageSize int
	now      func() time.Time
}

// NewStockReconciliationJob replays the ledger of every stock row and flags rows whose history disagrees
// with the stored quantity.
func NewStockReconciliationJob(params StockReconciliationJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Stock == nil:
		return nil, fmt.Errorf("stock verifier required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox required")
	}
	size := params.PageSize
	if size <= 0 {
		size = defaultReconcilePageSize
	}
	return &stockReconciliationJob{
		logg:     params.Logger,
		db:       params.DB,
		stock:    params.Stock,
		outbox:   params.Outbox,
		pageSize: size,
		now:      time.Now,
	}, nil
}

func (j *stockReconciliationJob) Name() string { return "stock-ledger-reconciliation" }

func (j *stockReconciliationJob) Run(ctx context.Context) error {
	var (
		errs       error
		checked    int
		mismatches int
		after      uuid.UUID
	)
	for {
		page, err := j.stock.ListStocksAfter(ctx, after, j.pageSize)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("page stock rows after %s: %w", after, err))
		}
		for _, stock := range page {
			checked++
			result, err := j.stock.VerifyLedger(ctx, stock.WarehouseID, stock.ItemID)
			if err == nil {
				continue
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				errs = multierr.Append(errs, fmt.Errorf("verify stock %s: %w", stock.ID, err))
				continue
			}
			mismatches++
			if err := j.flag(ctx, result); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("flag stock %s: %w", stock.ID, err))
			}
		}
		if len(page) < j.pageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"stock_rows": checked,
		"mismatches": mismatches,
	}), "stock ledger reconciliation complete")
	if mismatches > 0 {
		errs = multierr.Append(errs, fmt.Errorf("%d stock rows disagree with their ledger", mismatches))
	}
	return errs
}

func (j *stockReconciliationJob) flag(ctx context.Context, result inventory.LedgerVerification) error {
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stock_id":        result.StockID.String(),
		"warehouse_id":    result.WarehouseID.String(),
		"item_id":         result.ItemID.String(),
		"stock_quantity":  result.StockQuantity.String(),
		"ledger_quantity": result.LedgerQuantity.String(),
	})
	j.logg.Warn(logCtx, "stock.ledger_mismatch")
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := j.outbox.EmitIfNotPending(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockLedgerMismatch,
			AggregateType: enums.AggregateStock,
			AggregateID:   result.StockID,
			Data: payloads.StockLedgerMismatchEvent{
				StockID:          result.StockID,
				WarehouseID:      result.WarehouseID,
				ItemID:           result.ItemID,
				StockQuantity:    result.StockQuantity,
				LedgerQuantity:   result.LedgerQuantity,
				FirstBadSequence: result.FirstBadSequence,
				DetectedAt:       j.now().UTC(),
			},
		})
		return err
	})
}

package inventory

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/internal/items"
	"github.com/angelmondragon/estateerp-backend/internal/ledger"
	"github.com/angelmondragon/estateerp-backend/internal/warehouses"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
	"github.com/angelmondragon/estateerp-backend/pkg/metrics"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox/payloads"
)

const (
	directionIn  = "in"
	directionOut = "out"
)

// Service is the only writer of stock rows and stock ledger rows.
//
// The *Tx variants run inside a caller's transaction and return the movement they wrote;
// the caller passes those movements to RecordCommitted once its transaction commits.
type Service interface {
	AddStock(ctx context.Context, input AddStockInput) (Movement, error)
	AddStockTx(ctx context.Context, tx *gorm.DB, input AddStockInput) (Movement, error)
	DeductStock(ctx context.Context, input DeductStockInput) (Movement, error)
	DeductStockTx(ctx context.Context, tx *gorm.DB, input DeductStockInput) (Movement, error)
	TransferStock(ctx context.Context, input TransferStockInput) (TransferResult, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (Movement, error)
	ReserveStock(ctx context.Context, input ReservationInput) (StockView, error)
	ReleaseReservedStock(ctx context.Context, input ReservationInput) (StockView, error)
	RecordCommitted(ctx context.Context, movements ...Movement)

	GetStock(ctx context.Context, warehouseID, itemID uuid.UUID) (StockView, error)
	StockByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]StockView, error)
	StockByItem(ctx context.Context, itemID uuid.UUID) ([]StockView, error)
	AvailableStock(ctx context.Context, warehouseID, itemID uuid.UUID) (decimal.Decimal, error)
	LowStock(ctx context.Context, warehouseID uuid.UUID, threshold *decimal.Decimal) ([]StockView, error)
	ItemTotal(ctx context.Context, itemID uuid.UUID) (ItemTotal, error)
	Summary(ctx context.Context, warehouseID uuid.UUID) (WarehouseSummary, error)

	VerifyLedger(ctx context.Context, warehouseID, itemID uuid.UUID) (LedgerVerification, error)
	ListStocksAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Stock, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the engine. Outbox and Metrics are optional.
type ServiceParams struct {
	Repo              Repository
	Ledger            ledger.Repository
	Warehouses        warehouses.Repository
	Items             items.Lookup
	DB                txRunner
	Outbox            outbox.Emitter
	Metrics           *metrics.InventoryMetrics
	Logger            *logger.Logger
	LowStockThreshold decimal.Decimal
	Clock             func() time.Time
}

type service struct {
	repo         Repository
	ledger       ledger.Repository
	warehouses   warehouses.Repository
	items        items.Lookup
	db           txRunner
	outbox       outbox.Emitter
	metrics      *metrics.InventoryMetrics
	logg         *logger.Logger
	lowThreshold decimal.Decimal
	now          func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock repository is required")
	case params.Ledger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger repository is required")
	case params.Warehouses == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse repository is required")
	case params.Items == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item lookup is required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:         params.Repo,
		ledger:       params.Ledger,
		warehouses:   params.Warehouses,
		items:        params.Items,
		db:           params.DB,
		outbox:       params.Outbox,
		metrics:      params.Metrics,
		logg:         logg,
		lowThreshold: params.LowStockThreshold,
		now:          clock,
	}, nil
}

func (s *service) AddStock(ctx context.Context, input AddStockInput) (Movement, error) {
	var movement Movement
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		movement, err = s.AddStockTx(ctx, tx, input)
		return err
	})
	if err != nil {
		s.rejected("add", err)
		return Movement{}, err
	}
	s.RecordCommitted(ctx, movement)
	return movement, nil
}

func (s *service) AddStockTx(ctx context.Context, tx *gorm.DB, input AddStockInput) (Movement, error) {
	if err := validateAdd(input); err != nil {
		return Movement{}, err
	}
	return s.receive(ctx, tx, receipt{
		warehouseID: input.WarehouseID,
		itemID:      input.ItemID,
		quantity:    input.Quantity,
		rate:        &input.Rate,
		refType:     input.RefType,
		refID:       input.RefID,
		remarks:     input.Remarks,
		projectID:   input.ProjectID,
		actor:       input.Actor,
	})
}

func (s *service) DeductStock(ctx context.Context, input DeductStockInput) (Movement, error) {
	var movement Movement
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		movement, err = s.DeductStockTx(ctx, tx, input)
		return err
	})
	if err != nil {
		s.rejected("deduct", err)
		return Movement{}, err
	}
	s.RecordCommitted(ctx, movement)
	return movement, nil
}

func (s *service) DeductStockTx(ctx context.Context, tx *gorm.DB, input DeductStockInput) (Movement, error) {
	if err := validateDeduct(input); err != nil {
		return Movement{}, err
	}
	stock, err := s.lockExisting(ctx, s.repo.WithTx(tx), input.WarehouseID, input.ItemID)
	if err != nil {
		return Movement{}, err
	}
	row, err := s.issue(ctx, tx, stock, issueLine{
		quantity:  input.Quantity,
		refType:   input.RefType,
		refID:     input.RefID,
		remarks:   input.Remarks,
		projectID: input.ProjectID,
		actor:     input.Actor,
	})
	if err != nil {
		return Movement{}, err
	}
	return Movement{Stock: *stock, Ledger: row}, nil
}

func (s *service) TransferStock(ctx context.Context, input TransferStockInput) (TransferResult, error) {
	switch {
	case input.FromWarehouseID == uuid.Nil || input.ToWarehouseID == uuid.Nil:
		return TransferResult{}, s.reject("transfer", pkgerrors.New(pkgerrors.CodeValidation, "source and destination warehouses are required"))
	case input.FromWarehouseID == input.ToWarehouseID:
		return TransferResult{}, s.reject("transfer", pkgerrors.New(pkgerrors.CodeValidation, "source and destination warehouses must differ"))
	case input.ItemID == uuid.Nil:
		return TransferResult{}, s.reject("transfer", pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
	case !input.Quantity.IsPositive():
		return TransferResult{}, s.reject("transfer", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero"))
	case strings.TrimSpace(input.Actor) == "":
		return TransferResult{}, s.reject("transfer", pkgerrors.New(pkgerrors.CodeValidation, "actor is required"))
	}
	transferID := input.RefID
	if transferID == uuid.Nil {
		transferID = uuid.New()
	}

	var result TransferResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureReceivable(ctx, tx, input.ToWarehouseID, input.ItemID); err != nil {
			return err
		}

		// Lock both rows in warehouse id order so opposite transfers cannot deadlock.
		var source, destination *models.Stock
		var err error
		if bytes.Compare(input.FromWarehouseID[:], input.ToWarehouseID[:]) < 0 {
			if source, err = s.lockExisting(ctx, repo, input.FromWarehouseID, input.ItemID); err != nil {
				return err
			}
			if destination, err = s.lockOrCreate(ctx, repo, input.ToWarehouseID, input.ItemID, input.Actor); err != nil {
				return err
			}
		} else {
			if destination, err = s.lockOrCreate(ctx, repo, input.ToWarehouseID, input.ItemID, input.Actor); err != nil {
				return err
			}
			if source, err = s.lockExisting(ctx, repo, input.FromWarehouseID, input.ItemID); err != nil {
				return err
			}
		}

		rate := source.AvgRate
		outRow, err := s.issue(ctx, tx, source, issueLine{
			quantity: input.Quantity,
			refType:  enums.StockRefTransfer,
			refID:    transferID,
			remarks:  input.Remarks,
			actor:    input.Actor,
		})
		if err != nil {
			return err
		}
		inRow, err := s.credit(ctx, tx, destination, input.Quantity, rate, receipt{
			refType: enums.StockRefTransfer,
			refID:   transferID,
			remarks: input.Remarks,
			actor:   input.Actor,
		})
		if err != nil {
			return err
		}

		result = TransferResult{
			TransferID: transferID,
			Out:        Movement{Stock: *source, Ledger: outRow},
			In:         Movement{Stock: *destination, Ledger: inRow},
		}
		if s.outbox == nil {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockTransferred,
			AggregateType: enums.AggregateStockTransfer,
			AggregateID:   transferID,
			Actor:         &outbox.ActorRef{Actor: input.Actor},
			Data: payloads.StockTransferredEvent{
				TransferID:      transferID,
				FromWarehouseID: input.FromWarehouseID,
				ToWarehouseID:   input.ToWarehouseID,
				ItemID:          input.ItemID,
				Quantity:        input.Quantity,
				Rate:            rate,
			},
		})
	})
	if err != nil {
		s.rejected("transfer", err)
		return TransferResult{}, err
	}
	s.RecordCommitted(ctx, result.Out, result.In)
	return result, nil
}

// AdjustStock posts a manual correction. Increases are valued at the pair's current average rate.
func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (Movement, error) {
	refID := uuid.New()
	var movement Movement
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if input.Increase {
			if err = validateQuantity(input.WarehouseID, input.ItemID, input.Quantity, input.Actor); err != nil {
				return err
			}
			movement, err = s.receive(ctx, tx, receipt{
				warehouseID: input.WarehouseID,
				itemID:      input.ItemID,
				quantity:    input.Quantity,
				refType:     enums.StockRefAdjustment,
				refID:       refID,
				remarks:     input.Remarks,
				actor:       input.Actor,
			})
			return err
		}
		movement, err = s.DeductStockTx(ctx, tx, DeductStockInput{
			WarehouseID: input.WarehouseID,
			ItemID:      input.ItemID,
			Quantity:    input.Quantity,
			RefType:     enums.StockRefAdjustment,
			RefID:       refID,
			Remarks:     input.Remarks,
			Actor:       input.Actor,
		})
		return err
	})
	if err != nil {
		s.rejected("adjust", err)
		return Movement{}, err
	}
	s.RecordCommitted(ctx, movement)
	return movement, nil
}

func (s *service) ReserveStock(ctx context.Context, input ReservationInput) (StockView, error) {
	return s.changeReservation(ctx, "reserve", input, func(stock *models.Stock) error {
		available := stock.Available()
		if input.Quantity.GreaterThan(available) {
			return insufficient(input.WarehouseID, input.ItemID, input.Quantity, available)
		}
		stock.ReservedQuantity = stock.ReservedQuantity.Add(input.Quantity)
		return nil
	})
}

func (s *service) ReleaseReservedStock(ctx context.Context, input ReservationInput) (StockView, error) {
	return s.changeReservation(ctx, "release", input, func(stock *models.Stock) error {
		if input.Quantity.GreaterThan(stock.ReservedQuantity) {
			return pkgerrors.New(pkgerrors.CodeValidation, "release exceeds reserved quantity").WithDetails(map[string]any{
				"requested":   input.Quantity.String(),
				"reserved":    stock.ReservedQuantity.String(),
				"warehouseId": input.WarehouseID,
				"itemId":      input.ItemID,
			})
		}
		stock.ReservedQuantity = stock.ReservedQuantity.Sub(input.Quantity)
		return nil
	})
}

func (s *service) changeReservation(ctx context.Context, operation string, input ReservationInput, mutate func(*models.Stock) error) (StockView, error) {
	if err := validateQuantity(input.WarehouseID, input.ItemID, input.Quantity, input.Actor); err != nil {
		return StockView{}, s.reject(operation, err)
	}
	var updated models.Stock
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stock, err := s.lockExisting(ctx, repo, input.WarehouseID, input.ItemID)
		if err != nil {
			return err
		}
		if err := mutate(stock); err != nil {
			return err
		}
		stock.UpdatedBy = input.Actor
		if err := repo.SaveStock(ctx, stock); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save stock")
		}
		updated = *stock
		return nil
	})
	if err != nil {
		s.rejected(operation, err)
		return StockView{}, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"warehouse_id": input.WarehouseID.String(),
		"item_id":      input.ItemID.String(),
		"operation":    operation,
		"actor":        input.Actor,
	})
	s.logg.Info(logCtx, "stock.reservation_changed")
	return viewOf(updated), nil
}

// RecordCommitted logs and counts movements whose transaction has committed.
func (s *service) RecordCommitted(ctx context.Context, movements ...Movement) {
	for _, movement := range movements {
		row := movement.Ledger
		direction, qty := directionIn, row.QtyIn
		if row.QtyOut.IsPositive() {
			direction, qty = directionOut, row.QtyOut
		}
		s.metrics.ObserveMovement(string(row.RefType), direction, qty.InexactFloat64())
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"warehouse_id": row.WarehouseID.String(),
			"item_id":      row.ItemID.String(),
			"ref_type":     string(row.RefType),
			"ref_id":       row.RefID.String(),
			"sequence":     row.Sequence,
			"direction":    direction,
		})
		s.logg.Info(logCtx, "stock.moved")
	}
}

func (s *service) GetStock(ctx context.Context, warehouseID, itemID uuid.UUID) (StockView, error) {
	if warehouseID == uuid.Nil || itemID == uuid.Nil {
		return StockView{}, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id and item id are required")
	}
	stock, err := s.repo.FindStock(ctx, warehouseID, itemID)
	if err != nil {
		return StockView{}, stockLookupError(err, warehouseID, itemID)
	}
	return viewOf(*stock), nil
}

func (s *service) StockByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]StockView, error) {
	if warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	rows, err := s.repo.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock by warehouse")
	}
	return viewsOf(rows), nil
}

func (s *service) StockByItem(ctx context.Context, itemID uuid.UUID) ([]StockView, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	rows, err := s.repo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock by item")
	}
	return viewsOf(rows), nil
}

// AvailableStock is zero for a pair that has never been received.
func (s *service) AvailableStock(ctx context.Context, warehouseID, itemID uuid.UUID) (decimal.Decimal, error) {
	view, err := s.GetStock(ctx, warehouseID, itemID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return view.Available, nil
}

// LowStock lists rows whose available quantity is below threshold, or the configured default when nil.
// A nil warehouse id scans every warehouse.
func (s *service) LowStock(ctx context.Context, warehouseID uuid.UUID, threshold *decimal.Decimal) ([]StockView, error) {
	limit := s.lowThreshold
	if threshold != nil {
		limit = *threshold
	}
	if limit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold cannot be negative")
	}
	var (
		rows []models.Stock
		err  error
	)
	if warehouseID == uuid.Nil {
		rows, err = s.repo.ListAll(ctx)
	} else {
		rows, err = s.repo.ListByWarehouse(ctx, warehouseID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock")
	}
	low := make([]StockView, 0)
	for _, row := range rows {
		if row.Available().LessThan(limit) {
			low = append(low, viewOf(row))
		}
	}
	return low, nil
}

func (s *service) ItemTotal(ctx context.Context, itemID uuid.UUID) (ItemTotal, error) {
	if itemID == uuid.Nil {
		return ItemTotal{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	rows, err := s.repo.ListByItem(ctx, itemID)
	if err != nil {
		return ItemTotal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock by item")
	}
	total := ItemTotal{ItemID: itemID, Quantity: decimal.Zero, ReservedQuantity: decimal.Zero, Available: decimal.Zero}
	for _, row := range rows {
		total.Quantity = total.Quantity.Add(row.Quantity)
		total.ReservedQuantity = total.ReservedQuantity.Add(row.ReservedQuantity)
		total.Available = total.Available.Add(row.Available())
		total.Warehouses++
	}
	return total, nil
}

func (s *service) Summary(ctx context.Context, warehouseID uuid.UUID) (WarehouseSummary, error) {
	if warehouseID == uuid.Nil {
		return WarehouseSummary{}, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	if _, err := s.findWarehouse(ctx, s.warehouses, warehouseID); err != nil {
		return WarehouseSummary{}, err
	}
	views, err := s.StockByWarehouse(ctx, warehouseID)
	if err != nil {
		return WarehouseSummary{}, err
	}
	summary := WarehouseSummary{WarehouseID: warehouseID, TotalValue: decimal.Zero, Items: views}
	for _, view := range views {
		summary.ItemCount++
		summary.TotalValue = summary.TotalValue.Add(view.TotalValue)
	}
	return summary, nil
}

// VerifyLedger replays the pair's ledger and compares it with the stored quantity.
// A disagreement is returned together with a STATE_CONFLICT error.
func (s *service) VerifyLedger(ctx context.Context, warehouseID, itemID uuid.UUID) (LedgerVerification, error) {
	if warehouseID == uuid.Nil || itemID == uuid.Nil {
		return LedgerVerification{}, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id and item id are required")
	}
	stock, err := s.repo.FindStock(ctx, warehouseID, itemID)
	if err != nil {
		return LedgerVerification{}, stockLookupError(err, warehouseID, itemID)
	}
	rows, err := s.ledger.ListByPair(ctx, warehouseID, itemID)
	if err != nil {
		return LedgerVerification{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock ledger")
	}
	// rows past the stock row's sequence were committed after it was read
	seen := rows
	for i, row := range rows {
		if row.Sequence > stock.LedgerSeq {
			seen = rows[:i]
			break
		}
	}
	replay := ledger.Replay(seen)
	result := LedgerVerification{
		StockID:          stock.ID,
		WarehouseID:      warehouseID,
		ItemID:           itemID,
		StockQuantity:    stock.Quantity,
		LedgerQuantity:   replay.Quantity,
		Rows:             replay.Rows,
		FirstBadSequence: replay.FirstBadSequence,
	}
	result.Matches = replay.Consistent() && replay.Quantity.Equal(stock.Quantity)
	if !result.Matches {
		details := map[string]any{
			"warehouseId":    warehouseID,
			"itemId":         itemID,
			"stockQuantity":  stock.Quantity.String(),
			"ledgerQuantity": replay.Quantity.String(),
		}
		if replay.FirstBadSequence != nil {
			details["firstBadSequence"] = *replay.FirstBadSequence
		}
		return result, pkgerrors.New(pkgerrors.CodeStateConflict, "stock ledger does not match stock quantity").WithDetails(details)
	}
	return result, nil
}

func (s *service) ListStocksAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Stock, error) {
	if limit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit must be positive")
	}
	rows, err := s.repo.ListAfterID(ctx, afterID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "page stock rows")
	}
	return rows, nil
}

type receipt struct {
	warehouseID uuid.UUID
	itemID      uuid.UUID
	quantity    decimal.Decimal
	// rate nil values the receipt at the pair's current average rate.
	rate      *decimal.Decimal
	refType   enums.StockRefType
	refID     uuid.UUID
	remarks   *string
	projectID *uuid.UUID
	actor     string
}

type issueLine struct {
	quantity  decimal.Decimal
	refType   enums.StockRefType
	refID     uuid.UUID
	remarks   *string
	projectID *uuid.UUID
	actor     string
}

func (s *service) receive(ctx context.Context, tx *gorm.DB, in receipt) (Movement, error) {
	if err := s.ensureReceivable(ctx, tx, in.warehouseID, in.itemID); err != nil {
		return Movement{}, err
	}
	stock, err := s.lockOrCreate(ctx, s.repo.WithTx(tx), in.warehouseID, in.itemID, in.actor)
	if err != nil {
		return Movement{}, err
	}
	rate := stock.AvgRate
	if in.rate != nil {
		rate = *in.rate
	}
	row, err := s.credit(ctx, tx, stock, in.quantity, rate, in)
	if err != nil {
		return Movement{}, err
	}
	return Movement{Stock: *stock, Ledger: row}, nil
}

// credit applies a receipt to an already locked stock row.
func (s *service) credit(ctx context.Context, tx *gorm.DB, stock *models.Stock, qty, rate decimal.Decimal, in receipt) (models.StockLedger, error) {
	stock.AvgRate = WeightedAverage(stock.Quantity, stock.AvgRate, qty, rate)
	stock.Quantity = stock.Quantity.Add(qty)
	stock.UpdatedBy = in.actor
	return s.post(ctx, tx, stock, models.StockLedger{
		RefType:   in.refType,
		RefID:     in.refID,
		QtyIn:     qty,
		QtyOut:    decimal.Zero,
		Rate:      rate,
		Amount:    qty.Mul(rate).Round(2),
		Remarks:   in.remarks,
		ProjectID: in.projectID,
		CreatedBy: in.actor,
	})
}

// issue removes quantity from a locked stock row at its current average rate.
func (s *service) issue(ctx context.Context, tx *gorm.DB, stock *models.Stock, line issueLine) (models.StockLedger, error) {
	available := stock.Available()
	if line.quantity.GreaterThan(available) {
		return models.StockLedger{}, insufficient(stock.WarehouseID, stock.ItemID, line.quantity, available)
	}
	stock.Quantity = stock.Quantity.Sub(line.quantity)
	stock.UpdatedBy = line.actor
	return s.post(ctx, tx, stock, models.StockLedger{
		RefType:   line.refType,
		RefID:     line.refID,
		QtyIn:     decimal.Zero,
		QtyOut:    line.quantity,
		Rate:      stock.AvgRate,
		Amount:    line.quantity.Mul(stock.AvgRate).Round(2),
		Remarks:   line.remarks,
		ProjectID: line.projectID,
		CreatedBy: line.actor,
	})
}

// post stamps the next pair sequence on the row, appends it and persists the stock row.
func (s *service) post(ctx context.Context, tx *gorm.DB, stock *models.Stock, row models.StockLedger) (models.StockLedger, error) {
	stock.LedgerSeq++
	row.WarehouseID = stock.WarehouseID
	row.ItemID = stock.ItemID
	row.Sequence = stock.LedgerSeq
	row.TxnDate = txnDay(s.now())
	row.BalanceAfter = stock.Quantity
	if err := s.ledger.WithTx(tx).Append(ctx, &row); err != nil {
		return models.StockLedger{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock ledger")
	}
	if err := s.repo.WithTx(tx).SaveStock(ctx, stock); err != nil {
		return models.StockLedger{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save stock")
	}
	return row, nil
}

// ensureReceivable checks the warehouse is active and the item exists before a receipt.
func (s *service) ensureReceivable(ctx context.Context, tx *gorm.DB, warehouseID, itemID uuid.UUID) error {
	warehouse, err := s.findWarehouse(ctx, s.warehouses.WithTx(tx), warehouseID)
	if err != nil {
		return err
	}
	if !warehouse.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse is inactive").WithDetails(map[string]any{"warehouseId": warehouseID})
	}
	_, err = s.items.WithTx(tx).Get(ctx, itemID)
	return err
}

func (s *service) findWarehouse(ctx context.Context, repo warehouses.Repository, warehouseID uuid.UUID) (*models.Warehouse, error) {
	warehouse, err := repo.FindByID(ctx, warehouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "warehouse not found").WithDetails(map[string]any{"warehouseId": warehouseID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}
	return warehouse, nil
}

func (s *service) lockExisting(ctx context.Context, repo Repository, warehouseID, itemID uuid.UUID) (*models.Stock, error) {
	stock, err := repo.LockStock(ctx, warehouseID, itemID)
	if err != nil {
		return nil, stockLookupError(err, warehouseID, itemID)
	}
	return stock, nil
}

func (s *service) lockOrCreate(ctx context.Context, repo Repository, warehouseID, itemID uuid.UUID, actor string) (*models.Stock, error) {
	stock, err := repo.LockOrCreateStock(ctx, warehouseID, itemID, actor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock")
	}
	return stock, nil
}

func (s *service) reject(operation string, err error) error {
	s.rejected(operation, err)
	return err
}

func (s *service) rejected(operation string, err error) {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejected(operation, string(typed.Code()))
		return
	}
	s.metrics.IncRejected(operation, string(pkgerrors.CodeInternal))
}

// WeightedAverage returns the average rate after receiving qty at rate into a balance of curQty at curAvg.
func WeightedAverage(curQty, curAvg, qty, rate decimal.Decimal) decimal.Decimal {
	total := curQty.Add(qty)
	if total.IsZero() {
		return decimal.Zero
	}
	return curQty.Mul(curAvg).Add(qty.Mul(rate)).Div(total).Round(4)
}

func txnDay(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

func insufficient(warehouseID, itemID uuid.UUID, requested, available decimal.Decimal) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(map[string]any{
		"requested":   requested.String(),
		"available":   available.String(),
		"warehouseId": warehouseID,
		"itemId":      itemID,
	})
}

func stockLookupError(err error, warehouseID, itemID uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "stock not found").WithDetails(map[string]any{
			"warehouseId": warehouseID,
			"itemId":      itemID,
		})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
}

func validateQuantity(warehouseID, itemID uuid.UUID, qty decimal.Decimal, actor string) error {
	switch {
	case warehouseID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	case itemID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	case !qty.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	case strings.TrimSpace(actor) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	return nil
}

func validateRef(refType enums.StockRefType, refID uuid.UUID) error {
	if !refType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid reference type")
	}
	if refID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}
	return nil
}

func validateAdd(input AddStockInput) error {
	if err := validateQuantity(input.WarehouseID, input.ItemID, input.Quantity, input.Actor); err != nil {
		return err
	}
	if input.Rate.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "rate cannot be negative")
	}
	return validateRef(input.RefType, input.RefID)
}

func validateDeduct(input DeductStockInput) error {
	if err := validateQuantity(input.WarehouseID, input.ItemID, input.Quantity, input.Actor); err != nil {
		return err
	}
	return validateRef(input.RefType, input.RefID)
}

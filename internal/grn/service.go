package grn

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/internal/inventory"
	"github.com/angelmondragon/estateerp-backend/internal/numbering"
	"github.com/angelmondragon/estateerp-backend/internal/purchaseorders"
	"github.com/angelmondragon/estateerp-backend/pkg/db"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
	"github.com/angelmondragon/estateerp-backend/pkg/metrics"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/estateerp-backend/pkg/pagination"
)

const documentKind = "grn"

type CreateItemInput struct {
	PurchaseOrderItemID uuid.UUID
	Quantity            decimal.Decimal
}

type CreateInput struct {
	PurchaseOrderID uuid.UUID
	ReceiptType     enums.ReceiptType
	WarehouseID     *uuid.UUID
	ReceivedDate    *time.Time
	Remarks         *string
	Items           []CreateItemInput
	Actor           string
}

type ListInput struct {
	Status *enums.GrnStatus
	pagination.Params
}

type ListResult struct {
	Items  []models.Grn `json:"items"`
	Cursor string       `json:"cursor,omitempty"`
}

// StockPoster moves received goods into stock within the receipt's transaction.
type StockPoster interface {
	ProcessGrnApproval(ctx context.Context, tx *gorm.DB, grn *models.Grn, actor string) ([]inventory.Movement, error)
	RecordCommitted(ctx context.Context, movements ...inventory.Movement)
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Grn, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Grn, error)
	ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.Grn, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo           Repository
	PurchaseOrders purchaseorders.Repository
	Stock          StockPoster
	Numbering      *numbering.Generator
	DB             txRunner
	Outbox         outbox.Emitter
	Metrics        *metrics.ProcurementMetrics
	Logger         *logger.Logger
}

type service struct {
	repo           Repository
	purchaseOrders purchaseorders.Repository
	stock          StockPoster
	numbering      *numbering.Generator
	db             txRunner
	outbox         outbox.Emitter
	metrics        *metrics.ProcurementMetrics
	logg           *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grn repository is required")
	case params.PurchaseOrders == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order repository is required")
	case params.Stock == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock poster is required")
	case params.Numbering == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "numbering generator is required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:           params.Repo,
		purchaseOrders: params.PurchaseOrders,
		stock:          params.Stock,
		numbering:      params.Numbering,
		db:             params.DB,
		outbox:         params.Outbox,
		metrics:        params.Metrics,
		logg:           logg,
	}, nil
}

// Create posts a goods receipt against a purchase order. Receipt counters, the PO status,
// warehouse stock and the outbox event all commit or roll back together.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Grn, error) {
	lines, err := validateCreate(input)
	if err != nil {
		s.rejected(err)
		return nil, err
	}
	receivedDate := time.Now().UTC()
	if input.ReceivedDate != nil {
		receivedDate = input.ReceivedDate.UTC()
	}

	var (
		created   *models.Grn
		movements []inventory.Movement
	)
	err = s.numbering.Locked(ctx, numbering.Grn, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			poRepo := s.purchaseOrders.WithTx(tx)
			po, err := poRepo.LockByID(ctx, input.PurchaseOrderID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "purchase order not found").
						WithDetails(map[string]any{"purchaseOrderId": input.PurchaseOrderID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock purchase order")
			}
			// A CLOSED order has nothing pending, so every line below fails the ceiling as OVER_RECEIPT.
			if po.Status == enums.PurchaseOrderStatusCancelled {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order is cancelled").
					WithDetails(map[string]any{"purchaseOrderId": po.ID, "status": po.Status})
			}

			poItems, err := poRepo.LockItems(ctx, po.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock purchase order items")
			}
			byID := make(map[uuid.UUID]*models.PurchaseOrderItem, len(poItems))
			for i := range poItems {
				byID[poItems[i].ID] = &poItems[i]
			}

			grnItems := make([]models.GrnItem, 0, len(lines))
			for _, line := range lines {
				poItem, ok := byID[line.PurchaseOrderItemID]
				if !ok {
					return pkgerrors.New(pkgerrors.CodeValidation, "line does not belong to the purchase order").
						WithDetails(map[string]any{"poItemId": line.PurchaseOrderItemID, "purchaseOrderId": po.ID})
				}
				ceiling := poItem.Quantity.Sub(poItem.ReceivedQuantity)
				if line.Quantity.GreaterThan(ceiling) {
					return pkgerrors.New(pkgerrors.CodeOverReceipt, "received quantity exceeds pending quantity").
						WithDetails(map[string]any{
							"poItemId":  poItem.ID,
							"requested": line.Quantity.String(),
							"ceiling":   ceiling.String(),
							"ordered":   poItem.Quantity.String(),
							"received":  poItem.ReceivedQuantity.String(),
						})
				}
				poItem.ReceivedQuantity = poItem.ReceivedQuantity.Add(line.Quantity)
				grnItems = append(grnItems, models.GrnItem{
					PurchaseOrderItemID: poItem.ID,
					ItemID:              poItem.ItemID,
					QuantityReceived:    line.Quantity,
					QuantityInvoiced:    decimal.Zero,
					Rate:                poItem.Rate,
				})
			}

			number, err := s.numbering.Next(ctx, tx, numbering.Grn)
			if err != nil {
				return err
			}
			grn := &models.Grn{
				GrnNumber:       number,
				PurchaseOrderID: po.ID,
				VendorID:        po.VendorID,
				ReceiptType:     input.ReceiptType,
				WarehouseID:     input.WarehouseID,
				Status:          enums.GrnStatusReceived,
				ReceivedDate:    receivedDate,
				Remarks:         input.Remarks,
				CreatedBy:       input.Actor,
				UpdatedBy:       input.Actor,
				Items:           grnItems,
			}
			if err := s.repo.WithTx(tx).Create(ctx, grn); err != nil {
				if db.IsUniqueViolation(err, "ux_grns_grn_number") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "grn number already issued").WithDetails(map[string]any{"grnNumber": number})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create grn")
			}

			for _, line := range lines {
				if err := poRepo.SaveItemCounters(ctx, byID[line.PurchaseOrderItemID]); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update received quantity")
				}
			}
			next := purchaseorders.DerivePurchaseOrderStatus(poItems)
			if next != po.Status {
				if err := poRepo.UpdateStatus(ctx, po.ID, next, input.Actor); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order status")
				}
				if err := purchaseorders.EmitStatusChanged(ctx, s.outbox, tx, po, next, input.Actor, "grn"); err != nil {
					return err
				}
			}

			posted, err := s.stock.ProcessGrnApproval(ctx, tx, grn, input.Actor)
			if err != nil {
				return err
			}
			movements = posted
			created = grn
			return s.emitPosted(ctx, tx, grn, input.Actor)
		})
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}

	s.stock.RecordCommitted(ctx, movements...)
	s.metrics.IncCreated(documentKind)
	logCtx := s.logg.WithDocument(s.logg.WithActor(ctx, input.Actor), documentKind, created.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"grn_number":        created.GrnNumber,
		"purchase_order_id": created.PurchaseOrderID.String(),
		"receipt_type":      string(created.ReceiptType),
		"stock_movements":   len(movements),
	})
	s.logg.Info(logCtx, "grn.created")
	return created, nil
}

func (s *service) emitPosted(ctx context.Context, tx *gorm.DB, grn *models.Grn, actor string) error {
	if s.outbox == nil {
		return nil
	}
	lines := make([]payloads.GrnLine, 0, len(grn.Items))
	for _, item := range grn.Items {
		lines = append(lines, payloads.GrnLine{
			GrnItemID:           item.ID,
			PurchaseOrderItemID: item.PurchaseOrderItemID,
			ItemID:              item.ItemID,
			Quantity:            item.QuantityReceived,
			Rate:                item.Rate,
		})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventGrnPosted,
		AggregateType: enums.AggregateGrn,
		AggregateID:   grn.ID,
		Actor:         &outbox.ActorRef{Actor: actor},
		Data: payloads.GrnPostedEvent{
			GrnID:           grn.ID,
			GrnNumber:       grn.GrnNumber,
			PurchaseOrderID: grn.PurchaseOrderID,
			VendorID:        grn.VendorID,
			ReceiptType:     grn.ReceiptType,
			WarehouseID:     grn.WarehouseID,
			ReceivedDate:    grn.ReceivedDate,
			Lines:           lines,
		},
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Grn, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grn id is required")
	}
	grn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "grn not found").WithDetails(map[string]any{"grnId": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load grn")
	}
	return grn, nil
}

func (s *service) ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.Grn, error) {
	if purchaseOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	}
	rows, err := s.repo.ListByPurchaseOrder(ctx, purchaseOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list grns")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid grn status")
	}
	params := listParams{Status: input.Status, Limit: input.Limit}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list grns")
	}
	result := &ListResult{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) rejected(err error) {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejected(documentKind, string(typed.Code()))
	}
}

// validateCreate checks the request shape and folds repeated poItemIds into one line each.
func validateCreate(input CreateInput) ([]CreateItemInput, error) {
	switch {
	case input.PurchaseOrderID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	case !input.ReceiptType.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid receipt type")
	case strings.TrimSpace(input.Actor) == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	case len(input.Items) == 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	hasWarehouse := input.WarehouseID != nil && *input.WarehouseID != uuid.Nil
	if input.ReceiptType == enums.ReceiptTypeWarehouseStock && !hasWarehouse {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required for warehouse stock receipts")
	}
	if input.ReceiptType == enums.ReceiptTypeDirectConsume && hasWarehouse {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "direct consume receipts do not take a warehouse")
	}

	merged := make([]CreateItemInput, 0, len(input.Items))
	index := make(map[uuid.UUID]int, len(input.Items))
	for i, line := range input.Items {
		if line.PurchaseOrderItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "po item id is required").WithDetails(map[string]any{"line": i})
		}
		if !line.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").WithDetails(map[string]any{"line": i})
		}
		if at, ok := index[line.PurchaseOrderItemID]; ok {
			merged[at].Quantity = merged[at].Quantity.Add(line.Quantity)
			continue
		}
		index[line.PurchaseOrderItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

package purchaseorders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/internal/items"
	"github.com/angelmondragon/estateerp-backend/internal/numbering"
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

const documentKind = "purchase_order"

type CreateItemInput struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
	Rate     decimal.Decimal
}

type CreateInput struct {
	OrganizationID uuid.UUID
	ProjectID      *uuid.UUID
	VendorID       uuid.UUID
	PODate         *time.Time
	Remarks        *string
	Items          []CreateItemInput
	Actor          string
}

type ListInput struct {
	Status   *enums.PurchaseOrderStatus
	VendorID *uuid.UUID
	pagination.Params
}

type ListResult struct {
	Items  []models.PurchaseOrder `json:"items"`
	Cursor string                 `json:"cursor,omitempty"`
}

// Service manages the purchase order lifecycle up to receipt.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string) (*models.PurchaseOrder, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo      Repository
	Items     items.Lookup
	Numbering *numbering.Generator
	DB        txRunner
	Outbox    outbox.Emitter
	Metrics   *metrics.ProcurementMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	items     items.Lookup
	numbering *numbering.Generator
	db        txRunner
	outbox    outbox.Emitter
	metrics   *metrics.ProcurementMetrics
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order repository is required")
	case params.Items == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item lookup is required")
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
		repo:      params.Repo,
		items:     params.Items,
		numbering: params.Numbering,
		db:        params.DB,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		logg:      logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error) {
	if err := validateCreate(input); err != nil {
		s.metrics.IncRejected(documentKind, string(pkgerrors.CodeValidation))
		return nil, err
	}

	poDate := time.Now().UTC()
	if input.PODate != nil {
		poDate = input.PODate.UTC()
	}

	var created *models.PurchaseOrder
	err := s.numbering.Locked(ctx, numbering.PurchaseOrder, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			lookup := s.items.WithTx(tx)
			lines := make([]models.PurchaseOrderItem, 0, len(input.Items))
			total := decimal.Zero
			for _, line := range input.Items {
				if _, err := lookup.Get(ctx, line.ItemID); err != nil {
					return err
				}
				amount := line.Quantity.Mul(line.Rate).Round(2)
				total = total.Add(amount)
				lines = append(lines, models.PurchaseOrderItem{
					ItemID:           line.ItemID,
					Quantity:         line.Quantity,
					Rate:             line.Rate,
					Amount:           amount,
					ReceivedQuantity: decimal.Zero,
					InvoicedQuantity: decimal.Zero,
				})
			}

			number, err := s.numbering.Next(ctx, tx, numbering.PurchaseOrder)
			if err != nil {
				return err
			}
			po := &models.PurchaseOrder{
				PONumber:       number,
				OrganizationID: input.OrganizationID,
				ProjectID:      input.ProjectID,
				VendorID:       input.VendorID,
				PODate:         poDate,
				TotalAmount:    total,
				Status:         enums.PurchaseOrderStatusOpen,
				Remarks:        input.Remarks,
				CreatedBy:      input.Actor,
				UpdatedBy:      input.Actor,
				Items:          lines,
			}
			if err := s.repo.WithTx(tx).Create(ctx, po); err != nil {
				if db.IsUniqueViolation(err, "ux_purchase_orders_po_number") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "purchase order number already issued").WithDetails(map[string]any{"poNumber": number})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
			}
			created = po

			if s.outbox == nil {
				return nil
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPurchaseOrderCreated,
				AggregateType: enums.AggregatePurchaseOrder,
				AggregateID:   po.ID,
				Actor:         &outbox.ActorRef{Actor: input.Actor},
				Data: payloads.PurchaseOrderCreatedEvent{
					PurchaseOrderID: po.ID,
					PONumber:        po.PONumber,
					OrganizationID:  po.OrganizationID,
					ProjectID:       po.ProjectID,
					VendorID:        po.VendorID,
					TotalAmount:     po.TotalAmount,
					LineCount:       len(po.Items),
				},
			})
		})
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}

	s.metrics.IncCreated(documentKind)
	logCtx := s.logg.WithDocument(s.logg.WithActor(ctx, input.Actor), documentKind, created.ID.String())
	logCtx = s.logg.WithField(logCtx, "po_number", created.PONumber)
	s.logg.Info(logCtx, "purchase_order.created")
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	}
	po, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	return po, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase order status")
	}
	params := listParams{Status: input.Status, VendorID: input.VendorID, Limit: input.Limit}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	result := &ListResult{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor string) (*models.PurchaseOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	}
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		po, err := repo.LockByID(ctx, id)
		if err != nil {
			return lookupError(err, id)
		}
		if po.Status != enums.PurchaseOrderStatusOpen && po.Status != enums.PurchaseOrderStatusPartial {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only open or partially received purchase orders can be cancelled").
				WithDetails(map[string]any{"purchaseOrderId": id, "status": po.Status})
		}
		if err := repo.UpdateStatus(ctx, id, enums.PurchaseOrderStatusCancelled, actor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel purchase order")
		}
		return EmitStatusChanged(ctx, s.outbox, tx, po, enums.PurchaseOrderStatusCancelled, actor, "cancel")
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithDocument(s.logg.WithActor(ctx, actor), documentKind, id.String()), "purchase_order.cancelled")
	return s.Get(ctx, id)
}

// Delete removes an order that has never been received against.
func (s *service) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockByID(ctx, id); err != nil {
			return lookupError(err, id)
		}
		count, err := repo.CountGrns(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count goods receipts")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order has goods receipts and cannot be deleted").
				WithDetails(map[string]any{"purchaseOrderId": id, "grnCount": count})
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete purchase order")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithDocument(s.logg.WithActor(ctx, actor), documentKind, id.String()), "purchase_order.deleted")
	return nil
}

// EmitStatusChanged records a purchase_order_status_changed event when to differs from the stored status.
func EmitStatusChanged(ctx context.Context, emitter outbox.Emitter, tx *gorm.DB, po *models.PurchaseOrder, to enums.PurchaseOrderStatus, actor, causedBy string) error {
	if emitter == nil || po.Status == to {
		return nil
	}
	return emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPurchaseOrderStatusChanged,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   po.ID,
		Actor:         &outbox.ActorRef{Actor: actor},
		Data: payloads.PurchaseOrderStatusChangedEvent{
			PurchaseOrderID: po.ID,
			PONumber:        po.PONumber,
			From:            po.Status,
			To:              to,
			CausedBy:        causedBy,
		},
	})
}

func (s *service) rejected(err error) {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejected(documentKind, string(typed.Code()))
	}
}

func validateCreate(input CreateInput) error {
	switch {
	case input.OrganizationID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	case input.ProjectID == nil || *input.ProjectID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "project id is required")
	case input.VendorID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	case strings.TrimSpace(input.Actor) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	case len(input.Items) == 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	for i, line := range input.Items {
		details := map[string]any{"line": i}
		switch {
		case line.ItemID == uuid.Nil:
			return pkgerrors.New(pkgerrors.CodeValidation, "item id is required").WithDetails(details)
		case !line.Quantity.IsPositive():
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").WithDetails(details)
		case line.Rate.IsNegative():
			return pkgerrors.New(pkgerrors.CodeValidation, "rate cannot be negative").WithDetails(details)
		}
	}
	return nil
}

func lookupError(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "purchase order not found").WithDetails(map[string]any{"purchaseOrderId": id})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
}

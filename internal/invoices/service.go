package invoices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/internal/grn"
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

const documentKind = "vendor_invoice"

type CreateItemInput struct {
	GrnItemID uuid.UUID
	Quantity  decimal.Decimal
	// Rate overrides the receipt rate when set.
	Rate *decimal.Decimal
}

type CreateInput struct {
	GrnID            uuid.UUID
	InvoiceDate      *time.Time
	DueDate          *time.Time
	VendorInvoiceRef *string
	Remarks          *string
	Items            []CreateItemInput
	Actor            string
}

type ListInput struct {
	Status   *enums.InvoiceStatus
	VendorID *uuid.UUID
	pagination.Params
}

type ListResult struct {
	Items  []models.VendorInvoice `json:"items"`
	Cursor string                 `json:"cursor,omitempty"`
}

// Service bills goods receipts. Payments against invoices live in the payments package.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.VendorInvoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.VendorInvoice, error)
	ListByGrn(ctx context.Context, grnID uuid.UUID) ([]models.VendorInvoice, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo           Repository
	Grns           grn.Repository
	PurchaseOrders purchaseorders.Repository
	Numbering      *numbering.Generator
	DB             txRunner
	Outbox         outbox.Emitter
	Metrics        *metrics.ProcurementMetrics
	Logger         *logger.Logger
	Clock          func() time.Time
}

type service struct {
	repo           Repository
	grns           grn.Repository
	purchaseOrders purchaseorders.Repository
	numbering      *numbering.Generator
	db             txRunner
	outbox         outbox.Emitter
	metrics        *metrics.ProcurementMetrics
	logg           *logger.Logger
	now            func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice repository is required")
	case params.Grns == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grn repository is required")
	case params.PurchaseOrders == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order repository is required")
	case params.Numbering == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "numbering generator is required")
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
		repo:           params.Repo,
		grns:           params.Grns,
		purchaseOrders: params.PurchaseOrders,
		numbering:      params.Numbering,
		db:             params.DB,
		outbox:         params.Outbox,
		metrics:        params.Metrics,
		logg:           logg,
		now:            clock,
	}, nil
}

// Create bills received quantities of one GRN. The invoice, the GRN and PO line counters and the GRN status
// commit together.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.VendorInvoice, error) {
	if err := validateCreate(input); err != nil {
		s.rejected(err)
		return nil, err
	}
	invoiceDate := calendarDay(s.now())
	if input.InvoiceDate != nil {
		invoiceDate = calendarDay(*input.InvoiceDate)
	}
	if input.DueDate != nil && calendarDay(*input.DueDate).Before(invoiceDate) {
		err := pkgerrors.New(pkgerrors.CodeValidation, "due date cannot be before the invoice date")
		s.rejected(err)
		return nil, err
	}

	var created *models.VendorInvoice
	err := s.numbering.Locked(ctx, numbering.VendorInvoice, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			grnRepo := s.grns.WithTx(tx)
			receipt, err := grnRepo.LockByID(ctx, input.GrnID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "grn not found").
						WithDetails(map[string]any{"grnId": input.GrnID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock grn")
			}
			grnItems, err := grnRepo.LockItems(ctx, receipt.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock grn items")
			}
			byID := make(map[uuid.UUID]*models.GrnItem, len(grnItems))
			for i := range grnItems {
				byID[grnItems[i].ID] = &grnItems[i]
			}

			lines := make([]models.VendorInvoiceItem, 0, len(input.Items))
			invoicedByPOItem := make(map[uuid.UUID]decimal.Decimal)
			touched := make(map[uuid.UUID]struct{})
			total := decimal.Zero
			for _, line := range input.Items {
				grnItem, ok := byID[line.GrnItemID]
				if !ok {
					return pkgerrors.New(pkgerrors.CodeValidation, "line does not belong to the grn").
						WithDetails(map[string]any{"grnItemId": line.GrnItemID, "grnId": receipt.ID})
				}
				ceiling := grnItem.PendingInvoiceQuantity()
				if line.Quantity.GreaterThan(ceiling) {
					return pkgerrors.New(pkgerrors.CodeOverInvoice, "invoiced quantity exceeds pending quantity").
						WithDetails(map[string]any{
							"grnItemId": grnItem.ID,
							"requested": line.Quantity.String(),
							"ceiling":   ceiling.String(),
							"received":  grnItem.QuantityReceived.String(),
							"invoiced":  grnItem.QuantityInvoiced.String(),
						})
				}
				rate := grnItem.Rate
				if line.Rate != nil {
					rate = *line.Rate
				}
				amount := line.Quantity.Mul(rate).Round(2)
				total = total.Add(amount)
				grnItem.QuantityInvoiced = grnItem.QuantityInvoiced.Add(line.Quantity)
				touched[grnItem.ID] = struct{}{}
				invoicedByPOItem[grnItem.PurchaseOrderItemID] = invoicedByPOItem[grnItem.PurchaseOrderItemID].Add(line.Quantity)
				lines = append(lines, models.VendorInvoiceItem{
					GrnItemID: grnItem.ID,
					ItemID:    grnItem.ItemID,
					Quantity:  line.Quantity,
					Rate:      rate,
					Amount:    amount,
				})
			}

			number, err := s.numbering.Next(ctx, tx, numbering.VendorInvoice)
			if err != nil {
				return err
			}
			invoice := &models.VendorInvoice{
				InvoiceNumber:    number,
				GrnID:            receipt.ID,
				PurchaseOrderID:  receipt.PurchaseOrderID,
				VendorID:         receipt.VendorID,
				VendorInvoiceRef: input.VendorInvoiceRef,
				TotalAmount:      total,
				PaidAmount:       decimal.Zero,
				PendingAmount:    total,
				Status:           DeriveInvoiceStatus(total, decimal.Zero),
				InvoiceDate:      invoiceDate,
				DueDate:          input.DueDate,
				Remarks:          input.Remarks,
				CreatedBy:        input.Actor,
				UpdatedBy:        input.Actor,
				Items:            lines,
			}
			if err := s.repo.WithTx(tx).Create(ctx, invoice); err != nil {
				if db.IsUniqueViolation(err, "ux_vendor_invoices_invoice_number") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "invoice number already issued").
						WithDetails(map[string]any{"invoiceNumber": number})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor invoice")
			}

			for i := range grnItems {
				if _, ok := touched[grnItems[i].ID]; !ok {
					continue
				}
				if err := grnRepo.SaveItemInvoiced(ctx, &grnItems[i]); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoiced quantity")
				}
			}
			if err := s.addPurchaseOrderInvoiced(ctx, tx, invoicedByPOItem); err != nil {
				return err
			}
			if next := grn.DeriveGrnStatus(grnItems); next != receipt.Status {
				if err := grnRepo.UpdateStatus(ctx, receipt.ID, next, input.Actor); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update grn status")
				}
			}

			created = invoice
			return s.emitCreated(ctx, tx, invoice, input.Actor)
		})
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}

	s.metrics.IncCreated(documentKind)
	logCtx := s.logg.WithDocument(s.logg.WithActor(ctx, input.Actor), documentKind, created.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"invoice_number": created.InvoiceNumber,
		"grn_id":         created.GrnID.String(),
		"vendor_id":      created.VendorID.String(),
		"lines":          len(created.Items),
	})
	s.logg.Info(logCtx, "vendor_invoice.created")
	return created, nil
}

// addPurchaseOrderInvoiced carries invoiced quantities up to the PO lines, locking them in id order.
func (s *service) addPurchaseOrderInvoiced(ctx context.Context, tx *gorm.DB, invoiced map[uuid.UUID]decimal.Decimal) error {
	ids := make([]uuid.UUID, 0, len(invoiced))
	for id := range invoiced {
		ids = append(ids, id)
	}

	poRepo := s.purchaseOrders.WithTx(tx)
	poItems, err := poRepo.LockItemsByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock purchase order items")
	}
	for i := range poItems {
		poItems[i].InvoicedQuantity = poItems[i].InvoicedQuantity.Add(invoiced[poItems[i].ID])
		if err := poRepo.SaveItemCounters(ctx, &poItems[i]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order invoiced quantity")
		}
	}
	return nil
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, invoice *models.VendorInvoice, actor string) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventVendorInvoiceCreated,
		AggregateType: enums.AggregateVendorInvoice,
		AggregateID:   invoice.ID,
		Actor:         &outbox.ActorRef{Actor: actor},
		Data: payloads.VendorInvoiceCreatedEvent{
			InvoiceID:       invoice.ID,
			InvoiceNumber:   invoice.InvoiceNumber,
			GrnID:           invoice.GrnID,
			PurchaseOrderID: invoice.PurchaseOrderID,
			VendorID:        invoice.VendorID,
			TotalAmount:     invoice.TotalAmount,
			DueDate:         invoice.DueDate,
		},
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.VendorInvoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "vendor invoice not found").WithDetails(map[string]any{"invoiceId": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor invoice")
	}
	return invoice, nil
}

func (s *service) ListByGrn(ctx context.Context, grnID uuid.UUID) ([]models.VendorInvoice, error) {
	if grnID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grn id is required")
	}
	rows, err := s.repo.ListByGrn(ctx, grnID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor invoices")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid invoice status")
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor invoices")
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

func validateCreate(input CreateInput) error {
	switch {
	case input.GrnID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "grn id is required")
	case strings.TrimSpace(input.Actor) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	case len(input.Items) == 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	for i, line := range input.Items {
		details := map[string]any{"line": i}
		switch {
		case line.GrnItemID == uuid.Nil:
			return pkgerrors.New(pkgerrors.CodeValidation, "grn item id is required").WithDetails(details)
		case !line.Quantity.IsPositive():
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").WithDetails(details)
		case line.Rate != nil && line.Rate.IsNegative():
			return pkgerrors.New(pkgerrors.CodeValidation, "rate cannot be negative").WithDetails(details)
		}
	}
	return nil
}

// calendarDay drops the time of day so invoice and due dates compare as dates.
func calendarDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

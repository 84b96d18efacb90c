// Package payments records vendor payments against invoices and keeps invoice balances in step.
package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/internal/invoices"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
	"github.com/angelmondragon/estateerp-backend/pkg/metrics"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox/payloads"
)

const documentKind = "vendor_payment"

type CreateInput struct {
	InvoiceID       uuid.UUID
	Amount          decimal.Decimal
	PaymentMode     enums.PaymentMode
	ReferenceNumber *string
	PaymentDate     *time.Time
	Remarks         *string
	Actor           string
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.VendorPaymentPO, error)
	Get(ctx context.Context, id uuid.UUID) (*models.VendorPaymentPO, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.VendorPaymentPO, error)
	PendingAmountByVendor(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo     Repository
	Invoices invoices.Repository
	DB       txRunner
	Outbox   outbox.Emitter
	Metrics  *metrics.ProcurementMetrics
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	invoices invoices.Repository
	db       txRunner
	outbox   outbox.Emitter
	metrics  *metrics.ProcurementMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment repository is required")
	case params.Invoices == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice repository is required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		invoices: params.Invoices,
		db:       params.DB,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     logg,
	}, nil
}

// Create records a payment and moves the invoice balance under the invoice row lock.
// A PAID invoice has nothing pending, so any further payment is an over-payment.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.VendorPaymentPO, error) {
	if err := validateCreate(input); err != nil {
		s.rejected(err)
		return nil, err
	}
	paymentDate := time.Now().UTC()
	if input.PaymentDate != nil {
		paymentDate = input.PaymentDate.UTC()
	}
	amount := input.Amount.Round(2)

	var (
		created *models.VendorPaymentPO
		invoice *models.VendorInvoice
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		invoiceRepo := s.invoices.WithTx(tx)
		locked, err := invoiceRepo.LockByID(ctx, input.InvoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "vendor invoice not found").
					WithDetails(map[string]any{"invoiceId": input.InvoiceID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock vendor invoice")
		}
		if amount.GreaterThan(locked.PendingAmount) {
			return pkgerrors.New(pkgerrors.CodeOverPayment, "payment exceeds pending amount").
				WithDetails(map[string]any{
					"invoiceId": locked.ID,
					"requested": amount.StringFixed(2),
					"pending":   locked.PendingAmount.StringFixed(2),
					"status":    locked.Status,
				})
		}

		payment := &models.VendorPaymentPO{
			VendorInvoiceID: locked.ID,
			VendorID:        locked.VendorID,
			Amount:          amount,
			PaymentMode:     input.PaymentMode,
			ReferenceNumber: input.ReferenceNumber,
			PaymentDate:     paymentDate,
			Remarks:         input.Remarks,
			CreatedBy:       input.Actor,
		}
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor payment")
		}

		locked.PaidAmount = locked.PaidAmount.Add(amount)
		locked.PendingAmount = invoices.PendingAmount(locked.TotalAmount, locked.PaidAmount)
		locked.Status = invoices.DeriveInvoiceStatus(locked.TotalAmount, locked.PaidAmount)
		if err := invoiceRepo.UpdateBalance(ctx, locked, input.Actor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice balance")
		}

		created = payment
		invoice = locked
		return s.emitRecorded(ctx, tx, payment, locked, input.Actor)
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}

	s.metrics.IncCreated(documentKind)
	logCtx := s.logg.WithDocument(s.logg.WithActor(ctx, input.Actor), documentKind, created.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"invoice_id":     invoice.ID.String(),
		"invoice_status": string(invoice.Status),
		"payment_mode":   string(created.PaymentMode),
	})
	s.logg.Info(logCtx, "vendor_payment.recorded")
	return created, nil
}

func (s *service) emitRecorded(ctx context.Context, tx *gorm.DB, payment *models.VendorPaymentPO, invoice *models.VendorInvoice, actor string) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventVendorPaymentRecorded,
		AggregateType: enums.AggregateVendorInvoice,
		AggregateID:   invoice.ID,
		Actor:         &outbox.ActorRef{Actor: actor},
		Data: payloads.VendorPaymentRecordedEvent{
			PaymentID:     payment.ID,
			InvoiceID:     invoice.ID,
			VendorID:      invoice.VendorID,
			Amount:        payment.Amount,
			PaymentMode:   payment.PaymentMode,
			PaidAmount:    invoice.PaidAmount,
			PendingAmount: invoice.PendingAmount,
			Status:        invoice.Status,
		},
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.VendorPaymentPO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "vendor payment not found").WithDetails(map[string]any{"paymentId": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor payment")
	}
	return payment, nil
}

func (s *service) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.VendorPaymentPO, error) {
	if invoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	rows, err := s.repo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor payments")
	}
	return rows, nil
}

// PendingAmountByVendor sums what is still owed across all of a vendor's invoices.
func (s *service) PendingAmountByVendor(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	if vendorID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	total, err := s.invoices.SumPendingByVendor(ctx, vendorID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum pending amount")
	}
	return total, nil
}

func (s *service) rejected(err error) {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejected(documentKind, string(typed.Code()))
	}
}

func validateCreate(input CreateInput) error {
	switch {
	case input.InvoiceID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	case !input.Amount.Round(2).IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	case !input.PaymentMode.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment mode")
	case strings.TrimSpace(input.Actor) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	return nil
}

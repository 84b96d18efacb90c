package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/api/responses"
	"github.com/angelmondragon/estateerp-backend/api/validators"
	"github.com/angelmondragon/estateerp-backend/internal/payments"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

type paymentCreateRequest struct {
	InvoiceID       string          `json:"invoiceId" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"dec_gt0"`
	PaymentMode     string          `json:"paymentMode" validate:"required"`
	ReferenceNumber *string         `json:"referenceNumber" validate:"omitempty,max=120"`
	PaymentDate     *string         `json:"paymentDate"`
	Remarks         *string         `json:"remarks" validate:"omitempty,max=500"`
}

func (r paymentCreateRequest) toInput(actor string) (payments.CreateInput, error) {
	invoiceID, err := parseUUID(r.InvoiceID, "invoiceId")
	if err != nil {
		return payments.CreateInput{}, err
	}
	mode, err := enums.ParsePaymentMode(strings.ToUpper(strings.TrimSpace(r.PaymentMode)))
	if err != nil {
		return payments.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid paymentMode")
	}
	paymentDate, err := parseOptionalDate(r.PaymentDate, "paymentDate")
	if err != nil {
		return payments.CreateInput{}, err
	}
	return payments.CreateInput{
		InvoiceID:       invoiceID,
		Amount:          r.Amount,
		PaymentMode:     mode,
		ReferenceNumber: validators.SanitizeOptional(r.ReferenceNumber, maxTextLen),
		PaymentDate:     paymentDate,
		Remarks:         validators.SanitizeOptional(r.Remarks, maxTextLen),
		Actor:           actor,
	}, nil
}

// VendorPaymentCreate settles part or all of an invoice's pending amount.
func VendorPaymentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload paymentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, paymentResponseFromModel(created))
	}
}

func VendorPaymentGet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(found))
	}
}

func VendorPendingAmount(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := pathUUID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pending, err := svc.PendingAmountByVendor(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vendorId": vendorID, "pendingAmount": pending})
	}
}

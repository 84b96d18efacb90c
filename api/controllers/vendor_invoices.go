package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/api/responses"
	"github.com/angelmondragon/estateerp-backend/api/validators"
	"github.com/angelmondragon/estateerp-backend/internal/invoices"
	"github.com/angelmondragon/estateerp-backend/internal/payments"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

type invoiceItemRequest struct {
	GrnItemID string           `json:"grnItemId" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity" validate:"dec_gt0"`
	Rate      *decimal.Decimal `json:"rate" validate:"omitempty,dec_gte0"`
}

type invoiceCreateRequest struct {
	GrnID            string               `json:"grnId" validate:"required"`
	InvoiceDate      *string              `json:"invoiceDate"`
	DueDate          *string              `json:"dueDate"`
	VendorInvoiceRef *string              `json:"vendorInvoiceRef" validate:"omitempty,max=120"`
	Remarks          *string              `json:"remarks" validate:"omitempty,max=500"`
	Items            []invoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (r invoiceCreateRequest) toInput(actor string) (invoices.CreateInput, error) {
	grnID, err := parseUUID(r.GrnID, "grnId")
	if err != nil {
		return invoices.CreateInput{}, err
	}
	invoiceDate, err := parseOptionalDate(r.InvoiceDate, "invoiceDate")
	if err != nil {
		return invoices.CreateInput{}, err
	}
	dueDate, err := parseOptionalDate(r.DueDate, "dueDate")
	if err != nil {
		return invoices.CreateInput{}, err
	}
	items := make([]invoices.CreateItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		grnItemID, err := parseUUID(item.GrnItemID, "grnItemId")
		if err != nil {
			return invoices.CreateInput{}, err
		}
		items = append(items, invoices.CreateItemInput{GrnItemID: grnItemID, Quantity: item.Quantity, Rate: item.Rate})
	}
	return invoices.CreateInput{
		GrnID:            grnID,
		InvoiceDate:      invoiceDate,
		DueDate:          dueDate,
		VendorInvoiceRef: validators.SanitizeOptional(r.VendorInvoiceRef, maxTextLen),
		Remarks:          validators.SanitizeOptional(r.Remarks, maxTextLen),
		Items:            items,
		Actor:            actor,
	}, nil
}

func VendorInvoiceCreate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload invoiceCreateRequest
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
		responses.WriteSuccessStatus(w, http.StatusCreated, invoiceResponseFromModel(created))
	}
}

type invoiceListResponse struct {
	Items  []invoiceResponse `json:"items"`
	Cursor string            `json:"cursor,omitempty"`
}

func VendorInvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := invoices.ListInput{Params: params}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseInvoiceStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			input.Status = &status
		}
		if input.VendorID, err = optionalQueryUUID(r, "vendorId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := invoiceListResponse{Items: make([]invoiceResponse, 0, len(result.Items)), Cursor: result.Cursor}
		for i := range result.Items {
			out.Items = append(out.Items, invoiceResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func VendorInvoiceGet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoiceResponseFromModel(found))
	}
}

func VendorInvoicePayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByInvoice(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]paymentResponse, 0, len(rows))
		for i := range rows {
			out = append(out, paymentResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

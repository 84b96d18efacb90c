package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/api/responses"
	"github.com/angelmondragon/estateerp-backend/api/validators"
	"github.com/angelmondragon/estateerp-backend/internal/grn"
	"github.com/angelmondragon/estateerp-backend/internal/invoices"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

type grnItemRequest struct {
	POItemID string          `json:"poItemId" validate:"required"`
	Quantity decimal.Decimal `json:"quantity" validate:"dec_gt0"`
}

type grnCreateRequest struct {
	POID         string           `json:"poId" validate:"required"`
	ReceiptType  string           `json:"receiptType" validate:"required"`
	WarehouseID  *string          `json:"warehouseId"`
	ReceivedDate *string          `json:"receivedDate"`
	Remarks      *string          `json:"remarks" validate:"omitempty,max=500"`
	Items        []grnItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (r grnCreateRequest) toInput(actor string) (grn.CreateInput, error) {
	poID, err := parseUUID(r.POID, "poId")
	if err != nil {
		return grn.CreateInput{}, err
	}
	receiptType, err := enums.ParseReceiptType(strings.ToUpper(strings.TrimSpace(r.ReceiptType)))
	if err != nil {
		return grn.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid receiptType")
	}
	warehouseID, err := parseOptionalUUID(r.WarehouseID, "warehouseId")
	if err != nil {
		return grn.CreateInput{}, err
	}
	receivedDate, err := parseOptionalDate(r.ReceivedDate, "receivedDate")
	if err != nil {
		return grn.CreateInput{}, err
	}
	items := make([]grn.CreateItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		poItemID, err := parseUUID(item.POItemID, "poItemId")
		if err != nil {
			return grn.CreateInput{}, err
		}
		items = append(items, grn.CreateItemInput{PurchaseOrderItemID: poItemID, Quantity: item.Quantity})
	}
	return grn.CreateInput{
		PurchaseOrderID: poID,
		ReceiptType:     receiptType,
		WarehouseID:     warehouseID,
		ReceivedDate:    receivedDate,
		Remarks:         validators.SanitizeOptional(r.Remarks, maxTextLen),
		Items:           items,
		Actor:           actor,
	}, nil
}

// GrnCreate records a goods receipt against a purchase order and posts its stock.
func GrnCreate(svc grn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload grnCreateRequest
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
		responses.WriteSuccessStatus(w, http.StatusCreated, grnResponseFromModel(created))
	}
}

type grnListResponse struct {
	Items  []grnResponse `json:"items"`
	Cursor string        `json:"cursor,omitempty"`
}

func GrnList(svc grn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := grn.ListInput{Params: params}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseGrnStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			input.Status = &status
		}
		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := grnListResponse{Items: make([]grnResponse, 0, len(result.Items)), Cursor: result.Cursor}
		for i := range result.Items {
			out.Items = append(out.Items, grnResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func GrnGet(svc grn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "grnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, grnResponseFromModel(found))
	}
}

func GrnInvoices(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "grnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByGrn(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]invoiceResponse, 0, len(rows))
		for i := range rows {
			out = append(out, invoiceResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/api/responses"
	"github.com/angelmondragon/estateerp-backend/api/validators"
	"github.com/angelmondragon/estateerp-backend/internal/grn"
	"github.com/angelmondragon/estateerp-backend/internal/purchaseorders"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

type purchaseOrderItemRequest struct {
	ItemID   string          `json:"itemId" validate:"required"`
	Quantity decimal.Decimal `json:"quantity" validate:"dec_gt0"`
	Rate     decimal.Decimal `json:"rate" validate:"dec_gte0"`
}

type purchaseOrderCreateRequest struct {
	OrganizationID string                     `json:"organizationId" validate:"required"`
	ProjectID      *string                    `json:"projectId"`
	VendorID       string                     `json:"vendorId" validate:"required"`
	PODate         *string                    `json:"poDate"`
	Remarks        *string                    `json:"remarks" validate:"omitempty,max=500"`
	Items          []purchaseOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (r purchaseOrderCreateRequest) toInput(actor string) (purchaseorders.CreateInput, error) {
	orgID, err := parseUUID(r.OrganizationID, "organizationId")
	if err != nil {
		return purchaseorders.CreateInput{}, err
	}
	projectID, err := parseOptionalUUID(r.ProjectID, "projectId")
	if err != nil {
		return purchaseorders.CreateInput{}, err
	}
	vendorID, err := parseUUID(r.VendorID, "vendorId")
	if err != nil {
		return purchaseorders.CreateInput{}, err
	}
	poDate, err := parseOptionalDate(r.PODate, "poDate")
	if err != nil {
		return purchaseorders.CreateInput{}, err
	}
	items := make([]purchaseorders.CreateItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		itemID, err := parseUUID(item.ItemID, "itemId")
		if err != nil {
			return purchaseorders.CreateInput{}, err
		}
		items = append(items, purchaseorders.CreateItemInput{ItemID: itemID, Quantity: item.Quantity, Rate: item.Rate})
	}
	return purchaseorders.CreateInput{
		OrganizationID: orgID,
		ProjectID:      projectID,
		VendorID:       vendorID,
		PODate:         poDate,
		Remarks:        validators.SanitizeOptional(r.Remarks, maxTextLen),
		Items:          items,
		Actor:          actor,
	}, nil
}

func PurchaseOrderCreate(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload purchaseOrderCreateRequest
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
		responses.WriteSuccessStatus(w, http.StatusCreated, purchaseOrderResponseFromModel(created))
	}
}

type purchaseOrderListResponse struct {
	Items  []purchaseOrderResponse `json:"items"`
	Cursor string                  `json:"cursor,omitempty"`
}

// PurchaseOrderList supports status and vendorId filters with cursor pagination.
func PurchaseOrderList(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := purchaseorders.ListInput{Params: params}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePurchaseOrderStatus(strings.ToUpper(raw))
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
		out := purchaseOrderListResponse{Items: make([]purchaseOrderResponse, 0, len(result.Items)), Cursor: result.Cursor}
		for i := range result.Items {
			out.Items = append(out.Items, purchaseOrderResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func PurchaseOrderGet(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "poId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchaseOrderResponseFromModel(found))
	}
}

func PurchaseOrderCancel(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "poId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Cancel(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchaseOrderResponseFromModel(updated))
	}
}

// PurchaseOrderDelete removes an order that has no goods receipts.
func PurchaseOrderDelete(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "poId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func PurchaseOrderGrns(svc grn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "poId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByPurchaseOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]grnResponse, 0, len(rows))
		for i := range rows {
			out = append(out, grnResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/api/responses"
	"github.com/angelmondragon/estateerp-backend/api/validators"
	"github.com/angelmondragon/estateerp-backend/internal/inventory"
	"github.com/angelmondragon/estateerp-backend/internal/ledger"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

type stockPairRequest struct {
	WarehouseID string          `json:"warehouseId" validate:"required"`
	ItemID      string          `json:"itemId" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"dec_gt0"`
}

func (r stockPairRequest) ids() (uuid.UUID, uuid.UUID, error) {
	warehouseID, err := parseUUID(r.WarehouseID, "warehouseId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	itemID, err := parseUUID(r.ItemID, "itemId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return warehouseID, itemID, nil
}

type stockAddRequest struct {
	stockPairRequest
	Rate    decimal.Decimal `json:"rate" validate:"dec_gte0"`
	RefType string          `json:"refType" validate:"required"`
	RefID   *string         `json:"refId"`
	Remarks *string         `json:"remarks" validate:"omitempty,max=500"`
}

func (r stockAddRequest) toInput(actor string) (inventory.AddStockInput, error) {
	warehouseID, itemID, err := r.ids()
	if err != nil {
		return inventory.AddStockInput{}, err
	}
	refType, refID, err := parseRef(r.RefType, r.RefID)
	if err != nil {
		return inventory.AddStockInput{}, err
	}
	return inventory.AddStockInput{
		WarehouseID: warehouseID,
		ItemID:      itemID,
		Quantity:    r.Quantity,
		Rate:        r.Rate,
		RefType:     refType,
		RefID:       refID,
		Remarks:     validators.SanitizeOptional(r.Remarks, maxTextLen),
		Actor:       actor,
	}, nil
}

type stockDeductRequest struct {
	stockPairRequest
	RefType string  `json:"refType" validate:"required"`
	RefID   *string `json:"refId"`
	Remarks *string `json:"remarks" validate:"omitempty,max=500"`
}

func (r stockDeductRequest) toInput(actor string) (inventory.DeductStockInput, error) {
	warehouseID, itemID, err := r.ids()
	if err != nil {
		return inventory.DeductStockInput{}, err
	}
	refType, refID, err := parseRef(r.RefType, r.RefID)
	if err != nil {
		return inventory.DeductStockInput{}, err
	}
	return inventory.DeductStockInput{
		WarehouseID: warehouseID,
		ItemID:      itemID,
		Quantity:    r.Quantity,
		RefType:     refType,
		RefID:       refID,
		Remarks:     validators.SanitizeOptional(r.Remarks, maxTextLen),
		Actor:       actor,
	}, nil
}

type stockTransferRequest struct {
	FromWarehouseID string          `json:"fromWarehouseId" validate:"required"`
	ToWarehouseID   string          `json:"toWarehouseId" validate:"required"`
	ItemID          string          `json:"itemId" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity" validate:"dec_gt0"`
	Remarks         *string         `json:"remarks" validate:"omitempty,max=500"`
}

func (r stockTransferRequest) toInput(actor string) (inventory.TransferStockInput, error) {
	from, err := parseUUID(r.FromWarehouseID, "fromWarehouseId")
	if err != nil {
		return inventory.TransferStockInput{}, err
	}
	to, err := parseUUID(r.ToWarehouseID, "toWarehouseId")
	if err != nil {
		return inventory.TransferStockInput{}, err
	}
	itemID, err := parseUUID(r.ItemID, "itemId")
	if err != nil {
		return inventory.TransferStockInput{}, err
	}
	return inventory.TransferStockInput{
		FromWarehouseID: from,
		ToWarehouseID:   to,
		ItemID:          itemID,
		Quantity:        r.Quantity,
		Remarks:         validators.SanitizeOptional(r.Remarks, maxTextLen),
		Actor:           actor,
	}, nil
}

type stockAdjustRequest struct {
	stockPairRequest
	Increase bool    `json:"increase"`
	Remarks  *string `json:"remarks" validate:"omitempty,max=500"`
}

func parseRef(rawType string, rawID *string) (enums.StockRefType, uuid.UUID, error) {
	refType, err := enums.ParseStockRefType(strings.ToUpper(strings.TrimSpace(rawType)))
	if err != nil {
		return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid refType")
	}
	refID, err := parseOptionalUUID(rawID, "refId")
	if err != nil {
		return "", uuid.Nil, err
	}
	if refID == nil {
		return refType, uuid.New(), nil
	}
	return refType, *refID, nil
}

// StockAdd receives quantity into a warehouse at the given rate.
func StockAdd(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movement, err := svc.AddStock(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movementFrom(movement))
	}
}

// StockDeduct issues quantity out of a warehouse at its current average rate.
func StockDeduct(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockDeductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movement, err := svc.DeductStock(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movementFrom(movement))
	}
}

func StockTransfer(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.TransferStock(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"transferId": result.TransferID,
			"out":        movementFrom(result.Out),
			"in":         movementFrom(result.In),
		})
	}
}

func StockAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, itemID, err := payload.ids()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movement, err := svc.AdjustStock(r.Context(), inventory.AdjustStockInput{
			WarehouseID: warehouseID,
			ItemID:      itemID,
			Quantity:    payload.Quantity,
			Increase:    payload.Increase,
			Remarks:     validators.SanitizeOptional(payload.Remarks, maxTextLen),
			Actor:       actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movementFrom(movement))
	}
}

// StockReserve holds quantity against the available balance without moving it.
func StockReserve(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return reservationHandler(svc.ReserveStock, logg)
}

func StockRelease(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return reservationHandler(svc.ReleaseReservedStock, logg)
}

type reservationFunc func(context.Context, inventory.ReservationInput) (inventory.StockView, error)

func reservationHandler(apply reservationFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockPairRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, itemID, err := payload.ids()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := apply(r.Context(), inventory.ReservationInput{
			WarehouseID: warehouseID,
			ItemID:      itemID,
			Quantity:    payload.Quantity,
			Actor:       actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// StockQuery returns one pair when both ids are given, otherwise every row of the warehouse or item.
func StockQuery(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := optionalQueryUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := optionalQueryUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch {
		case warehouseID != nil && itemID != nil:
			view, err := svc.GetStock(r.Context(), *warehouseID, *itemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
		case warehouseID != nil:
			views, err := svc.StockByWarehouse(r.Context(), *warehouseID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, views)
		case itemID != nil:
			views, err := svc.StockByItem(r.Context(), *itemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, views)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "warehouseId or itemId is required"))
		}
	}
}

func StockAvailable(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := queryUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := queryUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		available, err := svc.AvailableStock(r.Context(), warehouseID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"warehouseId": warehouseID,
			"itemId":      itemID,
			"available":   available,
		})
	}
}

// StockLow lists a warehouse's rows whose available quantity is at or below the threshold.
func StockLow(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := queryUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		threshold, err := validators.ParseQueryDecimal(r, "threshold")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views, err := svc.LowStock(r.Context(), warehouseID, threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func StockItemTotal(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := svc.ItemTotal(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, total)
	}
}

func StockWarehouseSummary(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := pathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type ledgerHistoryResponse struct {
	Rows       []ledgerRowResponse `json:"rows"`
	NextCursor string              `json:"nextCursor,omitempty"`
}

// LedgerHistory pages through a pair's ledger in sequence order.
func LedgerHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := queryUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := queryUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.History(r.Context(), warehouseID, itemID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledgerHistoryResponse{
			Rows:       ledgerRowsFromModels(page.Rows),
			NextCursor: page.NextCursor,
		})
	}
}

// LedgerByReference lists every ledger row a source document produced.
func LedgerByReference(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refID, err := queryUUID(r, "refId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refType := enums.StockRefType(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("refType"))))
		rows, err := svc.ByReference(r.Context(), refType, refID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledgerRowsFromModels(rows))
	}
}

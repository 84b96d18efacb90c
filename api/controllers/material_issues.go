package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/api/responses"
	"github.com/angelmondragon/estateerp-backend/api/validators"
	"github.com/angelmondragon/estateerp-backend/internal/integration"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

// MaterialIssuer is the slice of the integration adapter used for site consumption.
type MaterialIssuer interface {
	IssueMaterial(ctx context.Context, input integration.IssueMaterialInput) (*integration.IssueResult, error)
}

// ExpenseProcessor replaces an expense's lines and posts their stock effect.
type ExpenseProcessor interface {
	ProcessExpenseItems(ctx context.Context, expenseID uuid.UUID, lines []integration.ExpenseItemInput, actor string) ([]models.ExpenseItem, error)
	ExpenseItems(ctx context.Context, expenseID uuid.UUID) ([]models.ExpenseItem, error)
}

type materialIssueRequest struct {
	stockPairRequest
	ProjectID *string `json:"projectId"`
	Remarks   *string `json:"remarks" validate:"omitempty,max=500"`
}

type materialIssueResponse struct {
	IssueID  uuid.UUID        `json:"issueId"`
	Movement movementResponse `json:"movement"`
}

func MaterialIssueCreate(svc MaterialIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload materialIssueRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, itemID, err := payload.ids()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		projectID, err := parseOptionalUUID(payload.ProjectID, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.IssueMaterial(r.Context(), integration.IssueMaterialInput{
			WarehouseID: warehouseID,
			ItemID:      itemID,
			Quantity:    payload.Quantity,
			ProjectID:   projectID,
			Remarks:     validators.SanitizeOptional(payload.Remarks, maxTextLen),
			Actor:       actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, materialIssueResponse{
			IssueID:  result.IssueID,
			Movement: movementFrom(result.Movement),
		})
	}
}

type expenseItemRequest struct {
	ItemID      *string         `json:"itemId"`
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" validate:"dec_gt0"`
	Rate        decimal.Decimal `json:"rate" validate:"dec_gte0"`
	StockEffect bool            `json:"stockEffect"`
	WarehouseID *string         `json:"warehouseId"`
}

type expenseItemsRequest struct {
	Items []expenseItemRequest `json:"items" validate:"dive"`
}

func (r expenseItemsRequest) toLines() ([]integration.ExpenseItemInput, error) {
	lines := make([]integration.ExpenseItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		itemID, err := parseOptionalUUID(item.ItemID, "itemId")
		if err != nil {
			return nil, err
		}
		warehouseID, err := parseOptionalUUID(item.WarehouseID, "warehouseId")
		if err != nil {
			return nil, err
		}
		lines = append(lines, integration.ExpenseItemInput{
			ItemID:      itemID,
			Description: validators.SanitizeString(item.Description, 500),
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			StockEffect: item.StockEffect,
			WarehouseID: warehouseID,
		})
	}
	return lines, nil
}

// ExpenseItemsReplace rewrites an expense's lines and receives the stock-effect ones.
func ExpenseItemsReplace(svc ExpenseProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expenseID, err := pathUUID(r, "expenseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload expenseItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := payload.toLines()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ProcessExpenseItems(r.Context(), expenseID, lines, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expenseItemsFromModels(rows))
	}
}

func ExpenseItemsList(svc ExpenseProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		expenseID, err := pathUUID(r, "expenseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ExpenseItems(r.Context(), expenseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expenseItemsFromModels(rows))
	}
}

func expenseItemsFromModels(rows []models.ExpenseItem) []expenseItemResponse {
	out := make([]expenseItemResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, expenseItemResponseFromModel(row))
	}
	return out
}

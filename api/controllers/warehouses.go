package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/estateerp-backend/api/responses"
	"github.com/angelmondragon/estateerp-backend/api/validators"
	"github.com/angelmondragon/estateerp-backend/internal/warehouses"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

type warehouseCreateRequest struct {
	OrganizationID string  `json:"organizationId" validate:"required"`
	ProjectID      *string `json:"projectId"`
	Name           string  `json:"name" validate:"required,max=120"`
	Code           string  `json:"code" validate:"required,max=40"`
	Type           string  `json:"type" validate:"required"`
}

func (r warehouseCreateRequest) toInput(actor string) (warehouses.CreateWarehouseInput, error) {
	orgID, err := parseUUID(r.OrganizationID, "organizationId")
	if err != nil {
		return warehouses.CreateWarehouseInput{}, err
	}
	projectID, err := parseOptionalUUID(r.ProjectID, "projectId")
	if err != nil {
		return warehouses.CreateWarehouseInput{}, err
	}
	kind, err := enums.ParseWarehouseType(strings.ToUpper(strings.TrimSpace(r.Type)))
	if err != nil {
		return warehouses.CreateWarehouseInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid warehouse type")
	}
	return warehouses.CreateWarehouseInput{
		OrganizationID: orgID,
		ProjectID:      projectID,
		Name:           validators.SanitizeString(r.Name, 120),
		Code:           validators.SanitizeString(r.Code, 40),
		Type:           kind,
		Actor:          actor,
	}, nil
}

// WarehouseCreate registers a stock location.
func WarehouseCreate(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload warehouseCreateRequest
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
		responses.WriteSuccessStatus(w, http.StatusCreated, warehouseResponseFromModel(created))
	}
}

func WarehouseGet(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, warehouseResponseFromModel(found))
	}
}

// WarehouseList lists an organization's warehouses; includeInactive=true adds deactivated ones.
func WarehouseList(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := queryUUID(r, "organizationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeInactive := strings.EqualFold(r.URL.Query().Get("includeInactive"), "true")

		rows, err := svc.List(r.Context(), orgID, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]warehouseResponse, 0, len(rows))
		for i := range rows {
			out = append(out, warehouseResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func WarehouseDeactivate(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Deactivate(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, warehouseResponseFromModel(updated))
	}
}

package warehouses

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/db"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

// CreateWarehouseInput carries the admin request to register a warehouse.
type CreateWarehouseInput struct {
	OrganizationID uuid.UUID
	ProjectID      *uuid.UUID
	Name           string
	Code           string
	Type           enums.WarehouseType
	Actor          string
}

// Service exposes warehouse master operations.
type Service interface {
	Create(ctx context.Context, input CreateWarehouseInput) (*models.Warehouse, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	List(ctx context.Context, organizationID uuid.UUID, includeInactive bool) ([]models.Warehouse, error)
	Deactivate(ctx context.Context, id uuid.UUID, actor string) (*models.Warehouse, error)
}

type service struct {
	repo   Repository
	logger *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse repository is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logger: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateWarehouseInput) (*models.Warehouse, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	switch {
	case input.OrganizationID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	case name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case code == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	case !input.Type.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid warehouse type")
	case strings.TrimSpace(input.Actor) == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if input.Type == enums.WarehouseTypeProject && (input.ProjectID == nil || *input.ProjectID == uuid.Nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id is required for project warehouses")
	}
	if input.Type == enums.WarehouseTypeOrganization && input.ProjectID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization warehouses cannot reference a project")
	}

	warehouse := &models.Warehouse{
		OrganizationID: input.OrganizationID,
		ProjectID:      input.ProjectID,
		Name:           name,
		Code:           code,
		Type:           input.Type,
		IsActive:       true,
		CreatedBy:      input.Actor,
		UpdatedBy:      input.Actor,
	}
	if err := s.repo.Create(ctx, warehouse); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "warehouse code already exists").
				WithDetails(map[string]any{"code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create warehouse")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{"warehouse_id": warehouse.ID.String(), "code": code})
	s.logger.Info(logCtx, "warehouse.created")
	return warehouse, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	warehouse, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "warehouse not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}
	return warehouse, nil
}

func (s *service) List(ctx context.Context, organizationID uuid.UUID, includeInactive bool) ([]models.Warehouse, error) {
	if organizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	rows, err := s.repo.ListByOrganization(ctx, organizationID, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouses")
	}
	return rows, nil
}

// Deactivate is idempotent; stock rows stay in place as history.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID, actor string) (*models.Warehouse, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	warehouse, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !warehouse.IsActive {
		return warehouse, nil
	}
	if err := s.repo.Deactivate(ctx, id, actor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate warehouse")
	}
	warehouse.IsActive = false
	warehouse.UpdatedBy = actor
	s.logger.Info(s.logger.WithField(ctx, "warehouse_id", id.String()), "warehouse.deactivated")
	return warehouse, nil
}

package warehouses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
)

// Repository manages warehouse rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, warehouse *models.Warehouse) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, includeInactive bool) ([]models.Warehouse, error)
	Deactivate(ctx context.Context, id uuid.UUID, actor string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, warehouse *models.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&warehouse).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *repository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, includeInactive bool) ([]models.Warehouse, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", organizationID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Warehouse
	if err := query.Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID, actor string) error {
	return r.db.WithContext(ctx).
		Model(&models.Warehouse{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "updated_by": actor}).
		Error
}

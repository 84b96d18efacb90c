package grn

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	"github.com/angelmondragon/estateerp-backend/pkg/pagination"
)

// Repository persists goods receipts. GRNs are never deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, grn *models.Grn) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Grn, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Grn, error)
	LockItems(ctx context.Context, grnID uuid.UUID) ([]models.GrnItem, error)
	SaveItemInvoiced(ctx context.Context, item *models.GrnItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.GrnStatus, actor string) error
	ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.Grn, error)
	List(ctx context.Context, params listParams) ([]models.Grn, *pagination.Cursor, error)
}

type listParams struct {
	Status *enums.GrnStatus
	Limit  int
	Cursor *pagination.Cursor
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

func (r *repository) Create(ctx context.Context, grn *models.Grn) error {
	return r.db.WithContext(ctx).Create(grn).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Grn, error) {
	var grn models.Grn
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Where("id = ?", id).
		Take(&grn).Error
	if err != nil {
		return nil, err
	}
	return &grn, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Grn, error) {
	var grn models.Grn
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&grn).Error
	if err != nil {
		return nil, err
	}
	return &grn, nil
}

func (r *repository) LockItems(ctx context.Context, grnID uuid.UUID) ([]models.GrnItem, error) {
	var rows []models.GrnItem
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("grn_id = ?", grnID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SaveItemInvoiced(ctx context.Context, item *models.GrnItem) error {
	return r.db.WithContext(ctx).
		Model(&models.GrnItem{}).
		Where("id = ?", item.ID).
		Update("quantity_invoiced", item.QuantityInvoiced).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.GrnStatus, actor string) error {
	return r.db.WithContext(ctx).
		Model(&models.Grn{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_by": actor,
		}).Error
}

func (r *repository) ListByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.Grn, error) {
	var rows []models.Grn
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Grn, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Grn{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var rows []models.Grn
	if err := query.Scopes(pagination.Keyset(params.Cursor)).Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.TrimPage(rows, params.Limit, func(row models.Grn) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}

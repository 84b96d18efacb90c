package purchaseorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	"github.com/angelmondragon/estateerp-backend/pkg/pagination"
)

// Repository persists purchase orders and their lines. Lock* reads must run inside a transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, po *models.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	LockItems(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.PurchaseOrderItem, error)
	LockItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PurchaseOrderItem, error)
	SaveItemCounters(ctx context.Context, item *models.PurchaseOrderItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PurchaseOrderStatus, actor string) error
	CountGrns(ctx context.Context, purchaseOrderID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params listParams) ([]models.PurchaseOrder, *pagination.Cursor, error)
}

type listParams struct {
	Status   *enums.PurchaseOrderStatus
	VendorID *uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
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

// Create inserts the order and its Items in one statement batch.
func (r *repository) Create(ctx context.Context, po *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Where("id = ?", id).
		Take(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// LockItems locks every line of the order in id order.
func (r *repository) LockItems(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.PurchaseOrderItem, error) {
	var rows []models.PurchaseOrderItem
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) LockItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PurchaseOrderItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.PurchaseOrderItem
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SaveItemCounters(ctx context.Context, item *models.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrderItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"received_quantity": item.ReceivedQuantity,
			"invoiced_quantity": item.InvoicedQuantity,
		}).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PurchaseOrderStatus, actor string) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_by": actor,
		}).Error
}

func (r *repository) CountGrns(ctx context.Context, purchaseOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Grn{}).
		Where("purchase_order_id = ?", purchaseOrderID).
		Count(&count).Error
	return count, err
}

// Delete removes the order's lines and then the order.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", id).
		Delete(&models.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PurchaseOrder{}).Error
}

// List returns orders newest first; lines are not loaded.
func (r *repository) List(ctx context.Context, params listParams) ([]models.PurchaseOrder, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrder{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.VendorID != nil {
		query = query.Where("vendor_id = ?", *params.VendorID)
	}

	var rows []models.PurchaseOrder
	if err := query.Scopes(pagination.Keyset(params.Cursor)).Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.TrimPage(rows, params.Limit, func(row models.PurchaseOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}

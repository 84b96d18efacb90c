package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
)

// Repository persists stock aggregates. Lock* reads take a row lock and must run inside a transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockStock(ctx context.Context, warehouseID, itemID uuid.UUID) (*models.Stock, error)
	LockOrCreateStock(ctx context.Context, warehouseID, itemID uuid.UUID, actor string) (*models.Stock, error)
	SaveStock(ctx context.Context, stock *models.Stock) error
	FindStock(ctx context.Context, warehouseID, itemID uuid.UUID) (*models.Stock, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.Stock, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Stock, error)
	ListAll(ctx context.Context) ([]models.Stock, error)
	ListAfterID(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Stock, error)
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

func (r *repository) LockStock(ctx context.Context, warehouseID, itemID uuid.UUID) (*models.Stock, error) {
	var stock models.Stock
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("warehouse_id = ? AND item_id = ?", warehouseID, itemID).
		Take(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// LockOrCreateStock inserts an empty row for a new pair and then locks whichever row won.
// Concurrent first receipts race on the unique index, not on the application.
func (r *repository) LockOrCreateStock(ctx context.Context, warehouseID, itemID uuid.UUID, actor string) (*models.Stock, error) {
	seed := models.Stock{
		WarehouseID: warehouseID,
		ItemID:      itemID,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "warehouse_id"}, {Name: "item_id"}},
			DoNothing: true,
		}).
		Create(&seed).Error
	if err != nil {
		return nil, err
	}
	return r.LockStock(ctx, warehouseID, itemID)
}

func (r *repository) SaveStock(ctx context.Context, stock *models.Stock) error {
	return r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("id = ?", stock.ID).
		Updates(map[string]any{
			"quantity":          stock.Quantity,
			"reserved_quantity": stock.ReservedQuantity,
			"avg_rate":          stock.AvgRate,
			"ledger_seq":        stock.LedgerSeq,
			"updated_by":        stock.UpdatedBy,
		}).Error
}

func (r *repository) FindStock(ctx context.Context, warehouseID, itemID uuid.UUID) (*models.Stock, error) {
	var stock models.Stock
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND item_id = ?", warehouseID, itemID).
		Take(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *repository) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.Stock, error) {
	var rows []models.Stock
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("item_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Stock, error) {
	var rows []models.Stock
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("warehouse_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Stock, error) {
	var rows []models.Stock
	if err := r.db.WithContext(ctx).
		Order("warehouse_id ASC").
		Order("item_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAfterID pages through every stock row by id, used by reconciliation.
func (r *repository) ListAfterID(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Stock, error) {
	query := r.db.WithContext(ctx).Order("id ASC").Limit(limit)
	if afterID != uuid.Nil {
		query = query.Where("id > ?", afterID)
	}
	var rows []models.Stock
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// Repository appends and reads stock ledger rows. There is no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, row *models.StockLedger) error
	ListByPair(ctx context.Context, warehouseID, itemID uuid.UUID) ([]models.StockLedger, error)
	ListByPairAfter(ctx context.Context, warehouseID, itemID uuid.UUID, afterSequence int64, limit int) ([]models.StockLedger, error)
	ListByRef(ctx context.Context, refType enums.StockRefType, refID uuid.UUID) ([]models.StockLedger, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, row *models.StockLedger) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ListByPair returns every row of the pair in replay order.
func (r *repository) ListByPair(ctx context.Context, warehouseID, itemID uuid.UUID) ([]models.StockLedger, error) {
	var rows []models.StockLedger
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND item_id = ?", warehouseID, itemID).
		Order("txn_date ASC").
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByPairAfter(ctx context.Context, warehouseID, itemID uuid.UUID, afterSequence int64, limit int) ([]models.StockLedger, error) {
	var rows []models.StockLedger
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND item_id = ? AND sequence > ?", warehouseID, itemID, afterSequence).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByRef(ctx context.Context, refType enums.StockRefType, refID uuid.UUID) ([]models.StockLedger, error) {
	var rows []models.StockLedger
	if err := r.db.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ?", refType, refID).
		Order("created_at ASC").
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

package invoices

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	"github.com/angelmondragon/estateerp-backend/pkg/pagination"
)

// Repository persists vendor invoices. Balances change only through UpdateBalance.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.VendorInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.VendorInvoice, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.VendorInvoice, error)
	UpdateBalance(ctx context.Context, invoice *models.VendorInvoice, actor string) error
	ListByGrn(ctx context.Context, grnID uuid.UUID) ([]models.VendorInvoice, error)
	List(ctx context.Context, params listParams) ([]models.VendorInvoice, *pagination.Cursor, error)
	SumPendingByVendor(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error)
}

type listParams struct {
	Status   *enums.InvoiceStatus
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

func (r *repository) Create(ctx context.Context, invoice *models.VendorInvoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorInvoice, error) {
	var invoice models.VendorInvoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Where("id = ?", id).
		Take(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.VendorInvoice, error) {
	var invoice models.VendorInvoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) UpdateBalance(ctx context.Context, invoice *models.VendorInvoice, actor string) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorInvoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"paid_amount":    invoice.PaidAmount,
			"pending_amount": invoice.PendingAmount,
			"status":         invoice.Status,
			"updated_by":     actor,
		}).Error
}

func (r *repository) ListByGrn(ctx context.Context, grnID uuid.UUID) ([]models.VendorInvoice, error) {
	var rows []models.VendorInvoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("grn_id = ?", grnID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.VendorInvoice, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.VendorInvoice{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.VendorID != nil {
		query = query.Where("vendor_id = ?", *params.VendorID)
	}

	var rows []models.VendorInvoice
	if err := query.Scopes(pagination.Keyset(params.Cursor)).Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.TrimPage(rows, params.Limit, func(row models.VendorInvoice) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}

func (r *repository) SumPendingByVendor(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.VendorInvoice{}).
		Select("SUM(pending_amount) AS total").
		Where("vendor_id = ?", vendorID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal.Round(2), nil
}

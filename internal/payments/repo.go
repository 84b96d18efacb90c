package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
)

// Repository stores vendor payments. Rows are insert-only; the model rejects updates and deletes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.VendorPaymentPO) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.VendorPaymentPO, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.VendorPaymentPO, error)
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

func (r *repository) Create(ctx context.Context, payment *models.VendorPaymentPO) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorPaymentPO, error) {
	var payment models.VendorPaymentPO
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.VendorPaymentPO, error) {
	var rows []models.VendorPaymentPO
	if err := r.db.WithContext(ctx).
		Where("vendor_invoice_id = ?", invoiceID).
		Order("payment_date ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

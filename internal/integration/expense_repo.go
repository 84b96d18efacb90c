package integration

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
)

// ExpenseRepository stores the item lines of externally owned expenses.
type ExpenseRepository interface {
	WithTx(tx *gorm.DB) ExpenseRepository
	Replace(ctx context.Context, expenseID uuid.UUID, rows []models.ExpenseItem) error
	ListByExpense(ctx context.Context, expenseID uuid.UUID) ([]models.ExpenseItem, error)
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) WithTx(tx *gorm.DB) ExpenseRepository {
	if tx == nil {
		return r
	}
	return &expenseRepository{db: tx}
}

// Replace deletes every existing line of the expense and inserts rows.
func (r *expenseRepository) Replace(ctx context.Context, expenseID uuid.UUID, rows []models.ExpenseItem) error {
	if err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Delete(&models.ExpenseItem{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *expenseRepository) ListByExpense(ctx context.Context, expenseID uuid.UUID) ([]models.ExpenseItem, error) {
	var rows []models.ExpenseItem
	if err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Package items is the read-only view of the item master owned by the master-data service.
package items

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
)

// Info is the subset of item master data stock movements depend on.
type Info struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Unit string    `json:"unit"`
}

// Lookup resolves item ids against the item master.
type Lookup interface {
	WithTx(tx *gorm.DB) Lookup
	Get(ctx context.Context, itemID uuid.UUID) (Info, error)
}

type lookup struct {
	db *gorm.DB
}

func NewLookup(db *gorm.DB) Lookup {
	return &lookup{db: db}
}

func (l *lookup) WithTx(tx *gorm.DB) Lookup {
	if tx == nil {
		return l
	}
	return &lookup{db: tx}
}

// Get returns NOT_FOUND for unknown and inactive items.
func (l *lookup) Get(ctx context.Context, itemID uuid.UUID) (Info, error) {
	if itemID == uuid.Nil {
		return Info{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	var item models.Item
	err := l.db.WithContext(ctx).
		Select("id", "name", "unit", "is_active").
		Where("id = ?", itemID).
		Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Info{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found").WithDetails(map[string]any{"itemId": itemID})
		}
		return Info{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if !item.IsActive {
		return Info{}, pkgerrors.New(pkgerrors.CodeNotFound, "item not found").WithDetails(map[string]any{"itemId": itemID})
	}
	return Info{ID: item.ID, Name: item.Name, Unit: item.Unit}, nil
}

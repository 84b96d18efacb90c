package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// Warehouse is a physical stock location owned by an organization, optionally scoped to a project.
type Warehouse struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID           `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:ux_warehouses_org_code,priority:1"`
	ProjectID      *uuid.UUID          `gorm:"column:project_id;type:uuid"`
	Name           string              `gorm:"column:name;not null"`
	Code           string              `gorm:"column:code;not null;uniqueIndex:ux_warehouses_org_code,priority:2"`
	Type           enums.WarehouseType `gorm:"column:type;type:text;not null"`
	IsActive       bool                `gorm:"column:is_active;not null"`
	CreatedBy      string              `gorm:"column:created_by;not null"`
	UpdatedBy      string              `gorm:"column:updated_by;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Warehouse) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

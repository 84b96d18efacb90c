package dbtest

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/estateerp-backend/pkg/db"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// SeedWarehouse inserts an organization warehouse with a unique code.
func SeedWarehouse(t testing.TB, client *db.Client, active bool) models.Warehouse {
	t.Helper()
	warehouse := models.Warehouse{
		OrganizationID: uuid.New(),
		Name:           "Test Warehouse",
		Code:           "WH-" + uuid.NewString()[:8],
		Type:           enums.WarehouseTypeOrganization,
		IsActive:       active,
		CreatedBy:      "seed",
		UpdatedBy:      "seed",
	}
	if err := client.DB().Create(&warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	return warehouse
}

// SeedItem inserts an active item master row.
func SeedItem(t testing.TB, client *db.Client, name string) models.Item {
	t.Helper()
	item := models.Item{
		OrganizationID: uuid.New(),
		Name:           name,
		Unit:           "bag",
		IsActive:       true,
	}
	if err := client.DB().Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

package warehouses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estateerp-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	client := dbtest.NewSQLite(t)
	svc, err := NewService(NewRepository(client.DB()), logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestCreateWarehouse(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	orgID := uuid.New()

	warehouse, err := svc.Create(ctx, CreateWarehouseInput{
		OrganizationID: orgID,
		Name:           "Central Store",
		Code:           " ws-01 ",
		Type:           enums.WarehouseTypeOrganization,
		Actor:          "admin@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "WS-01", warehouse.Code)
	require.True(t, warehouse.IsActive)
	require.NotEqual(t, uuid.Nil, warehouse.ID)

	_, err = svc.Create(ctx, CreateWarehouseInput{
		OrganizationID: orgID,
		Name:           "Duplicate",
		Code:           "WS-01",
		Type:           enums.WarehouseTypeOrganization,
		Actor:          "admin@example.com",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.Create(ctx, CreateWarehouseInput{
		OrganizationID: uuid.New(),
		Name:           "Other org, same code",
		Code:           "WS-01",
		Type:           enums.WarehouseTypeOrganization,
		Actor:          "admin@example.com",
	})
	require.NoError(t, err)
}

func TestCreateWarehouseValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	projectID := uuid.New()

	cases := map[string]CreateWarehouseInput{
		"missing org":        {Name: "A", Code: "A", Type: enums.WarehouseTypeOrganization, Actor: "a"},
		"missing name":       {OrganizationID: uuid.New(), Code: "A", Type: enums.WarehouseTypeOrganization, Actor: "a"},
		"bad type":           {OrganizationID: uuid.New(), Name: "A", Code: "A", Type: "YARD", Actor: "a"},
		"project without id": {OrganizationID: uuid.New(), Name: "A", Code: "A", Type: enums.WarehouseTypeProject, Actor: "a"},
		"org with project":   {OrganizationID: uuid.New(), Name: "A", Code: "A", Type: enums.WarehouseTypeOrganization, ProjectID: &projectID, Actor: "a"},
		"missing actor":      {OrganizationID: uuid.New(), Name: "A", Code: "A", Type: enums.WarehouseTypeOrganization},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, input)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestDeactivateAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	orgID := uuid.New()
	projectID := uuid.New()

	site, err := svc.Create(ctx, CreateWarehouseInput{
		OrganizationID: orgID, ProjectID: &projectID, Name: "Site", Code: "SITE", Type: enums.WarehouseTypeProject, Actor: "a",
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateWarehouseInput{
		OrganizationID: orgID, Name: "HQ", Code: "HQ", Type: enums.WarehouseTypeOrganization, Actor: "a",
	})
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(ctx, site.ID, "b")
	require.NoError(t, err)
	require.False(t, deactivated.IsActive)

	again, err := svc.Deactivate(ctx, site.ID, "b")
	require.NoError(t, err)
	require.False(t, again.IsActive)

	active, err := svc.List(ctx, orgID, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "HQ", active[0].Code)

	all, err := svc.List(ctx, orgID, true)
	require.NoError(t, err)
	require.Len(t, all, 2)

	reloaded, err := svc.Get(ctx, site.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsActive)
	require.Equal(t, "b", reloaded.UpdatedBy)
}

func TestGetUnknownWarehouse(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

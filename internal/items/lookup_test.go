package items

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estateerp-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
)

func TestLookupGet(t *testing.T) {
	client := dbtest.NewSQLite(t)
	ctx := context.Background()

	cement := models.Item{OrganizationID: uuid.New(), Name: "Cement OPC 53", Unit: "bag", IsActive: true}
	retired := models.Item{OrganizationID: uuid.New(), Name: "Old tiles", Unit: "box", IsActive: false}
	require.NoError(t, client.DB().Create(&cement).Error)
	require.NoError(t, client.DB().Create(&retired).Error)

	lookup := NewLookup(client.DB())

	info, err := lookup.Get(ctx, cement.ID)
	require.NoError(t, err)
	require.Equal(t, "Cement OPC 53", info.Name)
	require.Equal(t, "bag", info.Unit)

	_, err = lookup.Get(ctx, retired.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = lookup.Get(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = lookup.Get(ctx, uuid.Nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

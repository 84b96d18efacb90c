//go:build postgres

package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estateerp-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
)

func TestConcurrentMovementsKeepLedgerContiguous(t *testing.T) {
	f := newFixtureOn(t, dbtest.NewPostgres(t))
	ctx := context.Background()
	warehouse := dbtest.SeedWarehouse(t, f.client, true)
	item := dbtest.SeedItem(t, f.client, "Cement")
	f.add(t, warehouse.ID, item.ID, "30", "10")

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddStock(ctx, AddStockInput{
				WarehouseID: warehouse.ID, ItemID: item.ID, Quantity: dec("2"), Rate: dec("10"),
				RefType: enums.StockRefGRN, RefID: uuid.New(), Actor: testActor,
			})
			errs <- err
		}()
	}
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.DeductStock(ctx, DeductStockInput{
				WarehouseID: warehouse.ID, ItemID: item.ID, Quantity: dec("1"),
				RefType: enums.StockRefMaterialIssue, RefID: uuid.New(), Actor: testActor,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stock, err := f.svc.GetStock(ctx, warehouse.ID, item.ID)
	require.NoError(t, err)
	require.True(t, stock.Quantity.Equal(dec("40")), "quantity %s", stock.Quantity)

	rows, err := f.ledger.ListByPair(ctx, warehouse.ID, item.ID)
	require.NoError(t, err)
	require.Len(t, rows, 51)
	for i, row := range rows {
		require.Equal(t, int64(i+1), row.Sequence)
	}
	result, err := f.svc.VerifyLedger(ctx, warehouse.ID, item.ID)
	require.NoError(t, err)
	require.True(t, result.Matches)
}

func TestConcurrentDeductsNeverOversell(t *testing.T) {
	f := newFixtureOn(t, dbtest.NewPostgres(t))
	ctx := context.Background()
	warehouse := dbtest.SeedWarehouse(t, f.client, true)
	item := dbtest.SeedItem(t, f.client, "Steel")
	f.add(t, warehouse.ID, item.ID, "5", "60")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.DeductStock(ctx, DeductStockInput{
				WarehouseID: warehouse.ID, ItemID: item.ID, Quantity: dec("1"),
				RefType: enums.StockRefMaterialIssue, RefID: uuid.New(), Actor: testActor,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)
	}
	require.Equal(t, 5, succeeded)

	stock, err := f.svc.GetStock(ctx, warehouse.ID, item.ID)
	require.NoError(t, err)
	require.True(t, stock.Quantity.IsZero(), "quantity %s", stock.Quantity)
}

//go:build postgres

package grn

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estateerp-backend/internal/purchaseorders"
	"github.com/angelmondragon/estateerp-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
)

func TestConcurrentReceiptsStopAtOrderedQuantity(t *testing.T) {
	f := newFixtureOn(t, dbtest.NewPostgres(t))
	ctx := context.Background()
	item := dbtest.SeedItem(t, f.client, "Sand")
	po := f.purchaseOrder(t, purchaseorders.CreateItemInput{ItemID: item.ID, Quantity: qty(10), Rate: qty(40)})
	lineID := po.Items[0].ID

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.grns.Create(ctx, directInput(po, CreateItemInput{PurchaseOrderItemID: lineID, Quantity: qty(2)}))
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
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOverReceipt), "got %v", err)
	}
	require.Equal(t, 5, succeeded)

	reloaded := f.reloadPO(t, po.ID)
	require.Equal(t, enums.PurchaseOrderStatusClosed, reloaded.Status)
	require.True(t, reloaded.Items[0].ReceivedQuantity.Equal(qty(10)), "received %s", reloaded.Items[0].ReceivedQuantity)

	receipts, err := f.grns.ListByPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, receipts, 5)
}

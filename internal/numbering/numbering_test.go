package numbering

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/db"
	"github.com/angelmondragon/estateerp-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	"github.com/angelmondragon/estateerp-backend/pkg/lock"
)

func fixedClock(day string) func() time.Time {
	return func() time.Time {
		t, _ := time.Parse(dateLayout, day)
		return t.Add(10 * time.Hour)
	}
}

func insertPO(t *testing.T, tx *gorm.DB, number string) {
	t.Helper()
	po := models.PurchaseOrder{
		PONumber:       number,
		OrganizationID: uuid.New(),
		VendorID:       uuid.New(),
		PODate:         time.Now().UTC(),
		TotalAmount:    decimal.Zero,
		Status:         enums.PurchaseOrderStatusOpen,
		CreatedBy:      "test",
		UpdatedBy:      "test",
	}
	require.NoError(t, tx.Create(&po).Error)
}

func TestFormatAndParse(t *testing.T) {
	require.Equal(t, "PO-20240301-001", Format("PO", "20240301", 1))
	require.Equal(t, "GRN-20240301-1000", Format("GRN", "20240301", 1000))

	seq, err := ParseSequence("INV-20240301-042", "INV", "20240301")
	require.NoError(t, err)
	require.Equal(t, 42, seq)

	_, err = ParseSequence("INV-20240229-042", "INV", "20240301")
	require.Error(t, err)
	_, err = ParseSequence("INV-20240301-abc", "INV", "20240301")
	require.Error(t, err)
}

func TestNextStartsAtOneEachDay(t *testing.T) {
	client := dbtest.NewSQLite(t)
	ctx := context.Background()
	gen := NewGenerator(nil, 0).WithClock(fixedClock("20240301"))

	number, err := gen.Next(ctx, client.DB(), PurchaseOrder)
	require.NoError(t, err)
	require.Equal(t, "PO-20240301-001", number)
	insertPO(t, client.DB(), number)

	number, err = gen.Next(ctx, client.DB(), PurchaseOrder)
	require.NoError(t, err)
	require.Equal(t, "PO-20240301-002", number)
	insertPO(t, client.DB(), number)

	tomorrow := gen.WithClock(fixedClock("20240302"))
	number, err = tomorrow.Next(ctx, client.DB(), PurchaseOrder)
	require.NoError(t, err)
	require.Equal(t, "PO-20240302-001", number)
}

func TestNextGrowsPastNineNineNine(t *testing.T) {
	client := dbtest.NewSQLite(t)
	ctx := context.Background()
	gen := NewGenerator(nil, 0).WithClock(fixedClock("20240301"))

	insertPO(t, client.DB(), "PO-20240301-999")
	insertPO(t, client.DB(), "PO-20240301-1000")

	number, err := gen.Next(ctx, client.DB(), PurchaseOrder)
	require.NoError(t, err)
	require.Equal(t, "PO-20240301-1001", number)
}

func TestLockedNumbersAreUniqueAndOrdered(t *testing.T) {
	client := dbtest.NewSQLite(t)
	ctx := context.Background()
	gen := NewGenerator(lock.NewLocalLocker(), time.Second).WithClock(fixedClock("20240301"))

	const writers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		issued []string
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := gen.Locked(ctx, PurchaseOrder, func(ctx context.Context) error {
				return client.WithTx(ctx, func(tx *gorm.DB) error {
					number, err := gen.Next(ctx, tx, PurchaseOrder)
					if err != nil {
						return err
					}
					po := models.PurchaseOrder{
						PONumber:       number,
						OrganizationID: uuid.New(),
						VendorID:       uuid.New(),
						PODate:         time.Now().UTC(),
						Status:         enums.PurchaseOrderStatusOpen,
						CreatedBy:      "test",
						UpdatedBy:      "test",
					}
					if err := tx.Create(&po).Error; err != nil {
						return err
					}
					mu.Lock()
					issued = append(issued, number)
					mu.Unlock()
					return nil
				})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, issued, writers)
	seen := map[string]bool{}
	for i, number := range issued {
		require.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
		require.Equal(t, Format("PO", "20240301", i+1), number)
	}

	var count int64
	require.NoError(t, client.DB().Model(&models.PurchaseOrder{}).Count(&count).Error)
	require.EqualValues(t, writers, count)
}

func TestUniqueIndexIsFinalGuard(t *testing.T) {
	client := dbtest.NewSQLite(t)
	insertPO(t, client.DB(), "PO-20240301-001")

	dup := models.PurchaseOrder{
		PONumber:       "PO-20240301-001",
		OrganizationID: uuid.New(),
		VendorID:       uuid.New(),
		PODate:         time.Now().UTC(),
		Status:         enums.PurchaseOrderStatusOpen,
		CreatedBy:      "test",
		UpdatedBy:      "test",
	}
	err := client.DB().Create(&dup).Error
	require.True(t, db.IsUniqueViolation(err, ""), "got %v", err)
}

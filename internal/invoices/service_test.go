package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/internal/grn"
	"github.com/angelmondragon/estateerp-backend/internal/inventory"
	"github.com/angelmondragon/estateerp-backend/internal/items"
	"github.com/angelmondragon/estateerp-backend/internal/numbering"
	"github.com/angelmondragon/estateerp-backend/internal/purchaseorders"
	"github.com/angelmondragon/estateerp-backend/pkg/db"
	"github.com/angelmondragon/estateerp-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estateerp-backend/pkg/errors"
	"github.com/angelmondragon/estateerp-backend/pkg/lock"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
	"github.com/angelmondragon/estateerp-backend/pkg/outbox"
	"github.com/angelmondragon/estateerp-backend/pkg/pagination"
)

const accountant = "accounts@example.com"

// noStock stands in for the inventory adapter; these tests only take direct-consume receipts.
type noStock struct{}

func (noStock) ProcessGrnApproval(context.Context, *gorm.DB, *models.Grn, string) ([]inventory.Movement, error) {
	return nil, nil
}

func (noStock) RecordCommitted(context.Context, ...inventory.Movement) {}

type fixture struct {
	client   *db.Client
	invoices Service
	grns     grn.Service
	pos      purchaseorders.Service
	outbox   *outbox.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.NewSQLite(t)
	conn := client.DB()
	outboxRepo := outbox.NewRepository(conn)
	emitter := outbox.NewService(outboxRepo, logger.Nop())
	numbers := numbering.NewGenerator(lock.NewLocalLocker(), time.Second)
	poRepo := purchaseorders.NewRepository(conn)
	grnRepo := grn.NewRepository(conn)

	pos, err := purchaseorders.NewService(purchaseorders.ServiceParams{
		Repo:      poRepo,
		Items:     items.NewLookup(conn),
		Numbering: numbers,
		DB:        client,
	})
	require.NoError(t, err)
	grns, err := grn.NewService(grn.ServiceParams{
		Repo:           grnRepo,
		PurchaseOrders: poRepo,
		Stock:          noStock{},
		Numbering:      numbers,
		DB:             client,
	})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:           NewRepository(conn),
		Grns:           grnRepo,
		PurchaseOrders: poRepo,
		Numbering:      numbers,
		DB:             client,
		Outbox:         emitter,
		Logger:         logger.Nop(),
	})
	require.NoError(t, err)
	return fixture{client: client, invoices: svc, grns: grns, pos: pos, outbox: outboxRepo}
}

func amount(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// receipt orders 100 units at 350 and receives 60 of them.
func (f fixture) receipt(t *testing.T, vendorID uuid.UUID) (*models.PurchaseOrder, *models.Grn) {
	t.Helper()
	ctx := context.Background()
	item := dbtest.SeedItem(t, f.client, "Cement")
	project := uuid.New()
	po, err := f.pos.Create(ctx, purchaseorders.CreateInput{
		OrganizationID: uuid.New(),
		ProjectID:      &project,
		VendorID:       vendorID,
		Items:          []purchaseorders.CreateItemInput{{ItemID: item.ID, Quantity: amount("100"), Rate: amount("350")}},
		Actor:          accountant,
	})
	require.NoError(t, err)
	received, err := f.grns.Create(ctx, grn.CreateInput{
		PurchaseOrderID: po.ID,
		ReceiptType:     enums.ReceiptTypeDirectConsume,
		Items:           []grn.CreateItemInput{{PurchaseOrderItemID: po.Items[0].ID, Quantity: amount("60")}},
		Actor:           accountant,
	})
	require.NoError(t, err)
	return po, received
}

func TestCreateInvoiceBillsReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, received := f.receipt(t, uuid.New())
	lineID := received.Items[0].ID

	ref := "VEND-7781"
	first, err := f.invoices.Create(ctx, CreateInput{
		GrnID:            received.ID,
		VendorInvoiceRef: &ref,
		Items:            []CreateItemInput{{GrnItemID: lineID, Quantity: amount("40")}},
		Actor:            accountant,
	})
	require.NoError(t, err)
	require.Regexp(t, `^INV-\d{8}-001$`, first.InvoiceNumber)
	require.Equal(t, enums.InvoiceStatusUnpaid, first.Status)
	require.Equal(t, po.ID, first.PurchaseOrderID)
	require.Equal(t, po.VendorID, first.VendorID)
	require.True(t, first.TotalAmount.Equal(amount("14000")), "total %s", first.TotalAmount)
	require.True(t, first.PendingAmount.Equal(first.TotalAmount))
	require.True(t, first.PaidAmount.IsZero())

	reloaded, err := f.grns.Get(ctx, received.ID)
	require.NoError(t, err)
	require.Equal(t, enums.GrnStatusPartiallyInvoiced, reloaded.Status)
	require.True(t, reloaded.Items[0].QuantityInvoiced.Equal(amount("40")))

	discounted := amount("300")
	second, err := f.invoices.Create(ctx, CreateInput{
		GrnID: received.ID,
		Items: []CreateItemInput{{GrnItemID: lineID, Quantity: amount("20"), Rate: &discounted}},
		Actor: accountant,
	})
	require.NoError(t, err)
	require.Regexp(t, `^INV-\d{8}-002$`, second.InvoiceNumber)
	require.True(t, second.TotalAmount.Equal(amount("6000")))

	reloaded, err = f.grns.Get(ctx, received.ID)
	require.NoError(t, err)
	require.Equal(t, enums.GrnStatusInvoiced, reloaded.Status)

	poReloaded, err := f.pos.Get(ctx, po.ID)
	require.NoError(t, err)
	require.True(t, poReloaded.Items[0].InvoicedQuantity.Equal(amount("60")))
	require.True(t, poReloaded.Items[0].ReceivedQuantity.Equal(amount("60")))

	events, err := f.outbox.ListByAggregate(ctx, enums.AggregateVendorInvoice, first.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventVendorInvoiceCreated, events[0].EventType)
}

func TestOverInvoiceLeavesCountersUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, received := f.receipt(t, uuid.New())
	lineID := received.Items[0].ID

	_, err := f.invoices.Create(ctx, CreateInput{
		GrnID: received.ID,
		Items: []CreateItemInput{{GrnItemID: lineID, Quantity: amount("61")}},
		Actor: accountant,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOverInvoice), "got %v", err)
	details := pkgerrors.As(err).Details().(map[string]any)
	require.Equal(t, "61", details["requested"])
	require.Equal(t, "60", details["ceiling"])

	// repeated lines for one receipt line count against the same ceiling
	_, err = f.invoices.Create(ctx, CreateInput{
		GrnID: received.ID,
		Items: []CreateItemInput{
			{GrnItemID: lineID, Quantity: amount("30")},
			{GrnItemID: lineID, Quantity: amount("31")},
		},
		Actor: accountant,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOverInvoice), "got %v", err)

	reloaded, err := f.grns.Get(ctx, received.ID)
	require.NoError(t, err)
	require.Equal(t, enums.GrnStatusReceived, reloaded.Status)
	require.True(t, reloaded.Items[0].QuantityInvoiced.IsZero())

	poReloaded, err := f.pos.Get(ctx, po.ID)
	require.NoError(t, err)
	require.True(t, poReloaded.Items[0].InvoicedQuantity.IsZero())

	rows, err := f.invoices.ListByGrn(ctx, received.ID)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, received := f.receipt(t, uuid.New())
	_, other := f.receipt(t, uuid.New())

	_, err := f.invoices.Create(ctx, CreateInput{
		GrnID: received.ID,
		Items: []CreateItemInput{{GrnItemID: other.Items[0].ID, Quantity: amount("1")}},
		Actor: accountant,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "foreign line, got %v", err)

	_, err = f.invoices.Create(ctx, CreateInput{
		GrnID: uuid.New(),
		Items: []CreateItemInput{{GrnItemID: received.Items[0].ID, Quantity: amount("1")}},
		Actor: accountant,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.invoices.Create(ctx, CreateInput{
		GrnID: received.ID,
		Items: []CreateItemInput{{GrnItemID: received.Items[0].ID, Quantity: decimal.Zero}},
		Actor: accountant,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	negative := amount("-1")
	_, err = f.invoices.Create(ctx, CreateInput{
		GrnID: received.ID,
		Items: []CreateItemInput{{GrnItemID: received.Items[0].ID, Quantity: amount("1"), Rate: &negative}},
		Actor: accountant,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	invoiceDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	due := invoiceDate.AddDate(0, 0, -1)
	_, err = f.invoices.Create(ctx, CreateInput{
		GrnID:       received.ID,
		InvoiceDate: &invoiceDate,
		DueDate:     &due,
		Items:       []CreateItemInput{{GrnItemID: received.Items[0].ID, Quantity: amount("1")}},
		Actor:       accountant,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = f.invoices.Get(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestInvoiceDueTodayWithDefaultInvoiceDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, received := f.receipt(t, uuid.New())

	now := time.Date(2024, 6, 14, 16, 45, 0, 0, time.UTC)
	svc := f.invoices.(*service)
	svc.now = func() time.Time { return now }

	due := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	invoice, err := svc.Create(ctx, CreateInput{
		GrnID:   received.ID,
		DueDate: &due,
		Items:   []CreateItemInput{{GrnItemID: received.Items[0].ID, Quantity: amount("1")}},
		Actor:   accountant,
	})
	require.NoError(t, err)
	require.True(t, invoice.InvoiceDate.Equal(due), "invoice date %s", invoice.InvoiceDate)

	yesterday := due.AddDate(0, 0, -1)
	_, err = svc.Create(ctx, CreateInput{
		GrnID:   received.ID,
		DueDate: &yesterday,
		Items:   []CreateItemInput{{GrnItemID: received.Items[0].ID, Quantity: amount("1")}},
		Actor:   accountant,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestListInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendor := uuid.New()
	_, first := f.receipt(t, vendor)
	_, second := f.receipt(t, vendor)
	_, elsewhere := f.receipt(t, uuid.New())

	for _, receipt := range []*models.Grn{first, second, elsewhere} {
		_, err := f.invoices.Create(ctx, CreateInput{
			GrnID: receipt.ID,
			Items: []CreateItemInput{{GrnItemID: receipt.Items[0].ID, Quantity: amount("10")}},
			Actor: accountant,
		})
		require.NoError(t, err)
	}

	page, err := f.invoices.List(ctx, ListInput{VendorID: &vendor, Params: pagination.Params{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotEmpty(t, page.Cursor)
	next, err := f.invoices.List(ctx, ListInput{VendorID: &vendor, Params: pagination.Params{Limit: 1, Cursor: page.Cursor}})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	require.NotEqual(t, page.Items[0].ID, next.Items[0].ID)

	unpaid := enums.InvoiceStatusUnpaid
	all, err := f.invoices.List(ctx, ListInput{Status: &unpaid})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)

	paid := enums.InvoiceStatusPaid
	none, err := f.invoices.List(ctx, ListInput{Status: &paid})
	require.NoError(t, err)
	require.Empty(t, none.Items)

	byGrn, err := f.invoices.ListByGrn(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, byGrn, 1)
	require.Len(t, byGrn[0].Items, 1)
}

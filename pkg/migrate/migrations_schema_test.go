package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestStockMigrationGuardsBalances(t *testing.T) {
	assertContains(t, readMigration(t, "create_stock_tables"), []string{
		"CREATE TABLE IF NOT EXISTS stocks",
		"CHECK (quantity >= 0)",
		"CHECK (reserved_quantity <= quantity)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_stocks_warehouse_item ON stocks (warehouse_id, item_id)",
		"CREATE TABLE IF NOT EXISTS stock_ledgers",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_stock_ledgers_pair_seq ON stock_ledgers (warehouse_id, item_id, sequence)",
		"BEFORE UPDATE OR DELETE ON stock_ledgers",
		"DROP TABLE IF EXISTS stock_ledgers",
	})
}

func TestProcurementMigrationCapsQuantities(t *testing.T) {
	assertContains(t, readMigration(t, "create_procurement_tables"), []string{
		"CREATE TABLE IF NOT EXISTS purchase_orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_purchase_orders_po_number",
		"CHECK (received_quantity >= 0 AND received_quantity <= quantity)",
		"CHECK (quantity_invoiced >= 0 AND quantity_invoiced <= quantity_received)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_grns_grn_number",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_vendor_invoices_invoice_number",
		"CHECK (paid_amount >= 0 AND paid_amount <= total_amount)",
		"CREATE TABLE IF NOT EXISTS vendor_payments",
		"DROP TABLE IF EXISTS purchase_orders",
	})
}

func TestOutboxMigrationIndexesUnpublishedRows(t *testing.T) {
	assertContains(t, readMigration(t, "create_outbox_tables"), []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"WHERE published_at IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_dlq_event_id",
	})
}

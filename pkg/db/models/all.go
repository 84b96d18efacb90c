package models

// All lists every persisted model in dependency order, for AutoMigrate in tests and sqlite dev mode.
func All() []any {
	return []any{
		&Item{},
		&Warehouse{},
		&Stock{},
		&StockLedger{},
		&PurchaseOrder{},
		&PurchaseOrderItem{},
		&Grn{},
		&GrnItem{},
		&VendorInvoice{},
		&VendorInvoiceItem{},
		&VendorPaymentPO{},
		&ExpenseItem{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}

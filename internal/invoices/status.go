package invoices

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// PendingAmount is total minus paid, floored at zero.
func PendingAmount(total, paid decimal.Decimal) decimal.Decimal {
	pending := total.Sub(paid)
	if pending.IsNegative() {
		return decimal.Zero
	}
	return pending
}

// DeriveInvoiceStatus computes the payment status of an invoice from its amounts.
func DeriveInvoiceStatus(total, paid decimal.Decimal) enums.InvoiceStatus {
	pending := PendingAmount(total, paid)
	switch {
	case !pending.IsPositive():
		return enums.InvoiceStatusPaid
	case paid.IsPositive():
		return enums.InvoiceStatusPartial
	default:
		return enums.InvoiceStatusUnpaid
	}
}

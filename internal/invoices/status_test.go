package invoices

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

func TestDeriveInvoiceStatus(t *testing.T) {
	amount := decimal.RequireFromString

	cases := []struct {
		name  string
		total string
		paid  string
		want  enums.InvoiceStatus
	}{
		{name: "nothing paid", total: "1000", paid: "0", want: enums.InvoiceStatusUnpaid},
		{name: "part paid", total: "1000", paid: "400", want: enums.InvoiceStatusPartial},
		{name: "fully paid", total: "1000", paid: "1000", want: enums.InvoiceStatusPaid},
		{name: "overpaid clamps", total: "1000", paid: "1000.01", want: enums.InvoiceStatusPaid},
		{name: "zero total", total: "0", paid: "0", want: enums.InvoiceStatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveInvoiceStatus(amount(tc.total), amount(tc.paid)))
		})
	}
}

func TestPendingAmountNeverNegative(t *testing.T) {
	require.True(t, PendingAmount(decimal.NewFromInt(1000), decimal.NewFromInt(400)).Equal(decimal.NewFromInt(600)))
	require.True(t, PendingAmount(decimal.NewFromInt(1000), decimal.NewFromInt(1200)).IsZero())
}

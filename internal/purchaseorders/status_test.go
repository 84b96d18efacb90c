package purchaseorders

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

func line(qty, received int64) models.PurchaseOrderItem {
	return models.PurchaseOrderItem{
		Quantity:         decimal.NewFromInt(qty),
		ReceivedQuantity: decimal.NewFromInt(received),
	}
}

func TestDerivePurchaseOrderStatus(t *testing.T) {
	cases := []struct {
		name  string
		items []models.PurchaseOrderItem
		want  enums.PurchaseOrderStatus
	}{
		{name: "no lines", want: enums.PurchaseOrderStatusOpen},
		{name: "nothing received", items: []models.PurchaseOrderItem{line(10, 0), line(5, 0)}, want: enums.PurchaseOrderStatusOpen},
		{name: "one line started", items: []models.PurchaseOrderItem{line(10, 4), line(5, 0)}, want: enums.PurchaseOrderStatusPartial},
		{name: "one line complete", items: []models.PurchaseOrderItem{line(10, 10), line(5, 0)}, want: enums.PurchaseOrderStatusPartial},
		{name: "all complete", items: []models.PurchaseOrderItem{line(10, 10), line(5, 5)}, want: enums.PurchaseOrderStatusClosed},
		{name: "over received", items: []models.PurchaseOrderItem{line(10, 12)}, want: enums.PurchaseOrderStatusClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DerivePurchaseOrderStatus(tc.items); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

package purchaseorders

import (
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// DerivePurchaseOrderStatus computes the receipt status from line counters.
// CANCELLED is never derived; callers keep it once set.
func DerivePurchaseOrderStatus(items []models.PurchaseOrderItem) enums.PurchaseOrderStatus {
	if len(items) == 0 {
		return enums.PurchaseOrderStatusOpen
	}
	allReceived := true
	anyReceived := false
	for _, item := range items {
		if item.ReceivedQuantity.LessThan(item.Quantity) {
			allReceived = false
		}
		if item.ReceivedQuantity.IsPositive() {
			anyReceived = true
		}
	}
	switch {
	case allReceived:
		return enums.PurchaseOrderStatusClosed
	case anyReceived:
		return enums.PurchaseOrderStatusPartial
	default:
		return enums.PurchaseOrderStatusOpen
	}
}

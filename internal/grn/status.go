package grn

import (
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

// DeriveGrnStatus computes the billing status of a receipt from its line counters.
func DeriveGrnStatus(items []models.GrnItem) enums.GrnStatus {
	if len(items) == 0 {
		return enums.GrnStatusReceived
	}
	allInvoiced := true
	anyInvoiced := false
	for _, item := range items {
		if item.QuantityInvoiced.LessThan(item.QuantityReceived) {
			allInvoiced = false
		}
		if item.QuantityInvoiced.IsPositive() {
			anyInvoiced = true
		}
	}
	switch {
	case allInvoiced:
		return enums.GrnStatusInvoiced
	case anyInvoiced:
		return enums.GrnStatusPartiallyInvoiced
	default:
		return enums.GrnStatusReceived
	}
}

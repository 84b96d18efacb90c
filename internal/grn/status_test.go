package grn

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

func TestDeriveGrnStatus(t *testing.T) {
	item := func(received, invoiced int64) models.GrnItem {
		return models.GrnItem{
			QuantityReceived: decimal.NewFromInt(received),
			QuantityInvoiced: decimal.NewFromInt(invoiced),
		}
	}

	require.Equal(t, enums.GrnStatusReceived, DeriveGrnStatus(nil))
	require.Equal(t, enums.GrnStatusReceived, DeriveGrnStatus([]models.GrnItem{item(5, 0), item(3, 0)}))
	require.Equal(t, enums.GrnStatusPartiallyInvoiced, DeriveGrnStatus([]models.GrnItem{item(5, 5), item(3, 0)}))
	require.Equal(t, enums.GrnStatusPartiallyInvoiced, DeriveGrnStatus([]models.GrnItem{item(5, 2)}))
	require.Equal(t, enums.GrnStatusInvoiced, DeriveGrnStatus([]models.GrnItem{item(5, 5), item(3, 3)}))
}

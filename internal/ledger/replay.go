package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
)

// ReplayResult is the outcome of folding a pair's ledger rows in order.
type ReplayResult struct {
	Quantity decimal.Decimal
	Rows     int
	// FirstBadSequence is the first row whose stored balance disagrees with the running sum,
	// or whose movement is not exactly one non-zero side.
	FirstBadSequence *int64
}

// Consistent reports whether every row agreed with the running sum.
func (r ReplayResult) Consistent() bool {
	return r.FirstBadSequence == nil
}

// Replay sums qtyIn - qtyOut over rows, which must already be in replay order.
func Replay(rows []models.StockLedger) ReplayResult {
	result := ReplayResult{Quantity: decimal.Zero}
	for _, row := range rows {
		result.Quantity = result.Quantity.Add(row.Movement())
		result.Rows++
		if result.FirstBadSequence != nil {
			continue
		}
		oneSided := row.QtyIn.IsPositive() != row.QtyOut.IsPositive() &&
			!row.QtyIn.IsNegative() && !row.QtyOut.IsNegative()
		if !oneSided || !row.BalanceAfter.Equal(result.Quantity) {
			seq := row.Sequence
			result.FirstBadSequence = &seq
		}
	}
	return result
}

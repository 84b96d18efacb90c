package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
)

func row(seq int64, in, out, balance string) models.StockLedger {
	return models.StockLedger{
		Sequence:     seq,
		QtyIn:        decimal.RequireFromString(in),
		QtyOut:       decimal.RequireFromString(out),
		BalanceAfter: decimal.RequireFromString(balance),
	}
}

func TestReplayConsistent(t *testing.T) {
	result := Replay([]models.StockLedger{
		row(1, "10", "0", "10"),
		row(2, "10", "0", "20"),
		row(3, "0", "7.5", "12.5"),
	})
	if !result.Consistent() {
		t.Fatalf("expected consistent replay, first bad %v", *result.FirstBadSequence)
	}
	if !result.Quantity.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected quantity %s", result.Quantity)
	}
	if result.Rows != 3 {
		t.Fatalf("unexpected row count %d", result.Rows)
	}
}

func TestReplayDetectsBadBalance(t *testing.T) {
	result := Replay([]models.StockLedger{
		row(1, "10", "0", "10"),
		row(2, "0", "4", "5"),
		row(3, "1", "0", "7"),
	})
	if result.Consistent() {
		t.Fatal("expected mismatch")
	}
	if *result.FirstBadSequence != 2 {
		t.Fatalf("expected first bad sequence 2, got %d", *result.FirstBadSequence)
	}
	if !result.Quantity.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("replay should still sum every row, got %s", result.Quantity)
	}
}

func TestReplayDetectsTwoSidedRow(t *testing.T) {
	result := Replay([]models.StockLedger{row(1, "5", "5", "0")})
	if result.Consistent() {
		t.Fatal("expected two-sided row to be flagged")
	}
	result = Replay([]models.StockLedger{row(1, "0", "0", "0")})
	if result.Consistent() {
		t.Fatal("expected zero row to be flagged")
	}
}

func TestReplayEmpty(t *testing.T) {
	result := Replay(nil)
	if !result.Consistent() || !result.Quantity.IsZero() || result.Rows != 0 {
		t.Fatalf("unexpected empty replay %+v", result)
	}
}

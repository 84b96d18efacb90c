package enums

import "fmt"

// StockRefType names the kind of document that caused a stock ledger row.
type StockRefType string

const (
	StockRefGRN                   StockRefType = "GRN"
	StockRefAdjustment            StockRefType = "ADJUSTMENT"
	StockRefTransfer              StockRefType = "TRANSFER"
	StockRefMaterialIssue         StockRefType = "MATERIAL_ISSUE"
	StockRefDirectExpensePurchase StockRefType = "DIRECT_EXPENSE_PURCHASE"
)

var validStockRefTypes = []StockRefType{
	StockRefGRN,
	StockRefAdjustment,
	StockRefTransfer,
	StockRefMaterialIssue,
	StockRefDirectExpensePurchase,
}

func (t StockRefType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ledger reference type.
func (t StockRefType) IsValid() bool {
	for _, candidate := range validStockRefTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStockRefType converts raw input into StockRefType.
func ParseStockRefType(value string) (StockRefType, error) {
	for _, candidate := range validStockRefTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock ref type %q", value)
}

package enums

import "fmt"

// ReceiptType decides whether received goods enter warehouse stock or are consumed on site.
type ReceiptType string

const (
	ReceiptTypeWarehouseStock ReceiptType = "WAREHOUSE_STOCK"
	ReceiptTypeDirectConsume  ReceiptType = "DIRECT_CONSUME"
)

var validReceiptTypes = []ReceiptType{
	ReceiptTypeWarehouseStock,
	ReceiptTypeDirectConsume,
}

func (t ReceiptType) String() string {
	return string(t)
}

func (t ReceiptType) IsValid() bool {
	for _, candidate := range validReceiptTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseReceiptType(value string) (ReceiptType, error) {
	for _, candidate := range validReceiptTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid receipt type %q", value)
}

// GrnStatus tracks how much of a goods receipt has been invoiced.
type GrnStatus string

const (
	GrnStatusReceived          GrnStatus = "RECEIVED"
	GrnStatusPartiallyInvoiced GrnStatus = "PARTIALLY_INVOICED"
	GrnStatusInvoiced          GrnStatus = "INVOICED"
)

var validGrnStatuses = []GrnStatus{
	GrnStatusReceived,
	GrnStatusPartiallyInvoiced,
	GrnStatusInvoiced,
}

func (s GrnStatus) String() string {
	return string(s)
}

func (s GrnStatus) IsValid() bool {
	for _, candidate := range validGrnStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseGrnStatus(value string) (GrnStatus, error) {
	for _, candidate := range validGrnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid grn status %q", value)
}

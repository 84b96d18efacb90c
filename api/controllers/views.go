package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/estateerp-backend/internal/inventory"
	"github.com/angelmondragon/estateerp-backend/pkg/db/models"
	"github.com/angelmondragon/estateerp-backend/pkg/enums"
)

type warehouseResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrganizationID uuid.UUID           `json:"organizationId"`
	ProjectID      *uuid.UUID          `json:"projectId,omitempty"`
	Name           string              `json:"name"`
	Code           string              `json:"code"`
	Type           enums.WarehouseType `json:"type"`
	IsActive       bool                `json:"isActive"`
	CreatedBy      string              `json:"createdBy"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func warehouseResponseFromModel(m *models.Warehouse) warehouseResponse {
	return warehouseResponse{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		ProjectID:      m.ProjectID,
		Name:           m.Name,
		Code:           m.Code,
		Type:           m.Type,
		IsActive:       m.IsActive,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type ledgerRowResponse struct {
	ID           uuid.UUID          `json:"id"`
	WarehouseID  uuid.UUID          `json:"warehouseId"`
	ItemID       uuid.UUID          `json:"itemId"`
	Sequence     int64              `json:"sequence"`
	RefType      enums.StockRefType `json:"refType"`
	RefID        uuid.UUID          `json:"refId"`
	TxnDate      string             `json:"txnDate"`
	QtyIn        decimal.Decimal    `json:"qtyIn"`
	QtyOut       decimal.Decimal    `json:"qtyOut"`
	BalanceAfter decimal.Decimal    `json:"balanceAfter"`
	Rate         decimal.Decimal    `json:"rate"`
	Amount       decimal.Decimal    `json:"amount"`
	Remarks      *string            `json:"remarks,omitempty"`
	ProjectID    *uuid.UUID         `json:"projectId,omitempty"`
	CreatedBy    string             `json:"createdBy"`
	CreatedAt    time.Time          `json:"createdAt"`
}

func ledgerRowFromModel(m models.StockLedger) ledgerRowResponse {
	return ledgerRowResponse{
		ID:           m.ID,
		WarehouseID:  m.WarehouseID,
		ItemID:       m.ItemID,
		Sequence:     m.Sequence,
		RefType:      m.RefType,
		RefID:        m.RefID,
		TxnDate:      m.TxnDate.UTC().Format(dateLayout),
		QtyIn:        m.QtyIn,
		QtyOut:       m.QtyOut,
		BalanceAfter: m.BalanceAfter,
		Rate:         m.Rate,
		Amount:       m.Amount,
		Remarks:      m.Remarks,
		ProjectID:    m.ProjectID,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}

func ledgerRowsFromModels(rows []models.StockLedger) []ledgerRowResponse {
	out := make([]ledgerRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ledgerRowFromModel(row))
	}
	return out
}

type movementResponse struct {
	Stock  inventory.StockView `json:"stock"`
	Ledger ledgerRowResponse   `json:"ledger"`
}

func movementFrom(m inventory.Movement) movementResponse {
	return movementResponse{
		Stock: inventory.StockView{
			WarehouseID:      m.Stock.WarehouseID,
			ItemID:           m.Stock.ItemID,
			Quantity:         m.Stock.Quantity,
			ReservedQuantity: m.Stock.ReservedQuantity,
			Available:        m.Stock.Available(),
			AvgRate:          m.Stock.AvgRate,
			TotalValue:       m.Stock.TotalValue(),
			UpdatedAt:        m.Stock.UpdatedAt,
		},
		Ledger: ledgerRowFromModel(m.Ledger),
	}
}

type purchaseOrderItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ItemID           uuid.UUID       `json:"itemId"`
	Quantity         decimal.Decimal `json:"quantity"`
	Rate             decimal.Decimal `json:"rate"`
	Amount           decimal.Decimal `json:"amount"`
	ReceivedQuantity decimal.Decimal `json:"receivedQuantity"`
	InvoicedQuantity decimal.Decimal `json:"invoicedQuantity"`
}

type purchaseOrderResponse struct {
	ID             uuid.UUID                   `json:"id"`
	PONumber       string                      `json:"poNumber"`
	OrganizationID uuid.UUID                   `json:"organizationId"`
	ProjectID      *uuid.UUID                  `json:"projectId,omitempty"`
	VendorID       uuid.UUID                   `json:"vendorId"`
	PODate         string                      `json:"poDate"`
	TotalAmount    decimal.Decimal             `json:"totalAmount"`
	Status         enums.PurchaseOrderStatus   `json:"status"`
	Remarks        *string                     `json:"remarks,omitempty"`
	CreatedBy      string                      `json:"createdBy"`
	CreatedAt      time.Time                   `json:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
	Items          []purchaseOrderItemResponse `json:"items,omitempty"`
}

func purchaseOrderResponseFromModel(m *models.PurchaseOrder) purchaseOrderResponse {
	resp := purchaseOrderResponse{
		ID:             m.ID,
		PONumber:       m.PONumber,
		OrganizationID: m.OrganizationID,
		ProjectID:      m.ProjectID,
		VendorID:       m.VendorID,
		PODate:         m.PODate.UTC().Format(dateLayout),
		TotalAmount:    m.TotalAmount,
		Status:         m.Status,
		Remarks:        m.Remarks,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, item := range m.Items {
		resp.Items = append(resp.Items, purchaseOrderItemResponse{
			ID:               item.ID,
			ItemID:           item.ItemID,
			Quantity:         item.Quantity,
			Rate:             item.Rate,
			Amount:           item.Amount,
			ReceivedQuantity: item.ReceivedQuantity,
			InvoicedQuantity: item.InvoicedQuantity,
		})
	}
	return resp
}

type grnItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	POItemID         uuid.UUID       `json:"poItemId"`
	ItemID           uuid.UUID       `json:"itemId"`
	QuantityReceived decimal.Decimal `json:"quantityReceived"`
	QuantityInvoiced decimal.Decimal `json:"quantityInvoiced"`
	Rate             decimal.Decimal `json:"rate"`
}

type grnResponse struct {
	ID           uuid.UUID         `json:"id"`
	GrnNumber    string            `json:"grnNumber"`
	POID         uuid.UUID         `json:"poId"`
	VendorID     uuid.UUID         `json:"vendorId"`
	ReceiptType  enums.ReceiptType `json:"receiptType"`
	WarehouseID  *uuid.UUID        `json:"warehouseId,omitempty"`
	Status       enums.GrnStatus   `json:"status"`
	ReceivedDate string            `json:"receivedDate"`
	Remarks      *string           `json:"remarks,omitempty"`
	CreatedBy    string            `json:"createdBy"`
	CreatedAt    time.Time         `json:"createdAt"`
	Items        []grnItemResponse `json:"items,omitempty"`
}

func grnResponseFromModel(m *models.Grn) grnResponse {
	resp := grnResponse{
		ID:           m.ID,
		GrnNumber:    m.GrnNumber,
		POID:         m.PurchaseOrderID,
		VendorID:     m.VendorID,
		ReceiptType:  m.ReceiptType,
		WarehouseID:  m.WarehouseID,
		Status:       m.Status,
		ReceivedDate: m.ReceivedDate.UTC().Format(dateLayout),
		Remarks:      m.Remarks,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
	for _, item := range m.Items {
		resp.Items = append(resp.Items, grnItemResponse{
			ID:               item.ID,
			POItemID:         item.PurchaseOrderItemID,
			ItemID:           item.ItemID,
			QuantityReceived: item.QuantityReceived,
			QuantityInvoiced: item.QuantityInvoiced,
			Rate:             item.Rate,
		})
	}
	return resp
}

type invoiceItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	GrnItemID uuid.UUID       `json:"grnItemId"`
	ItemID    uuid.UUID       `json:"itemId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
}

type invoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	InvoiceNumber    string                `json:"invoiceNumber"`
	GrnID            uuid.UUID             `json:"grnId"`
	POID             uuid.UUID             `json:"poId"`
	VendorID         uuid.UUID             `json:"vendorId"`
	VendorInvoiceRef *string               `json:"vendorInvoiceRef,omitempty"`
	TotalAmount      decimal.Decimal       `json:"totalAmount"`
	PaidAmount       decimal.Decimal       `json:"paidAmount"`
	PendingAmount    decimal.Decimal       `json:"pendingAmount"`
	Status           enums.InvoiceStatus   `json:"status"`
	InvoiceDate      string                `json:"invoiceDate"`
	DueDate          *string               `json:"dueDate,omitempty"`
	Remarks          *string               `json:"remarks,omitempty"`
	CreatedBy        string                `json:"createdBy"`
	CreatedAt        time.Time             `json:"createdAt"`
	Items            []invoiceItemResponse `json:"items,omitempty"`
}

func invoiceResponseFromModel(m *models.VendorInvoice) invoiceResponse {
	resp := invoiceResponse{
		ID:               m.ID,
		InvoiceNumber:    m.InvoiceNumber,
		GrnID:            m.GrnID,
		POID:             m.PurchaseOrderID,
		VendorID:         m.VendorID,
		VendorInvoiceRef: m.VendorInvoiceRef,
		TotalAmount:      m.TotalAmount,
		PaidAmount:       m.PaidAmount,
		PendingAmount:    m.PendingAmount,
		Status:           m.Status,
		InvoiceDate:      m.InvoiceDate.UTC().Format(dateLayout),
		Remarks:          m.Remarks,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt,
	}
	if m.DueDate != nil {
		due := m.DueDate.UTC().Format(dateLayout)
		resp.DueDate = &due
	}
	for _, item := range m.Items {
		resp.Items = append(resp.Items, invoiceItemResponse{
			ID:        item.ID,
			GrnItemID: item.GrnItemID,
			ItemID:    item.ItemID,
			Quantity:  item.Quantity,
			Rate:      item.Rate,
			Amount:    item.Amount,
		})
	}
	return resp
}

type paymentResponse struct {
	ID              uuid.UUID         `json:"id"`
	InvoiceID       uuid.UUID         `json:"invoiceId"`
	VendorID        uuid.UUID         `json:"vendorId"`
	Amount          decimal.Decimal   `json:"amount"`
	PaymentMode     enums.PaymentMode `json:"paymentMode"`
	ReferenceNumber *string           `json:"referenceNumber,omitempty"`
	PaymentDate     string            `json:"paymentDate"`
	Remarks         *string           `json:"remarks,omitempty"`
	CreatedBy       string            `json:"createdBy"`
	CreatedAt       time.Time         `json:"createdAt"`
}

func paymentResponseFromModel(m *models.VendorPaymentPO) paymentResponse {
	return paymentResponse{
		ID:              m.ID,
		InvoiceID:       m.VendorInvoiceID,
		VendorID:        m.VendorID,
		Amount:          m.Amount,
		PaymentMode:     m.PaymentMode,
		ReferenceNumber: m.ReferenceNumber,
		PaymentDate:     m.PaymentDate.UTC().Format(dateLayout),
		Remarks:         m.Remarks,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

type expenseItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ExpenseID   uuid.UUID       `json:"expenseId"`
	ItemID      *uuid.UUID      `json:"itemId,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	StockEffect bool            `json:"stockEffect"`
	WarehouseID *uuid.UUID      `json:"warehouseId,omitempty"`
}

func expenseItemResponseFromModel(m models.ExpenseItem) expenseItemResponse {
	return expenseItemResponse{
		ID:          m.ID,
		ExpenseID:   m.ExpenseID,
		ItemID:      m.ItemID,
		Description: m.Description,
		Quantity:    m.Quantity,
		Rate:        m.Rate,
		Amount:      m.Amount,
		StockEffect: m.StockEffect,
		WarehouseID: m.WarehouseID,
	}
}

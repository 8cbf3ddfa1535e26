package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DocumentItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"`
}

type CreateInvoiceRequest struct {
	ClientID   *uuid.UUID            `json:"client_id"`
	ClientName *string               `json:"client_name" validate:"omitempty,max=200"`
	Company    string                `json:"company" validate:"required,oneof=NETSYSTEME SSE"`
	IsProforma bool                  `json:"is_proforma"`
	Items      []DocumentItemRequest `json:"items" validate:"omitempty,dive"`
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type InvoiceFilter struct {
	Cancelled string `form:"cancelled"` // "" | "true" | "false"
	Proforma  string `form:"proforma"`  // "" | "true" | "false"
	Company   string `form:"company"`
	Search    string `form:"search"`
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=50"`
}

type DocumentItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type InvoiceResponse struct {
	ID            string                 `json:"id"`
	InvoiceNumber string                 `json:"invoice_number"`
	Date          string                 `json:"date"`
	ClientID      *string                `json:"client_id,omitempty"`
	ClientName    string                 `json:"client_name"`
	Company       string                 `json:"company"`
	TotalHT       decimal.Decimal        `json:"total_ht"`
	TotalTTC      decimal.Decimal        `json:"total_ttc"`
	AmountPaid    decimal.Decimal        `json:"amount_paid"`
	AmountDue     decimal.Decimal        `json:"amount_due"`
	IsCancelled   bool                   `json:"is_cancelled"`
	IsProforma    bool                   `json:"is_proforma"`
	Items         []DocumentItemResponse `json:"items"`
}

type InvoiceListResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

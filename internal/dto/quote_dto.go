package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateQuoteRequest struct {
	ClientID       *uuid.UUID            `json:"client_id"`
	ClientName     *string               `json:"client_name" validate:"omitempty,max=200"`
	ClientEmail    *string               `json:"client_email" validate:"omitempty,email"`
	ClientPhone    *string               `json:"client_phone"`
	ClientAddress  *string               `json:"client_address"`
	Company        string                `json:"company" validate:"required,oneof=NETSYSTEME SSE"`
	ExpirationDate *string               `json:"expiration_date"`
	Items          []DocumentItemRequest `json:"items" validate:"omitempty,dive"`
}

type QuoteFilter struct {
	Converted string `form:"converted"` // "" | "true" | "false"
	Company   string `form:"company"`
	Search    string `form:"search"`
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=50"`
}

type QuoteResponse struct {
	ID                 string                 `json:"id"`
	QuoteNumber        string                 `json:"quote_number"`
	Date               string                 `json:"date"`
	ExpirationDate     *string                `json:"expiration_date,omitempty"`
	ClientID           *string                `json:"client_id,omitempty"`
	ClientName         string                 `json:"client_name"`
	Company            string                 `json:"company"`
	TotalHT            decimal.Decimal        `json:"total_ht"`
	TotalTTC           decimal.Decimal        `json:"total_ttc"`
	IsExpired          bool                   `json:"is_expired"`
	ConvertedInvoiceID *string                `json:"converted_invoice_id,omitempty"`
	Items              []DocumentItemResponse `json:"items"`
}

type QuoteListResponse struct {
	Data  []QuoteResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

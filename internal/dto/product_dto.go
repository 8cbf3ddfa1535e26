package dto

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=200"`
	Description    *string         `json:"description"`
	Category       *string         `json:"category"`
	Quantity       int             `json:"quantity" validate:"min=0"`
	PurchasePrice  decimal.Decimal `json:"purchase_price" validate:"min=0"`
	SalePrice      decimal.Decimal `json:"sale_price" validate:"min=0"`
	AlertThreshold int             `json:"alert_threshold" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name           string           `json:"name"`
	Description    *string          `json:"description"`
	Category       *string          `json:"category"`
	PurchasePrice  *decimal.Decimal `json:"purchase_price"`
	SalePrice      *decimal.Decimal `json:"sale_price"`
	AlertThreshold *int             `json:"alert_threshold"`
}

type ProductFilter struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"` // "" (active only) | "false" | "all"
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=50"`
}

type ProductResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    *string         `json:"description"`
	Category       *string         `json:"category"`
	Quantity       int             `json:"quantity"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	AlertThreshold int             `json:"alert_threshold"`
	IsActive       bool            `json:"is_active"`
	IsLowStock     bool            `json:"is_low_stock"`
	CreatedAt      string          `json:"created_at"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

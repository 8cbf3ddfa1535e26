package dto

import "github.com/google/uuid"

type CreateMovementRequest struct {
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
	MovementType string    `json:"movement_type" validate:"required,oneof=ENTRY EXIT"`
	Quantity     int       `json:"quantity" validate:"required,gt=0"`
	Comment      string    `json:"comment" validate:"max=500"`
}

type StockMovementFilter struct {
	ProductID      string `form:"product_id"`
	MovementType   string `form:"movement_type"`
	DateFrom       string `form:"date_from"`
	DateTo         string `form:"date_to"`
	IncludeDeleted bool   `form:"include_deleted"`
	Page           int    `form:"page,default=1"`
	Limit          int    `form:"limit,default=50"`
}

type MovementResponse struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name,omitempty"`
	MovementType string  `json:"movement_type"`
	Quantity     int     `json:"quantity"`
	Date         string  `json:"date"`
	Comment      string  `json:"comment,omitempty"`
	StockBefore  int     `json:"stock_before"`
	StockAfter   int     `json:"stock_after"`
	ReferenceID  *string `json:"reference_id,omitempty"`
	Deleted      bool    `json:"deleted"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

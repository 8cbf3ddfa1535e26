package dto

import "github.com/shopspring/decimal"

type DashboardResponse struct {
	ProductCount     int64              `json:"product_count"`
	LowStockCount    int64              `json:"low_stock_count"`
	StockValuation   decimal.Decimal    `json:"stock_valuation"`
	InvoiceCount     int64              `json:"invoice_count"`
	UnpaidInvoiceSum decimal.Decimal    `json:"unpaid_invoice_sum"`
	MonthlyRevenue   decimal.Decimal    `json:"monthly_revenue"`
	RecentMovements  []MovementResponse `json:"recent_movements"`
	LowStockProducts []ProductResponse  `json:"low_stock_products"`
}

package service

import (
	"context"
	"time"

	"gestock/internal/dto"
	"gestock/internal/repository"
)

// DashboardService aggregates read-only metrics for the home screen. All
// figures are derived from non-deleted rows; it never writes anything.
type DashboardService interface {
	Summary(ctx context.Context) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	invoices  repository.InvoiceRepository
}

func NewDashboardService(
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	invoices repository.InvoiceRepository,
) DashboardService {
	return &dashboardService{products: products, movements: movements, invoices: invoices}
}

func (s *dashboardService) Summary(ctx context.Context) (*dto.DashboardResponse, error) {
	resp := &dto.DashboardResponse{}

	_, productCount, err := s.products.List(ctx, dto.ProductFilter{Page: 1, Limit: 1})
	if err != nil {
		return nil, err
	}
	resp.ProductCount = productCount

	lowStock, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	resp.LowStockCount = int64(len(lowStock))
	resp.LowStockProducts = make([]dto.ProductResponse, 0, len(lowStock))
	for i := range lowStock {
		resp.LowStockProducts = append(resp.LowStockProducts, *productToResponse(&lowStock[i]))
	}

	valuation, err := s.products.StockValuation(ctx)
	if err != nil {
		return nil, err
	}
	resp.StockValuation = valuation

	invoiceCount, err := s.invoices.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	resp.InvoiceCount = invoiceCount

	unpaid, err := s.invoices.SumUnpaid(ctx)
	if err != nil {
		return nil, err
	}
	resp.UnpaidInvoiceSum = unpaid

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	revenue, err := s.invoices.RevenueBetween(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	resp.MonthlyRevenue = revenue

	recent, _, err := s.movements.List(ctx, repository.StockMovementFilter{Page: 1, Limit: 10})
	if err != nil {
		return nil, err
	}
	resp.RecentMovements = make([]dto.MovementResponse, 0, len(recent))
	for i := range recent {
		resp.RecentMovements = append(resp.RecentMovements, *movementToResponse(&recent[i]))
	}

	return resp, nil
}

package service

import (
	"context"
	"time"

	"gestock/internal/dto"
	"gestock/internal/model"
	"gestock/internal/repository"
	"gestock/internal/stockerr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService is the product ledger. It owns the catalog lifecycle but
// never the quantity: stock mutations go through the movement journal only.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	ListLowStock(ctx context.Context) ([]dto.ProductResponse, error)
	StockValuation(ctx context.Context) (decimal.Decimal, error)
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func validatePrices(purchase, sale decimal.Decimal) error {
	if purchase.IsNegative() {
		return &stockerr.ValidationError{Field: "purchase_price", Message: "le prix d'achat ne peut pas être négatif"}
	}
	if sale.IsNegative() {
		return &stockerr.ValidationError{Field: "sale_price", Message: "le prix de vente ne peut pas être négatif"}
	}
	if sale.LessThan(purchase) {
		return &stockerr.ValidationError{Field: "sale_price", Message: "le prix de vente ne peut pas être inférieur au prix d'achat"}
	}
	return nil
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.Quantity < 0 {
		return nil, &stockerr.ValidationError{Field: "quantity", Message: "la quantité initiale ne peut pas être négative"}
	}
	if req.AlertThreshold < 0 {
		return nil, &stockerr.ValidationError{Field: "alert_threshold", Message: "le seuil d'alerte ne peut pas être négatif"}
	}
	if err := validatePrices(req.PurchasePrice, req.SalePrice); err != nil {
		return nil, err
	}

	p := &model.Product{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Quantity:       req.Quantity,
		PurchasePrice:  req.PurchasePrice,
		SalePrice:      req.SalePrice,
		AlertThreshold: req.AlertThreshold,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Update never touches Quantity: only the movement journal mutates stock.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != nil {
		p.Category = req.Category
	}
	if req.PurchasePrice != nil {
		p.PurchasePrice = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		p.SalePrice = *req.SalePrice
	}
	if req.AlertThreshold != nil {
		if *req.AlertThreshold < 0 {
			return nil, &stockerr.ValidationError{Field: "alert_threshold", Message: "le seuil d'alerte ne peut pas être négatif"}
		}
		p.AlertThreshold = *req.AlertThreshold
	}
	if err := validatePrices(p.PurchasePrice, p.SalePrice); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *productService) Restore(ctx context.Context, id uuid.UUID) error {
	return s.repo.Restore(ctx, id)
}

// HardDelete is rejected while any movement or document line references the
// product, so history stays reconstructible.
func (s *productService) HardDelete(ctx context.Context, id uuid.UUID) error {
	return s.repo.HardDelete(ctx, id)
}

func (s *productService) ListLowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	products, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *productToResponse(&products[i]))
	}
	return items, nil
}

func (s *productService) StockValuation(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.StockValuation(ctx)
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:             p.ID.String(),
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		Quantity:       p.Quantity,
		PurchasePrice:  p.PurchasePrice,
		SalePrice:      p.SalePrice,
		AlertThreshold: p.AlertThreshold,
		IsActive:       p.IsActive,
		IsLowStock:     p.IsLowStock(),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}

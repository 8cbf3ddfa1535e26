package repository

import (
	"context"
	"errors"
	"time"

	"gestock/internal/dto"
	"gestock/internal/model"
	"gestock/internal/stockerr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error

	// HardDelete removes the row. Rejected with a ValidationError while
	// movements or document lines still reference the product.
	HardDelete(ctx context.Context, id uuid.UUID) error
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)

	// Transaction-scoped accessors. Callers must be inside a tx.
	// FindByIDForUpdateTx takes a SELECT … FOR UPDATE row lock so that a
	// concurrent check-then-write on the same product serializes.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	// AdjustStockTx is the ONLY stock mutation path. It exists for the stock
	// movement journal; nothing else may call it.
	AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) error

	// Read-only aggregates for alerts and the dashboard.
	ListLowStock(ctx context.Context) ([]model.Product, error)
	StockValuation(ctx context.Context) (decimal.Decimal, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "produit"}
	}
	return &p, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	// Active filter: "false" = deactivated, "all" = everything, default = active
	switch filter.Active {
	case "false":
		q = q.Where("is_active = false")
	case "all":
		// no filter
	default:
		q = q.Where("is_active = true AND deleted_at IS NULL")
	}

	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.LowStock {
		q = q.Where("quantity <= alert_threshold")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

// Update persists catalog fields. quantity is omitted: only the movement
// journal writes it, and a Save of a stale struct must never clobber a
// concurrent journal adjustment.
func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Omit("quantity").Save(p).Error
}

func (r *productRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"deleted_at": now, "is_active": false}).Error
}

func (r *productRepo) Restore(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"deleted_at": nil, "is_active": true}).Error
}

func (r *productRepo) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var movements, invoiceItems, quoteItems int64
	if err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Where("product_id = ?", id).Count(&movements).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.InvoiceItem{}).
		Where("product_id = ?", id).Count(&invoiceItems).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.QuoteItem{}).
		Where("product_id = ?", id).Count(&quoteItems).Error; err != nil {
		return 0, err
	}
	return movements + invoiceItems + quoteItems, nil
}

func (r *productRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	refs, err := r.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return &stockerr.ValidationError{
			Field:   "id",
			Message: "produit référencé par des mouvements ou des documents, suppression définitive impossible",
		}
	}
	return r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id).Error
}

func (r *productRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "produit"}
	}
	return &p, err
}

func (r *productRepo) AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *productRepo) ListLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("is_active = true AND deleted_at IS NULL AND quantity <= alert_threshold").
		Order("quantity ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) StockValuation(ctx context.Context) (decimal.Decimal, error) {
	var raw struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("COALESCE(SUM(quantity * purchase_price), 0) AS total").
		Where("is_active = true AND deleted_at IS NULL").
		Scan(&raw).Error
	return raw.Total, err
}

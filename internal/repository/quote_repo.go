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
)

type QuoteRepository interface {
	CreateTx(tx *gorm.DB, q *model.Quote) error
	CreateItemTx(tx *gorm.DB, item *model.QuoteItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Quote, error)
	FindItemTx(tx *gorm.DB, quoteID, itemID uuid.UUID) (*model.QuoteItem, error)
	List(ctx context.Context, filter dto.QuoteFilter) ([]model.Quote, int64, error)
	UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, totalHT, totalTTC decimal.Decimal) error
	// SetConvertedInvoiceTx marks the quote as converted. Done inside the same
	// transaction that creates the invoice so the back-reference can never
	// point at a half-created document.
	SetConvertedInvoiceTx(tx *gorm.DB, quoteID, invoiceID uuid.UUID) error
	SetDeletedAtTx(tx *gorm.DB, id uuid.UUID, deletedAt *time.Time) error
	SetItemDeletedAtTx(tx *gorm.DB, itemID uuid.UUID, deletedAt *time.Time) error
	DB() *gorm.DB
}

type quoteRepo struct{ db *gorm.DB }

func NewQuoteRepository(db *gorm.DB) QuoteRepository { return &quoteRepo{db: db} }

func (r *quoteRepo) DB() *gorm.DB { return r.db }

func (r *quoteRepo) CreateTx(tx *gorm.DB, q *model.Quote) error {
	return tx.Create(q).Error
}

func (r *quoteRepo) CreateItemTx(tx *gorm.DB, item *model.QuoteItem) error {
	return tx.Create(item).Error
}

func (r *quoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var q model.Quote
	err := r.db.WithContext(ctx).
		Preload("Items.Product").Preload("Client").Preload("ConvertedInvoice").
		First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "devis"}
	}
	return &q, err
}

func (r *quoteRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Quote, error) {
	var q model.Quote
	err := tx.Preload("Items.Product").Preload("Client").First(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "devis"}
	}
	return &q, err
}

func (r *quoteRepo) FindItemTx(tx *gorm.DB, quoteID, itemID uuid.UUID) (*model.QuoteItem, error) {
	var item model.QuoteItem
	err := tx.Where("id = ? AND quote_id = ? AND deleted_at IS NULL", itemID, quoteID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "ligne de devis"}
	}
	return &item, err
}

func (r *quoteRepo) List(ctx context.Context, filter dto.QuoteFilter) ([]model.Quote, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Quote{}).Where("deleted_at IS NULL")

	switch filter.Converted {
	case "true":
		q = q.Where("converted_invoice_id IS NOT NULL")
	case "false":
		q = q.Where("converted_invoice_id IS NULL")
	}
	if filter.Company != "" {
		q = q.Where("company = ?", filter.Company)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("quote_number ILIKE ? OR client_name ILIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	var quotes []model.Quote
	err := q.Preload("Items.Product").Preload("Client").
		Order("date DESC, created_at DESC").
		Offset(offset).Limit(limit).Find(&quotes).Error
	return quotes, total, err
}

func (r *quoteRepo) UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, totalHT, totalTTC decimal.Decimal) error {
	return tx.Model(&model.Quote{}).Where("id = ?", id).
		Updates(map[string]interface{}{"total_ht": totalHT, "total_ttc": totalTTC}).Error
}

func (r *quoteRepo) SetConvertedInvoiceTx(tx *gorm.DB, quoteID, invoiceID uuid.UUID) error {
	return tx.Model(&model.Quote{}).Where("id = ?", quoteID).
		Update("converted_invoice_id", invoiceID).Error
}

func (r *quoteRepo) SetDeletedAtTx(tx *gorm.DB, id uuid.UUID, deletedAt *time.Time) error {
	return tx.Model(&model.Quote{}).Where("id = ?", id).
		Update("deleted_at", deletedAt).Error
}

func (r *quoteRepo) SetItemDeletedAtTx(tx *gorm.DB, itemID uuid.UUID, deletedAt *time.Time) error {
	return tx.Model(&model.QuoteItem{}).Where("id = ?", itemID).
		Update("deleted_at", deletedAt).Error
}

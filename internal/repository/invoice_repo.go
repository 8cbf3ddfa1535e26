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

type InvoiceRepository interface {
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	CreateItemTx(tx *gorm.DB, item *model.InvoiceItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	// FindByIDTx reloads the invoice with items inside a transaction.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error)
	FindItemTx(tx *gorm.DB, invoiceID, itemID uuid.UUID) (*model.InvoiceItem, error)
	List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error)
	UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, totalHT, totalTTC decimal.Decimal) error
	SetCancelledTx(tx *gorm.DB, id uuid.UUID, cancelled bool) error
	SetDeletedAtTx(tx *gorm.DB, id uuid.UUID, deletedAt *time.Time) error
	SetItemDeletedAtTx(tx *gorm.DB, itemID uuid.UUID, deletedAt *time.Time) error
	UpdateAmountPaidTx(tx *gorm.DB, id uuid.UUID, amountPaid decimal.Decimal) error

	// Dashboard aggregates over active (non-deleted, non-cancelled) invoices.
	CountActive(ctx context.Context) (int64, error)
	SumUnpaid(ctx context.Context) (decimal.Decimal, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Create(inv).Error
}

func (r *invoiceRepo) CreateItemTx(tx *gorm.DB, item *model.InvoiceItem) error {
	return tx.Create(item).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items.Product").Preload("Client").
		First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "facture"}
	}
	return &inv, err
}

func (r *invoiceRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.Preload("Items.Product").Preload("Client").First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "facture"}
	}
	return &inv, err
}

func (r *invoiceRepo) FindItemTx(tx *gorm.DB, invoiceID, itemID uuid.UUID) (*model.InvoiceItem, error) {
	var item model.InvoiceItem
	err := tx.Where("id = ? AND invoice_id = ? AND deleted_at IS NULL", itemID, invoiceID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "ligne de facture"}
	}
	return &item, err
}

func (r *invoiceRepo) List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("deleted_at IS NULL")

	if filter.Cancelled != "" && filter.Cancelled != "all" {
		q = q.Where("is_cancelled = ?", filter.Cancelled == "true")
	}
	if filter.Proforma != "" && filter.Proforma != "all" {
		q = q.Where("is_proforma = ?", filter.Proforma == "true")
	}
	if filter.Company != "" {
		q = q.Where("company = ?", filter.Company)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("invoice_number ILIKE ? OR client_name ILIKE ?", like, like)
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

	var invoices []model.Invoice
	err := q.Preload("Items.Product").Preload("Client").
		Order("date DESC, created_at DESC").
		Offset(offset).Limit(limit).Find(&invoices).Error
	return invoices, total, err
}

func (r *invoiceRepo) UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, totalHT, totalTTC decimal.Decimal) error {
	return tx.Model(&model.Invoice{}).Where("id = ?", id).
		Updates(map[string]interface{}{"total_ht": totalHT, "total_ttc": totalTTC}).Error
}

func (r *invoiceRepo) SetCancelledTx(tx *gorm.DB, id uuid.UUID, cancelled bool) error {
	return tx.Model(&model.Invoice{}).Where("id = ?", id).
		Update("is_cancelled", cancelled).Error
}

func (r *invoiceRepo) SetDeletedAtTx(tx *gorm.DB, id uuid.UUID, deletedAt *time.Time) error {
	return tx.Model(&model.Invoice{}).Where("id = ?", id).
		Update("deleted_at", deletedAt).Error
}

func (r *invoiceRepo) SetItemDeletedAtTx(tx *gorm.DB, itemID uuid.UUID, deletedAt *time.Time) error {
	return tx.Model(&model.InvoiceItem{}).Where("id = ?", itemID).
		Update("deleted_at", deletedAt).Error
}

func (r *invoiceRepo) UpdateAmountPaidTx(tx *gorm.DB, id uuid.UUID, amountPaid decimal.Decimal) error {
	return tx.Model(&model.Invoice{}).Where("id = ?", id).
		Update("amount_paid", amountPaid).Error
}

func (r *invoiceRepo) activeScope(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("deleted_at IS NULL AND is_cancelled = false AND is_proforma = false")
}

func (r *invoiceRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.activeScope(ctx).Count(&count).Error
	return count, err
}

func (r *invoiceRepo) SumUnpaid(ctx context.Context) (decimal.Decimal, error) {
	var raw struct{ Total decimal.Decimal }
	err := r.activeScope(ctx).
		Select("COALESCE(SUM(total_ttc - amount_paid), 0) AS total").
		Where("amount_paid < total_ttc").
		Scan(&raw).Error
	return raw.Total, err
}

func (r *invoiceRepo) RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var raw struct{ Total decimal.Decimal }
	err := r.activeScope(ctx).
		Select("COALESCE(SUM(total_ttc), 0) AS total").
		Where("date >= ? AND date < ?", from, to).
		Scan(&raw).Error
	return raw.Total, err
}

package repository

import (
	"context"
	"errors"
	"time"

	"gestock/internal/model"
	"gestock/internal/stockerr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementFilter defines filters for listing journal entries.
type StockMovementFilter struct {
	ProductID      *uuid.UUID
	MovementType   string
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeDeleted bool
	Page           int
	Limit          int
}

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockMovement, error)
	// FindByIDTx reloads the movement inside the tx so reversal/restore
	// decisions are made against committed state, not a stale read.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockMovement, error)
	// FindActiveByReferenceTx locates the live EXIT paired to an invoice item.
	FindActiveByReferenceTx(tx *gorm.DB, referenceID uuid.UUID) (*model.StockMovement, error)
	// FindReversedByReferenceTx locates the reversed EXIT paired to an invoice
	// item, for re-application on invoice restore.
	FindReversedByReferenceTx(tx *gorm.DB, referenceID uuid.UUID) (*model.StockMovement, error)
	SetDeletedAtTx(tx *gorm.DB, id uuid.UUID, deletedAt *time.Time) error
	List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error)
	DB() *gorm.DB
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) DB() *gorm.DB { return r.db }

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockMovement, error) {
	var m model.StockMovement
	err := r.db.WithContext(ctx).Preload("Product").First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "mouvement de stock"}
	}
	return &m, err
}

func (r *stockMovementRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockMovement, error) {
	var m model.StockMovement
	err := tx.First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "mouvement de stock"}
	}
	return &m, err
}

func (r *stockMovementRepo) FindActiveByReferenceTx(tx *gorm.DB, referenceID uuid.UUID) (*model.StockMovement, error) {
	var m model.StockMovement
	err := tx.Where("reference_id = ? AND deleted_at IS NULL", referenceID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "mouvement de stock"}
	}
	return &m, err
}

func (r *stockMovementRepo) FindReversedByReferenceTx(tx *gorm.DB, referenceID uuid.UUID) (*model.StockMovement, error) {
	var m model.StockMovement
	err := tx.Where("reference_id = ? AND deleted_at IS NOT NULL", referenceID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "mouvement de stock"}
	}
	return &m, err
}

func (r *stockMovementRepo) SetDeletedAtTx(tx *gorm.DB, id uuid.UUID, deletedAt *time.Time) error {
	return tx.Model(&model.StockMovement{}).Where("id = ?", id).
		Update("deleted_at", deletedAt).Error
}

func (r *stockMovementRepo) List(ctx context.Context, filter StockMovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).Preload("Product")

	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.MovementType != "" {
		q = q.Where("movement_type = ?", filter.MovementType)
	}
	if filter.DateFrom != nil {
		q = q.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("date <= ?", *filter.DateTo)
	}
	if !filter.IncludeDeleted {
		q = q.Where("deleted_at IS NULL")
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
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movements []model.StockMovement
	err := q.Order("date DESC, created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

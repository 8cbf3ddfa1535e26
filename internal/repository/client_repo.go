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

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, search string) ([]model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	// SoftDelete is rejected while invoices or quotes still reference the
	// client (protect-on-delete, like products).
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &stockerr.NotFoundError{Entity: "client"}
	}
	return &c, err
}

func (r *clientRepo) List(ctx context.Context, search string) ([]model.Client, error) {
	q := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if search != "" {
		q = q.Where("name ILIKE ?", "%"+search+"%")
	}
	var clients []model.Client
	err := q.Order("name ASC").Find(&clients).Error
	return clients, err
}

func (r *clientRepo) Update(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clientRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	var invoices, quotes int64
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("client_id = ? AND deleted_at IS NULL", id).Count(&invoices).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(&model.Quote{}).
		Where("client_id = ? AND deleted_at IS NULL", id).Count(&quotes).Error; err != nil {
		return err
	}
	if invoices+quotes > 0 {
		return &stockerr.ValidationError{
			Field:   "id",
			Message: "client référencé par des factures ou devis actifs, suppression impossible",
		}
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).
		Update("deleted_at", now).Error
}

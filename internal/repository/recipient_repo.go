package repository

import (
	"context"

	"gestock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipientRepository manages the list of stock notification recipients.
// The SMS/email workers read it at delivery time, so recipient changes take
// effect without redeploys.
type RecipientRepository interface {
	Create(ctx context.Context, rcpt *model.StockNotificationRecipient) error
	ListActive(ctx context.Context) ([]model.StockNotificationRecipient, error)
	List(ctx context.Context) ([]model.StockNotificationRecipient, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type recipientRepo struct{ db *gorm.DB }

func NewRecipientRepository(db *gorm.DB) RecipientRepository { return &recipientRepo{db: db} }

func (r *recipientRepo) Create(ctx context.Context, rcpt *model.StockNotificationRecipient) error {
	return r.db.WithContext(ctx).Create(rcpt).Error
}

func (r *recipientRepo) ListActive(ctx context.Context) ([]model.StockNotificationRecipient, error) {
	var recipients []model.StockNotificationRecipient
	err := r.db.WithContext(ctx).Where("is_active = true").Find(&recipients).Error
	return recipients, err
}

func (r *recipientRepo) List(ctx context.Context) ([]model.StockNotificationRecipient, error) {
	var recipients []model.StockNotificationRecipient
	err := r.db.WithContext(ctx).Order("name ASC").Find(&recipients).Error
	return recipients, err
}

func (r *recipientRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.StockNotificationRecipient{}).
		Where("id = ?", id).Update("is_active", active).Error
}

func (r *recipientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.StockNotificationRecipient{}, "id = ?", id).Error
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// StockNotificationRecipient is a manager who receives SMS and/or email
// notifications on stock movements and low-stock alerts.
type StockNotificationRecipient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Phone     *string   // E.164, Senegal numbers accepted with or without +221
	Email     *string
	IsActive  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StockNotificationRecipient) TableName() string { return "stock_notification_recipients" }

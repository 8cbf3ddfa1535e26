package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product holds the authoritative on-hand quantity for an article.
// Quantity is NEVER written directly: every change goes through the stock
// movement journal (see repository.ProductRepository.AdjustStockTx), so the
// full history of a product's stock is reconstructible from its movements.
type Product struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string    `gorm:"index;not null"`
	Description    *string
	Category       *string         `gorm:"index"`
	Quantity       int             `gorm:"not null;default:0"`
	PurchasePrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SalePrice      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	AlertThreshold int             `gorm:"not null;default:10"`
	IsActive       bool            `gorm:"not null;default:true;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
}

// IsLowStock reports whether the product is at or below its alert threshold.
// Read-only: used by the notification pipeline, never by the engine itself.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.AlertThreshold
}

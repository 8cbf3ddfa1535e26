package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is a non-binding estimate. Quotes never touch stock; the only stock
// interaction happens at conversion time, when the resulting invoice's EXIT
// movements are created.
type Quote struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteNumber    string    `gorm:"uniqueIndex;not null"`
	Date           time.Time `gorm:"not null;index"`
	ExpirationDate *time.Time `gorm:"index"`
	ClientID       *uuid.UUID `gorm:"type:uuid;index"`
	ClientName     *string
	ClientEmail    *string
	ClientPhone    *string
	ClientAddress  *string
	Company        string          `gorm:"type:varchar(20);not null;default:'NETSYSTEME'"`
	TotalHT        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TotalTTC       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	// ConvertedInvoiceID is set exactly once, by ConvertToInvoice. A non-nil
	// value makes any further conversion attempt fail.
	ConvertedInvoiceID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time `gorm:"index"`

	Client           *Client     `gorm:"foreignKey:ClientID"`
	ConvertedInvoice *Invoice    `gorm:"foreignKey:ConvertedInvoiceID"`
	Items            []QuoteItem `gorm:"foreignKey:QuoteID"`
}

// IsExpired is derived from the expiration date — not a stored state.
func (q *Quote) IsExpired(now time.Time) bool {
	return q.ExpirationDate != nil && now.After(*q.ExpirationDate)
}

// ActiveItems returns the non-deleted items.
func (q *Quote) ActiveItems() []QuoteItem {
	items := make([]QuoteItem, 0, len(q.Items))
	for _, it := range q.Items {
		if it.DeletedAt == nil {
			items = append(items, it)
		}
	}
	return items
}

// QuoteItem mirrors InvoiceItem but carries no stock side effects.
type QuoteItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int       `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// NewQuoteNumber generates a unique quote number: DEV-YYYYMMDD-XXXXXXXX.
func NewQuoteNumber(now time.Time) string {
	return fmt.Sprintf("DEV-%s-%s", now.Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]))
}

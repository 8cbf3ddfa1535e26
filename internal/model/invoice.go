package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Billing entities — the two companies the system invoices for.
const (
	CompanyNetsysteme = "NETSYSTEME"
	CompanySSE        = "SSE"
)

// Invoice is a financial document. A definitive invoice (is_proforma=false)
// always has a 1:1 pairing between its non-deleted items and active EXIT
// stock movements; a proforma never touches stock.
//
// TotalHT/TotalTTC are derived — recomputed from the items after every item
// mutation, never accepted from a caller.
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceNumber string    `gorm:"uniqueIndex;not null"`
	Date          time.Time `gorm:"not null;index"`
	ClientID      *uuid.UUID `gorm:"type:uuid;index"`
	ClientName    *string
	Company       string          `gorm:"type:varchar(20);not null;default:'NETSYSTEME'"`
	TotalHT       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TotalTTC      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	IsCancelled   bool            `gorm:"not null;default:false;index"`
	IsProforma    bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time `gorm:"index"`

	Client *Client       `gorm:"foreignKey:ClientID"`
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

// ActiveItems returns the non-deleted items, the only ones that count for
// totals and stock.
func (i *Invoice) ActiveItems() []InvoiceItem {
	items := make([]InvoiceItem, 0, len(i.Items))
	for _, it := range i.Items {
		if it.DeletedAt == nil {
			items = append(items, it)
		}
	}
	return items
}

// DisplayName resolves the client display name (linked client wins over the
// free-text fallback).
func (i *Invoice) DisplayName() string {
	if i.Client != nil {
		return i.Client.Name
	}
	if i.ClientName != nil {
		return *i.ClientName
	}
	return "Client inconnu"
}

// InvoiceItem is one line of an invoice. Subtotal is derived
// (quantity × unit_price) at creation and immutable afterwards.
type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int       `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// NewInvoiceNumber generates a unique invoice number: INV-YYYYMMDD-XXXXXXXX.
func NewInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]))
}

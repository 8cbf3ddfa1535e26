package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement types. A movement is either a physical entry (reception, return)
// or an exit (sale, consumption). There is no third kind: adjustments are an
// entry or an exit with a comment.
const (
	MovementEntry = "ENTRY"
	MovementExit  = "EXIT"
)

// StockMovement is one journal line: a discrete, signed adjustment applied to
// a product's quantity. Movements are the sole writers of products.quantity.
//
// Lifecycle: ACTIVE (deleted_at null) → REVERSED (deleted_at set, effect
// rolled back) → ACTIVE again via restore, which re-validates stock for EXIT.
type StockMovement struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;index"`
	MovementType string    `gorm:"type:varchar(10);not null;index"` // ENTRY | EXIT
	Quantity     int       `gorm:"not null"`                        // always ≥ 1; direction comes from MovementType
	Date         time.Time `gorm:"not null;index"`
	Comment      string
	// StockBefore/StockAfter snapshot the product quantity around the original
	// application of the movement, for audit trails and anomaly hunting.
	StockBefore int `gorm:"not null"`
	StockAfter  int `gorm:"not null"`
	// ReferenceID links an EXIT to the invoice item that consumed the stock.
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
	DeletedAt   *time.Time `gorm:"index"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (StockMovement) TableName() string { return "stock_movements" }

// Reversed reports whether the movement's effect is currently rolled back.
func (m *StockMovement) Reversed() bool { return m.DeletedAt != nil }

// Delta returns the signed effect of the movement on the product quantity.
func (m *StockMovement) Delta() int {
	if m.MovementType == MovementExit {
		return -m.Quantity
	}
	return m.Quantity
}

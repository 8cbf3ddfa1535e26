package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is a billing counterpart, referenced (never owned) by invoices and
// quotes. Deletion while referenced is rejected so document history stays
// reconstructible.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"index;not null"`
	Email     *string
	Phone     *string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

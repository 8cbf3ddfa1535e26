package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles: admin has full access, commercial can manage documents and clients
// but not users or product purge.
const (
	RoleAdmin      = "admin"
	RoleCommercial = "commercial"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null;default:'commercial'"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// SupplierContact is an individual contact person at a supplier.
type SupplierContact struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"not null"`
	Role       *string
	Phone      *string
	Email      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (SupplierContact) TableName() string { return "supplier_contacts" }

package model

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a purchasing source for stock items. Reorder suggestions name the
// supplier so purchasing can act on a single report.
type Supplier struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"index;not null"`
	TaxID        *string   `gorm:"uniqueIndex"`
	Phone        *string
	Email        *string
	Address      *string
	PaymentTerms string `gorm:"type:varchar(30);default:'cash'"` // cash | net_15 | net_30
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Contacts []SupplierContact `gorm:"foreignKey:SupplierID"`
}

func (Supplier) TableName() string { return "suppliers" }

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is the engine's view of a sellable dish. Only the fields the
// deduction path needs live here — pricing, descriptions and the rest of the
// menu CRUD belong to the ordering service.
type MenuItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string          `gorm:"index;not null"`
	TrackStock bool            `gorm:"not null;default:true"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Active     bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Ingredients []RecipeIngredient `gorm:"foreignKey:MenuItemID"`
}

func (MenuItem) TableName() string { return "menu_items" }

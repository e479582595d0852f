package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeIngredient links one menu item to one stock item with the quantity
// consumed per serving, expressed in the stock item's native unit. Automatic
// deduction resolves order lines through these rows; ingredients whose stock
// item is flagged manual are skipped at order time and settled at billing.
type RecipeIngredient struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MenuItemID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_menu_stock"`
	StockItemID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_menu_stock"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	MenuItem  *MenuItem  `gorm:"foreignKey:MenuItemID"`
	StockItem *StockItem `gorm:"foreignKey:StockItemID"`
}

func (RecipeIngredient) TableName() string { return "recipe_ingredients" }

package dto

import "github.com/shopspring/decimal"

type RecipeIngredientRequest struct {
	StockItemID string          `json:"stock_item_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required,gt=0"`
}

// SetRecipeRequest replaces the full ingredient list of a menu item.
type SetRecipeRequest struct {
	Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,dive"`
}

type CreateMenuItemRequest struct {
	Name       string          `json:"name" validate:"required,min=2,max=120"`
	Price      decimal.Decimal `json:"price" validate:"min=0"`
	TrackStock *bool           `json:"track_stock"`
}

type RecipeIngredientResponse struct {
	StockItemID   string          `json:"stock_item_id"`
	StockItemName string          `json:"stock_item_name"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	DeductionType string          `json:"deduction_type"`
}

type MenuItemResponse struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Price       decimal.Decimal            `json:"price"`
	TrackStock  bool                       `json:"track_stock"`
	Active      bool                       `json:"active"`
	Ingredients []RecipeIngredientResponse `json:"ingredients,omitempty"`
}

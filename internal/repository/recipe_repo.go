package repository

import (
	"context"

	"github.com/janesh-web3/RMS-demo-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeRepository serves the menu-item/ingredient resolution needed by the
// automatic deduction path, plus recipe maintenance.
type RecipeRepository interface {
	CreateMenuItem(ctx context.Context, m *model.MenuItem) error
	FindMenuItem(ctx context.Context, id uuid.UUID) (*model.MenuItem, error)
	FindMenuItems(ctx context.Context, ids []uuid.UUID) ([]model.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]model.MenuItem, error)

	// SetIngredients replaces the full recipe of a menu item atomically.
	SetIngredients(ctx context.Context, menuItemID uuid.UUID, ingredients []model.RecipeIngredient) error
	IngredientsForMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]model.RecipeIngredient, error)
}

type recipeRepo struct{ db *gorm.DB }

func NewRecipeRepository(db *gorm.DB) RecipeRepository { return &recipeRepo{db: db} }

func (r *recipeRepo) CreateMenuItem(ctx context.Context, m *model.MenuItem) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *recipeRepo) FindMenuItem(ctx context.Context, id uuid.UUID) (*model.MenuItem, error) {
	var m model.MenuItem
	err := r.db.WithContext(ctx).
		Preload("Ingredients").
		Preload("Ingredients.StockItem").
		First(&m, id).Error
	return &m, err
}

func (r *recipeRepo) FindMenuItems(ctx context.Context, ids []uuid.UUID) ([]model.MenuItem, error) {
	var items []model.MenuItem
	err := r.db.WithContext(ctx).
		Preload("Ingredients").
		Preload("Ingredients.StockItem").
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

func (r *recipeRepo) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	var items []model.MenuItem
	err := r.db.WithContext(ctx).
		Preload("Ingredients").
		Preload("Ingredients.StockItem").
		Where("active = true").
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *recipeRepo) SetIngredients(ctx context.Context, menuItemID uuid.UUID, ingredients []model.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_item_id = ?", menuItemID).
			Delete(&model.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if len(ingredients) == 0 {
			return nil
		}
		for i := range ingredients {
			ingredients[i].MenuItemID = menuItemID
		}
		return tx.Create(&ingredients).Error
	})
}

func (r *recipeRepo) IngredientsForMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]model.RecipeIngredient, error) {
	var rows []model.RecipeIngredient
	err := r.db.WithContext(ctx).
		Preload("StockItem").
		Where("menu_item_id = ?", menuItemID).
		Find(&rows).Error
	return rows, err
}

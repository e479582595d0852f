package service

import (
	"context"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/model"
	"github.com/janesh-web3/RMS-demo-sub001/internal/repository"

	"github.com/google/uuid"
)

// RecipeService maintains menu items and their ingredient lists. The ingredient
// rows it writes are what the automatic deduction path resolves order lines
// against.
type RecipeService interface {
	CreateMenuItem(ctx context.Context, req dto.CreateMenuItemRequest) (*dto.MenuItemResponse, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (*dto.MenuItemResponse, error)
	ListMenuItems(ctx context.Context) ([]dto.MenuItemResponse, error)
	SetRecipe(ctx context.Context, menuItemID uuid.UUID, req dto.SetRecipeRequest) (*dto.MenuItemResponse, error)
}

type recipeService struct {
	repo     repository.RecipeRepository
	itemRepo repository.StockItemRepository
}

func NewRecipeService(repo repository.RecipeRepository, itemRepo repository.StockItemRepository) RecipeService {
	return &recipeService{repo: repo, itemRepo: itemRepo}
}

func (s *recipeService) CreateMenuItem(ctx context.Context, req dto.CreateMenuItemRequest) (*dto.MenuItemResponse, error) {
	m := &model.MenuItem{
		Name:       req.Name,
		Price:      req.Price,
		TrackStock: true,
		Active:     true,
	}
	if req.TrackStock != nil {
		m.TrackStock = *req.TrackStock
	}
	if err := s.repo.CreateMenuItem(ctx, m); err != nil {
		return nil, err
	}
	resp := menuItemToResponse(m)
	return &resp, nil
}

func (s *recipeService) GetMenuItem(ctx context.Context, id uuid.UUID) (*dto.MenuItemResponse, error) {
	m, err := s.repo.FindMenuItem(ctx, id)
	if err != nil {
		return nil, ErrMenuItemNotFound
	}
	resp := menuItemToResponse(m)
	return &resp, nil
}

func (s *recipeService) ListMenuItems(ctx context.Context) ([]dto.MenuItemResponse, error) {
	items, err := s.repo.ListMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MenuItemResponse, len(items))
	for i := range items {
		resp[i] = menuItemToResponse(&items[i])
	}
	return resp, nil
}

func (s *recipeService) SetRecipe(ctx context.Context, menuItemID uuid.UUID, req dto.SetRecipeRequest) (*dto.MenuItemResponse, error) {
	if _, err := s.repo.FindMenuItem(ctx, menuItemID); err != nil {
		return nil, ErrMenuItemNotFound
	}

	rows := make([]model.RecipeIngredient, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		sid, err := uuid.Parse(ing.StockItemID)
		if err != nil {
			return nil, err
		}
		// Every referenced stock item must exist; recipes may reference
		// inactive ones (they are skipped at deduction time, not here).
		if _, err := s.itemRepo.FindByID(ctx, sid); err != nil {
			return nil, ErrStockItemNotFound
		}
		rows = append(rows, model.RecipeIngredient{
			StockItemID: sid,
			Quantity:    ing.Quantity,
		})
	}

	if err := s.repo.SetIngredients(ctx, menuItemID, rows); err != nil {
		return nil, err
	}
	return s.GetMenuItem(ctx, menuItemID)
}

func menuItemToResponse(m *model.MenuItem) dto.MenuItemResponse {
	resp := dto.MenuItemResponse{
		ID:         m.ID.String(),
		Name:       m.Name,
		Price:      m.Price,
		TrackStock: m.TrackStock,
		Active:     m.Active,
	}
	for _, ing := range m.Ingredients {
		r := dto.RecipeIngredientResponse{
			StockItemID: ing.StockItemID.String(),
			Quantity:    ing.Quantity,
		}
		if ing.StockItem != nil {
			r.StockItemName = ing.StockItem.Name
			r.Unit = ing.StockItem.Unit
			r.DeductionType = ing.StockItem.DeductionType
		}
		resp.Ingredients = append(resp.Ingredients, r)
	}
	return resp
}

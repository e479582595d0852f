package repository

import (
	"context"

	"github.com/janesh-web3/RMS-demo-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CostHistoryRepository interface {
	Create(ctx context.Context, h *model.CostHistory) error
	CreateTx(tx *gorm.DB, h *model.CostHistory) error
	ListByItem(ctx context.Context, stockItemID uuid.UUID, limit int) ([]model.CostHistory, error)
}

type costHistoryRepo struct{ db *gorm.DB }

func NewCostHistoryRepository(db *gorm.DB) CostHistoryRepository { return &costHistoryRepo{db: db} }

func (r *costHistoryRepo) Create(ctx context.Context, h *model.CostHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *costHistoryRepo) CreateTx(tx *gorm.DB, h *model.CostHistory) error {
	return tx.Create(h).Error
}

func (r *costHistoryRepo) ListByItem(ctx context.Context, stockItemID uuid.UUID, limit int) ([]model.CostHistory, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	var rows []model.CostHistory
	err := r.db.WithContext(ctx).
		Where("stock_item_id = ?", stockItemID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

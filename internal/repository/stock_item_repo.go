package repository

import (
	"context"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockItemRepository defines the data access contract for stock items.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type StockItemRepository interface {
	Create(ctx context.Context, item *model.StockItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindByName(ctx context.Context, name string) (*model.StockItem, error)
	List(ctx context.Context, filter dto.StockItemFilter) ([]model.StockItem, int64, error)
	ListActive(ctx context.Context) ([]model.StockItem, error)
	Update(ctx context.Context, item *model.StockItem) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error

	// Used inside transactions — callers must pass the tx instance.
	// LockForUpdateTx acquires row locks ordered by id so two batches touching
	// overlapping item sets always lock in the same order (no deadlock).
	LockForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.StockItem, error)
	SetQuantityTx(tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type stockItemRepo struct{ db *gorm.DB }

func NewStockItemRepository(db *gorm.DB) StockItemRepository { return &stockItemRepo{db: db} }

func (r *stockItemRepo) Create(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *stockItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	return &item, err
}

func (r *stockItemRepo) FindByName(ctx context.Context, name string) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND status = ?", name, model.StatusActive).
		First(&item).Error
	return &item, err
}

func (r *stockItemRepo) List(ctx context.Context, filter dto.StockItemFilter) ([]model.StockItem, int64, error) {
	var items []model.StockItem
	var total int64

	q := r.db.WithContext(ctx).Model(&model.StockItem{})

	// Status filter: "inactive" | "all" | anything else = active (default)
	switch filter.Status {
	case model.StatusInactive:
		q = q.Where("status = ?", model.StatusInactive)
	case "all":
		// no filter
	default:
		q = q.Where("status = ?", model.StatusActive)
	}

	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.SupplierID != "" {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := (page - 1) * limit
	err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&items).Error
	return items, total, err
}

func (r *stockItemRepo) ListActive(ctx context.Context) ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.WithContext(ctx).
		Where("status = ?", model.StatusActive).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *stockItemRepo) Update(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *stockItemRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.StockItem{}).
		Where("id = ?", id).Update("status", model.StatusInactive).Error
}

func (r *stockItemRepo) Reactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.StockItem{}).
		Where("id = ?", id).Update("status", model.StatusActive).Error
}

func (r *stockItemRepo) LockForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.StockItem, error) {
	var items []model.StockItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *stockItemRepo) SetQuantityTx(tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal) error {
	return tx.Model(&model.StockItem{}).Where("id = ?", id).
		Update("quantity", quantity).Error
}

func (r *stockItemRepo) DB() *gorm.DB { return r.db }

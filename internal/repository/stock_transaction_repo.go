package repository

import (
	"context"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockTransactionFilter defines filters for listing ledger postings.
type StockTransactionFilter struct {
	StockItemID *uuid.UUID
	Type        string
	Reason      string
	From        *time.Time
	To          *time.Time
	Page        int
	Limit       int
}

// UsageRow is one aggregated ledger-replay row: total outflow magnitude and
// cost for a stock item over a date range.
type UsageRow struct {
	StockItemID uuid.UUID
	TotalQty    decimal.Decimal
	TotalCost   decimal.Decimal
}

// StockTransactionRepository is the append-only ledger store. There are no
// update or delete methods on purpose.
type StockTransactionRepository interface {
	Create(ctx context.Context, t *model.StockTransaction) error
	CreateTx(tx *gorm.DB, t *model.StockTransaction) error
	List(ctx context.Context, filter StockTransactionFilter) ([]model.StockTransaction, int64, error)

	// FindDeductionsByOriginTx returns the outflow/order_deduction postings
	// matching the structured composite origin key, locked for the duration of
	// the surrounding transaction.
	FindDeductionsByOriginTx(tx *gorm.DB, originID, originKind, policy string) ([]model.StockTransaction, error)

	// CountReversalsByOriginTx counts inflow/return postings already written for
	// a composite origin key. A non-zero count means the origin was reversed.
	CountReversalsByOriginTx(tx *gorm.DB, originID, originKind, policy string) (int64, error)

	// SumOutflows aggregates outflow magnitude and cost per item over a range
	// (ledger replay for usage statistics).
	SumOutflows(ctx context.Context, from, to time.Time) ([]UsageRow, error)

	// ReplayBalance sums the signed quantities of every posting for one item —
	// the reconciliation check against the live StockItem.Quantity.
	ReplayBalance(ctx context.Context, stockItemID uuid.UUID) (decimal.Decimal, error)
}

type stockTransactionRepo struct{ db *gorm.DB }

func NewStockTransactionRepository(db *gorm.DB) StockTransactionRepository {
	return &stockTransactionRepo{db: db}
}

func (r *stockTransactionRepo) Create(ctx context.Context, t *model.StockTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *stockTransactionRepo) CreateTx(tx *gorm.DB, t *model.StockTransaction) error {
	return tx.Create(t).Error
}

func (r *stockTransactionRepo) List(ctx context.Context, filter StockTransactionFilter) ([]model.StockTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Preload("StockItem")
	if filter.StockItemID != nil {
		q = q.Where("stock_item_id = ?", *filter.StockItemID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Reason != "" {
		q = q.Where("reason = ?", filter.Reason)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("date <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var txs []model.StockTransaction
	err := q.Order("date DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, total, err
}

func (r *stockTransactionRepo) FindDeductionsByOriginTx(tx *gorm.DB, originID, originKind, policy string) ([]model.StockTransaction, error) {
	var txs []model.StockTransaction
	err := tx.
		Where("origin_id = ? AND origin_kind = ? AND deduction_policy = ?", originID, originKind, policy).
		Where("type = ? AND reason = ?", model.TxOutflow, model.ReasonOrderDeduction).
		Order("stock_item_id ASC").
		Find(&txs).Error
	return txs, err
}

func (r *stockTransactionRepo) CountReversalsByOriginTx(tx *gorm.DB, originID, originKind, policy string) (int64, error) {
	var count int64
	err := tx.Model(&model.StockTransaction{}).
		Where("origin_id = ? AND origin_kind = ? AND deduction_policy = ?", originID, originKind, policy).
		Where("type = ? AND reason = ?", model.TxInflow, model.ReasonReturn).
		Count(&count).Error
	return count, err
}

func (r *stockTransactionRepo) SumOutflows(ctx context.Context, from, to time.Time) ([]UsageRow, error) {
	var rows []UsageRow
	err := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Select("stock_item_id, SUM(-quantity) AS total_qty, SUM(total_cost) AS total_cost").
		Where("type = ? AND date >= ? AND date <= ?", model.TxOutflow, from, to).
		Group("stock_item_id").
		Scan(&rows).Error
	return rows, err
}

func (r *stockTransactionRepo) ReplayBalance(ctx context.Context, stockItemID uuid.UUID) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Select("COALESCE(SUM(quantity), 0) AS total").
		Where("stock_item_id = ?", stockItemID).
		Scan(&result).Error
	return result.Total, err
}

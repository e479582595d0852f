package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateStockItemRequest struct {
	Name           string          `json:"name" validate:"required,min=2,max=120"`
	Category       string          `json:"category" validate:"required"`
	Unit           string          `json:"unit" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity" validate:"min=0"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit" validate:"min=0"`
	MinThreshold   decimal.Decimal `json:"min_threshold" validate:"min=0"`
	ExpirationDate *time.Time      `json:"expiration_date"`
	DeductionType  string          `json:"deduction_type" validate:"required,oneof=automatic manual"`
	SupplierID     *string         `json:"supplier_id"`
}

type UpdateStockItemRequest struct {
	Name           *string          `json:"name"`
	Category       *string          `json:"category"`
	CostPerUnit    *decimal.Decimal `json:"cost_per_unit"`
	MinThreshold   *decimal.Decimal `json:"min_threshold"`
	ExpirationDate *time.Time       `json:"expiration_date"`
	DeductionType  *string          `json:"deduction_type"`
	SupplierID     *string          `json:"supplier_id"`
}

type StockItemFilter struct {
	Name       string
	Category   string
	Status     string // "active" (default) | "inactive" | "all"
	SupplierID string
	Page       int
	Limit      int
}

type StockItemResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
	MinThreshold   decimal.Decimal `json:"min_threshold"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	DeductionType  string          `json:"deduction_type"`
	SupplierID     *string         `json:"supplier_id,omitempty"`
	Status         string          `json:"status"`
	LowStock       bool            `json:"low_stock"`
	CreatedAt      string          `json:"created_at"`
}

type StockItemListResponse struct {
	Data  []StockItemResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// AddStockRequest records an inflow posting (purchase, opening stock, supplier return).
type AddStockRequest struct {
	Quantity    decimal.Decimal  `json:"quantity" validate:"required,gt=0"`
	CostPerUnit *decimal.Decimal `json:"cost_per_unit"`
	Reason      string           `json:"reason" validate:"required,oneof=purchase initial_stock return"`
	Notes       string           `json:"notes"`
	ExpenseID   *string          `json:"expense_id"`
}

// AdjustStockRequest records a signed correction posting. Negative adjustments
// that would drive the balance below zero are rejected before any mutation.
type AdjustStockRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	Reason   string          `json:"reason" validate:"required,oneof=waste spoilage theft manual_adjustment expired damaged"`
	Notes    string          `json:"notes"`
}

// StockEvent describes one successful mutation for the notification channel.
// The engine hands it to the dispatcher; broadcasting is the caller's concern.
type StockEvent struct {
	StockItemID              string          `json:"stock_item_id"`
	Name                     string          `json:"name"`
	NewQuantity              decimal.Decimal `json:"new_quantity"`
	CrossedLowStockThreshold bool            `json:"crossed_low_stock_threshold"`
}

type StockTransactionResponse struct {
	ID           string          `json:"id"`
	StockItemID  string          `json:"stock_item_id"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	OriginID     *string         `json:"origin_id,omitempty"`
	OriginKind   string          `json:"origin_kind,omitempty"`
	Policy       string          `json:"deduction_policy,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Date         string          `json:"date"`
}

type TransactionListResponse struct {
	Data  []StockTransactionResponse `json:"data"`
	Total int64                      `json:"total"`
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
}

// MutationResponse is returned by add/adjust endpoints: the updated item, the
// ledger row that paired with the mutation, and the notification event.
type MutationResponse struct {
	Item        StockItemResponse        `json:"item"`
	Transaction StockTransactionResponse `json:"transaction"`
	Event       StockEvent               `json:"event"`
}

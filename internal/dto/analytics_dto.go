package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CategoryValuation struct {
	Category string          `json:"category"`
	Value    decimal.Decimal `json:"value"`
	Items    int             `json:"items"`
}

type ValuationResponse struct {
	TotalValue decimal.Decimal     `json:"total_value"`
	Categories []CategoryValuation `json:"categories"`
}

type LowStockItem struct {
	StockItemID  string          `json:"stock_item_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinThreshold decimal.Decimal `json:"min_threshold"`
}

type ExpiringItem struct {
	StockItemID    string          `json:"stock_item_id"`
	Name           string          `json:"name"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate time.Time       `json:"expiration_date"`
	DaysLeft       int             `json:"days_left"`
}

// UsageStat aggregates outflow magnitude and cost for one item over a date
// range, computed from ledger replay — never from the live quantity.
type UsageStat struct {
	StockItemID string          `json:"stock_item_id"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	TotalUsed   decimal.Decimal `json:"total_used"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

type UsageStatsResponse struct {
	From  time.Time   `json:"from"`
	To    time.Time   `json:"to"`
	Stats []UsageStat `json:"stats"`
}

type ReorderSuggestion struct {
	StockItemID   string          `json:"stock_item_id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgDailyUsage decimal.Decimal `json:"avg_daily_usage"`
	DaysRemaining decimal.Decimal `json:"days_remaining"`
	SuggestedQty  decimal.Decimal `json:"suggested_qty"`
	Priority      string          `json:"priority"` // high | medium
	SupplierName  string          `json:"supplier_name,omitempty"`
}

type ReorderResponse struct {
	WindowDays  int                 `json:"window_days"`
	Suggestions []ReorderSuggestion `json:"suggestions"`
}

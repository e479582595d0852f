package dto

import "github.com/shopspring/decimal"

// ── Availability ─────────────────────────────────────────────────────────────

type AvailabilityLine struct {
	StockItemID string          `json:"stock_item_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required,gt=0"`
}

type AvailabilityRequest struct {
	Requests []AvailabilityLine `json:"requests" validate:"required,min=1,dive"`
}

type Shortfall struct {
	StockItemID string          `json:"stock_item_id"`
	Name        string          `json:"name"`
	Required    decimal.Decimal `json:"required"`
	Available   decimal.Decimal `json:"available"`
}

// AvailabilityResponse reports shortfalls and missing references separately:
// a missing stock item is a data-integrity problem, not "insufficient".
type AvailabilityResponse struct {
	Available  bool        `json:"available"`
	Shortfalls []Shortfall `json:"shortfalls,omitempty"`
	Missing    []string    `json:"missing,omitempty"`
}

// ── Deductions ───────────────────────────────────────────────────────────────

// OrderLine is one order line item for automatic-recipe deduction. Lines that
// are cancelled, or whose menu item has stock tracking disabled, are skipped.
type OrderLine struct {
	MenuItemID string `json:"menu_item_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	Cancelled  bool   `json:"cancelled"`
}

type OrderDeductionRequest struct {
	OrderID string      `json:"order_id" validate:"required"`
	Items   []OrderLine `json:"items" validate:"required,min=1,dive"`
}

// ManualUsageLine is a staff-entered consumption captured on an order line,
// settled when the bill is finalized. Quantity is in the item's native unit.
type ManualUsageLine struct {
	StockItemID  string           `json:"stock_item_id" validate:"required,uuid"`
	QuantityUsed decimal.Decimal  `json:"quantity_used" validate:"required,gt=0"`
	CostPerUnit  *decimal.Decimal `json:"cost_per_unit"`
}

type ManualDeductionRequest struct {
	OrderID string            `json:"order_id" validate:"required"`
	Lines   []ManualUsageLine `json:"lines" validate:"required,min=1,dive"`
}

// DirectEntryLine is a reception-entered consumption on a bill. Quantity may be
// in any unit; it is converted to the item's native unit before the deduction.
// Lines with a non-positive quantity or missing reference are skipped, not errors.
type DirectEntryLine struct {
	StockItemID string          `json:"stock_item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

type DirectDeductionRequest struct {
	BillID  string            `json:"bill_id" validate:"required"`
	Entries []DirectEntryLine `json:"entries" validate:"required,min=1"`
}

type DeductionLineResult struct {
	StockItemID  string          `json:"stock_item_id"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Cost         decimal.Decimal `json:"cost"`
}

type DeductionResponse struct {
	Deducted  []DeductionLineResult `json:"deducted"`
	Skipped   int                   `json:"skipped"`
	TotalCOGS decimal.Decimal       `json:"total_cogs"`
	Events    []StockEvent          `json:"events"`
}

// ── Reversal ─────────────────────────────────────────────────────────────────

type ReversalRequest struct {
	OriginID   string `json:"origin_id" validate:"required"`
	OriginKind string `json:"origin_kind" validate:"required,oneof=order bill"`
	Policy     string `json:"deduction_policy" validate:"required,oneof=automatic manual direct"`
}

type ReversalResponse struct {
	Reversed  []DeductionLineResult `json:"reversed"`
	TotalCOGS decimal.Decimal       `json:"total_cogs"`
	Events    []StockEvent          `json:"events"`
}

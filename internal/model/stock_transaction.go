package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxInflow     = "inflow"
	TxOutflow    = "outflow"
	TxAdjustment = "adjustment"
)

// Transaction reasons (closed set).
const (
	ReasonPurchase         = "purchase"
	ReasonOrderDeduction   = "order_deduction"
	ReasonWaste            = "waste"
	ReasonSpoilage         = "spoilage"
	ReasonTheft            = "theft"
	ReasonReturn           = "return"
	ReasonManualAdjustment = "manual_adjustment"
	ReasonInitialStock     = "initial_stock"
	ReasonExpired          = "expired"
	ReasonDamaged          = "damaged"
)

// Origin kinds for deduction correlation. Automatic and manual-recipe deductions
// hang off an order; direct reception entries hang off a bill.
const (
	OriginOrder = "order"
	OriginBill  = "bill"
)

// Deduction policies stamped on order_deduction postings. Together with
// (origin_id, origin_kind) they form the composite key reversal matches on —
// the three policies can coexist for one order and reverse independently.
const (
	PolicyAutomatic = "automatic"
	PolicyManual    = "manual"
	PolicyDirect    = "direct"
)

// StockTransaction is one immutable ledger posting. Quantity is signed: positive
// for inflow and upward adjustments, negative for outflow. BalanceAfter snapshots
// StockItem.Quantity immediately after the mutation it belongs to, written inside
// the same DB transaction. Rows are never updated or deleted.
type StockTransaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StockItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type        string          `gorm:"type:varchar(12);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Reason      string          `gorm:"type:varchar(20);not null;index"`
	CostPerUnit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	UserID      *uuid.UUID      `gorm:"type:uuid"`

	// Structured reversal correlation key. Free-text notes are never used
	// for matching.
	OriginID        *string `gorm:"type:varchar(64);index:idx_stock_tx_origin"`
	OriginKind      string  `gorm:"type:varchar(10);index:idx_stock_tx_origin"`
	DeductionPolicy string  `gorm:"type:varchar(10);index:idx_stock_tx_origin"`

	Notes string
	Date  time.Time `gorm:"not null;index"`

	CreatedAt time.Time

	StockItem *StockItem `gorm:"foreignKey:StockItemID"`
}

func (StockTransaction) TableName() string { return "stock_transactions" }

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Measurement units. Weight (kg/g) and volume (liter/ml) pairs are convertible;
// count-style units (pieces, packets, …) have no conversion rule.
const (
	UnitKg      = "kg"
	UnitG       = "g"
	UnitLiter   = "liter"
	UnitMl      = "ml"
	UnitPieces  = "pieces"
	UnitPackets = "packets"
	UnitBoxes   = "boxes"
	UnitCans    = "cans"
	UnitBottles = "bottles"
)

// Stock item categories (closed set).
const (
	CategoryMeat        = "meat"
	CategorySeafood     = "seafood"
	CategoryVegetables  = "vegetables"
	CategoryFruits      = "fruits"
	CategoryDairy       = "dairy"
	CategoryGrains      = "grains"
	CategorySpices      = "spices"
	CategoryBeverages   = "beverages"
	CategoryDisposables = "disposables"
	CategoryCleaning    = "cleaning"
	CategoryOther       = "other"
)

// Deduction ownership policy: automatic items leave stock at order creation via
// recipe ratios; manual items are deducted at billing with a staff-entered quantity.
const (
	DeductionAutomatic = "automatic"
	DeductionManual    = "manual"
)

// Item lifecycle status. Items are never physically deleted — deactivation hides
// them from availability checks and analytics while their ledger history stays intact.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// StockItem is one tracked ingredient/consumable with its current on-hand quantity.
// Quantity is only ever mutated together with a StockTransaction row, inside the
// same DB transaction, and must never go negative (deductions that would cross
// zero are rejected, not clamped).
type StockItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string          `gorm:"index;not null"`
	Category       string          `gorm:"type:varchar(20);not null;default:'other'"`
	Unit           string          `gorm:"type:varchar(10);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	CostPerUnit    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	MinThreshold   decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	ExpirationDate *time.Time
	DeductionType  string     `gorm:"type:varchar(10);not null;default:'automatic'"`
	SupplierID     *uuid.UUID `gorm:"type:uuid;index"`
	Status         string     `gorm:"type:varchar(10);not null;default:'active';index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

func (StockItem) TableName() string { return "stock_items" }

// IsActive reports whether the item participates in availability checks and analytics.
func (s *StockItem) IsActive() bool { return s.Status == StatusActive }

// IsLow reports whether the item is at or below its reorder threshold.
func (s *StockItem) IsLow() bool { return s.Quantity.LessThanOrEqual(s.MinThreshold) }

// ValidUnits is the closed set accepted on item creation.
var ValidUnits = map[string]bool{
	UnitKg: true, UnitG: true, UnitLiter: true, UnitMl: true,
	UnitPieces: true, UnitPackets: true, UnitBoxes: true, UnitCans: true, UnitBottles: true,
}

// ValidCategories is the closed set accepted on item creation.
var ValidCategories = map[string]bool{
	CategoryMeat: true, CategorySeafood: true, CategoryVegetables: true,
	CategoryFruits: true, CategoryDairy: true, CategoryGrains: true,
	CategorySpices: true, CategoryBeverages: true, CategoryDisposables: true,
	CategoryCleaning: true, CategoryOther: true,
}

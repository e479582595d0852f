package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostHistory records every change to a stock item's cost per unit, so COGS
// drift can be audited against purchase prices.
type CostHistory struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StockItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OldCost     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NewCost     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Source      string          `gorm:"type:varchar(20);not null"` // purchase | manual_update
	UserID      *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt   time.Time

	StockItem *StockItem `gorm:"foreignKey:StockItemID"`
}

func (CostHistory) TableName() string { return "cost_history" }

package service

import (
	"context"
	"sort"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AnalyticsService computes read-only reports over the item registry and the
// ledger. All usage figures come from ledger replay, never from the live
// quantity column.
type AnalyticsService interface {
	Valuation(ctx context.Context) (*dto.ValuationResponse, error)
	LowStock(ctx context.Context) ([]dto.LowStockItem, error)
	ExpiringSoon(ctx context.Context, horizonDays int) ([]dto.ExpiringItem, error)
	UsageStats(ctx context.Context, from, to time.Time) (*dto.UsageStatsResponse, error)
	ReorderSuggestions(ctx context.Context, windowDays int) (*dto.ReorderResponse, error)
}

type analyticsService struct {
	itemRepo     repository.StockItemRepository
	txRepo       repository.StockTransactionRepository
	supplierRepo repository.SupplierRepository

	defaultExpiryHorizon int
	defaultReorderWindow int
}

func NewAnalyticsService(
	itemRepo repository.StockItemRepository,
	txRepo repository.StockTransactionRepository,
	supplierRepo repository.SupplierRepository,
	expiryHorizonDays, reorderWindowDays int,
) AnalyticsService {
	if expiryHorizonDays < 1 {
		expiryHorizonDays = 7
	}
	if reorderWindowDays < 1 {
		reorderWindowDays = 30
	}
	return &analyticsService{
		itemRepo:             itemRepo,
		txRepo:               txRepo,
		supplierRepo:         supplierRepo,
		defaultExpiryHorizon: expiryHorizonDays,
		defaultReorderWindow: reorderWindowDays,
	}
}

func (s *analyticsService) Valuation(ctx context.Context) (*dto.ValuationResponse, error) {
	items, err := s.itemRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	byCategory := make(map[string]*dto.CategoryValuation)
	for i := range items {
		value := items[i].Quantity.Mul(items[i].CostPerUnit)
		total = total.Add(value)
		cv, ok := byCategory[items[i].Category]
		if !ok {
			cv = &dto.CategoryValuation{Category: items[i].Category, Value: decimal.Zero}
			byCategory[items[i].Category] = cv
		}
		cv.Value = cv.Value.Add(value)
		cv.Items++
	}

	categories := make([]dto.CategoryValuation, 0, len(byCategory))
	for _, cv := range byCategory {
		categories = append(categories, *cv)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Value.GreaterThan(categories[j].Value)
	})
	return &dto.ValuationResponse{TotalValue: total, Categories: categories}, nil
}

func (s *analyticsService) LowStock(ctx context.Context) ([]dto.LowStockItem, error) {
	items, err := s.itemRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockItem, 0)
	for i := range items {
		if !items[i].IsLow() {
			continue
		}
		out = append(out, dto.LowStockItem{
			StockItemID:  items[i].ID.String(),
			Name:         items[i].Name,
			Unit:         items[i].Unit,
			Quantity:     items[i].Quantity,
			MinThreshold: items[i].MinThreshold,
		})
	}
	// Most depleted relative to threshold first.
	sort.Slice(out, func(i, j int) bool {
		return deficitRatio(out[i]).LessThan(deficitRatio(out[j]))
	})
	return out, nil
}

// deficitRatio is quantity/threshold, with zero-threshold items treated as
// fully depleted.
func deficitRatio(it dto.LowStockItem) decimal.Decimal {
	if it.MinThreshold.IsZero() {
		return decimal.Zero
	}
	return it.Quantity.Div(it.MinThreshold)
}

func (s *analyticsService) ExpiringSoon(ctx context.Context, horizonDays int) ([]dto.ExpiringItem, error) {
	if horizonDays < 1 {
		horizonDays = s.defaultExpiryHorizon
	}
	items, err := s.itemRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cutoff := now.AddDate(0, 0, horizonDays)
	out := make([]dto.ExpiringItem, 0)
	for i := range items {
		exp := items[i].ExpirationDate
		if exp == nil || exp.After(cutoff) {
			continue
		}
		daysLeft := int(time.Until(*exp).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
		out = append(out, dto.ExpiringItem{
			StockItemID:    items[i].ID.String(),
			Name:           items[i].Name,
			Quantity:       items[i].Quantity,
			ExpirationDate: *exp,
			DaysLeft:       daysLeft,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpirationDate.Before(out[j].ExpirationDate)
	})
	return out, nil
}

func (s *analyticsService) UsageStats(ctx context.Context, from, to time.Time) (*dto.UsageStatsResponse, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -s.defaultReorderWindow)
	}

	rows, err := s.txRepo.SumOutflows(ctx, from, to)
	if err != nil {
		return nil, err
	}

	stats := make([]dto.UsageStat, 0, len(rows))
	for _, row := range rows {
		item, err := s.itemRepo.FindByID(ctx, row.StockItemID)
		if err != nil {
			// Item vanished from the registry after the postings were written;
			// drop the row rather than failing the whole report.
			log.Warn().Str("stock_item_id", row.StockItemID.String()).Msg("usage row references unknown stock item, omitted")
			continue
		}
		stats = append(stats, dto.UsageStat{
			StockItemID: item.ID.String(),
			Name:        item.Name,
			Unit:        item.Unit,
			TotalUsed:   row.TotalQty,
			TotalCost:   row.TotalCost,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].TotalCost.GreaterThan(stats[j].TotalCost)
	})
	return &dto.UsageStatsResponse{From: from, To: to, Stats: stats}, nil
}

// ReorderSuggestions projects days of supply remaining from average daily
// usage over the trailing window and suggests a top-up order for anything
// projected to run out within a week, or already at its threshold. Items with
// no usage history and a healthy balance are omitted rather than guessed at.
func (s *analyticsService) ReorderSuggestions(ctx context.Context, windowDays int) (*dto.ReorderResponse, error) {
	if windowDays < 1 {
		windowDays = s.defaultReorderWindow
	}
	to := time.Now()
	from := to.AddDate(0, 0, -windowDays)

	rows, err := s.txRepo.SumOutflows(ctx, from, to)
	if err != nil {
		return nil, err
	}
	usage := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		usage[row.StockItemID] = row.TotalQty
	}

	items, err := s.itemRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	window := decimal.NewFromInt(int64(windowDays))
	resupplyDays := decimal.NewFromInt(14)
	suggestions := make([]dto.ReorderSuggestion, 0)

	for i := range items {
		item := &items[i]
		total := usage[item.ID]
		avgDaily := decimal.Zero
		if total.IsPositive() {
			avgDaily = total.Div(window)
		}

		atThreshold := item.Quantity.LessThanOrEqual(item.MinThreshold)

		var daysRemaining decimal.Decimal
		if avgDaily.IsPositive() {
			daysRemaining = item.Quantity.Div(avgDaily)
		} else if !atThreshold {
			// No consumption and above threshold — nothing to suggest.
			continue
		}

		runningOut := avgDaily.IsPositive() && daysRemaining.LessThan(decimal.NewFromInt(7))
		if !runningOut && !atThreshold {
			continue
		}

		// Target a two-week supply; always at least back above the threshold.
		suggested := avgDaily.Mul(resupplyDays).Sub(item.Quantity)
		floor := item.MinThreshold.Sub(item.Quantity)
		if floor.GreaterThan(suggested) {
			suggested = floor
		}
		if !suggested.IsPositive() {
			continue
		}

		priority := "medium"
		if atThreshold {
			priority = "high"
		}

		sg := dto.ReorderSuggestion{
			StockItemID:   item.ID.String(),
			Name:          item.Name,
			Unit:          item.Unit,
			Quantity:      item.Quantity,
			AvgDailyUsage: avgDaily.Round(3),
			DaysRemaining: daysRemaining.Round(1),
			SuggestedQty:  suggested.Round(3),
			Priority:      priority,
		}
		if item.SupplierID != nil && s.supplierRepo != nil {
			if supplier, err := s.supplierRepo.FindByID(ctx, *item.SupplierID); err == nil {
				sg.SupplierName = supplier.Name
			}
		}
		suggestions = append(suggestions, sg)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Priority != suggestions[j].Priority {
			return suggestions[i].Priority == "high"
		}
		return suggestions[i].DaysRemaining.LessThan(suggestions[j].DaysRemaining)
	})
	return &dto.ReorderResponse{WindowDays: windowDays, Suggestions: suggestions}, nil
}

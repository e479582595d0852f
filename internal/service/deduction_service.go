package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/model"
	"github.com/janesh-web3/RMS-demo-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notifier receives stock events after a successful commit. The engine never
// talks to a broadcast transport itself; the dispatcher relays events to the
// notification gateway and enqueues low-stock alert jobs.
type Notifier interface {
	PublishStockEvent(ctx context.Context, ev dto.StockEvent)
	EnqueueLowStockAlert(ctx context.Context, ev dto.StockEvent)
}

// DeductionService is the orchestrator for the three deduction policies. All
// three share one atomic shape: inside a single DB transaction, lock every
// touched item in stable id order, verify every line against the live balance,
// then mutate and append ledger rows. Any failure aborts the whole batch.
type DeductionService interface {
	// CheckAvailability is the advisory pre-flight check. It aggregates
	// duplicate item references and performs no mutation. Deduction entry
	// points never trust it — they re-verify inside their own transaction.
	CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)

	// DeductForOrder runs automatic-recipe deduction at order-creation time.
	DeductForOrder(ctx context.Context, req dto.OrderDeductionRequest, userID *uuid.UUID) (*dto.DeductionResponse, error)

	// DeductManualForBilling settles staff-entered usage when a bill is finalized.
	DeductManualForBilling(ctx context.Context, req dto.ManualDeductionRequest, userID *uuid.UUID) (*dto.DeductionResponse, error)

	// DeductDirectEntries processes reception-entered consumption on a bill,
	// converting each entry's input unit to the item's native unit.
	DeductDirectEntries(ctx context.Context, req dto.DirectDeductionRequest, userID *uuid.UUID) (*dto.DeductionResponse, error)
}

type deductionService struct {
	itemRepo   repository.StockItemRepository
	txRepo     repository.StockTransactionRepository
	recipeRepo repository.RecipeRepository
	notifier   Notifier
	timeout    time.Duration
}

func NewDeductionService(
	itemRepo repository.StockItemRepository,
	txRepo repository.StockTransactionRepository,
	recipeRepo repository.RecipeRepository,
	notifier Notifier,
	timeout time.Duration,
) DeductionService {
	return &deductionService{
		itemRepo:   itemRepo,
		txRepo:     txRepo,
		recipeRepo: recipeRepo,
		notifier:   notifier,
		timeout:    timeout,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Availability ─────────────────────────────────────────────────────────────

func (s *deductionService) CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	// One order can reference the same ingredient from several recipe lines;
	// compare against the aggregated total, not per line.
	required := make(map[uuid.UUID]decimal.Decimal)
	order := make([]uuid.UUID, 0, len(req.Requests))
	for _, line := range req.Requests {
		id, err := uuid.Parse(line.StockItemID)
		if err != nil {
			return nil, fmt.Errorf("invalid stock_item_id %q: %w", line.StockItemID, err)
		}
		if _, seen := required[id]; !seen {
			order = append(order, id)
		}
		required[id] = required[id].Add(line.Quantity)
	}

	resp := &dto.AvailabilityResponse{Available: true}
	for _, id := range order {
		item, err := s.itemRepo.FindByID(ctx, id)
		if err != nil || !item.IsActive() {
			// Missing reference is a data-integrity signal, reported apart
			// from shortfalls.
			resp.Available = false
			resp.Missing = append(resp.Missing, id.String())
			continue
		}
		if item.Quantity.LessThan(required[id]) {
			resp.Available = false
			resp.Shortfalls = append(resp.Shortfalls, dto.Shortfall{
				StockItemID: id.String(),
				Name:        item.Name,
				Required:    required[id],
				Available:   item.Quantity,
			})
		}
	}
	return resp, nil
}

// ── Shared atomic batch engine ───────────────────────────────────────────────

// deductionLine is one resolved consumption: quantity in the item's native unit
// unless inputUnit is set, in which case conversion happens inside the
// transaction against the locked item's unit.
type deductionLine struct {
	stockItemID uuid.UUID
	quantity    decimal.Decimal
	inputUnit   string
	costPerUnit *decimal.Decimal // override; nil = item's current cost
}

type originKey struct {
	id     string
	kind   string
	policy string
}

// deductBatch is the single atomic unit behind all three entry points:
// lock (sorted by id) → verify all → mutate all → log all → commit.
func (s *deductionService) deductBatch(ctx context.Context, lines []deductionLine, origin originKey, userID *uuid.UUID, skipped int) (*dto.DeductionResponse, error) {
	if len(lines) == 0 {
		// Nothing qualified — a valid no-op for automatic/direct policies.
		return &dto.DeductionResponse{Skipped: skipped, TotalCOGS: decimal.Zero}, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp := &dto.DeductionResponse{Skipped: skipped}
	txErr := runTx(ctx, s.itemRepo.DB(), func(tx *gorm.DB) error {
		items, err := s.lockItems(tx, lineItemIDs(lines))
		if err != nil {
			return err
		}

		// Resolve units and aggregate required quantities before touching
		// anything. This is the authoritative check — any advisory
		// CheckAvailability result is ignored here.
		resolved := make([]deductionLine, len(lines))
		required := make(map[uuid.UUID]decimal.Decimal)
		var failures []LineFailure
		for i, line := range lines {
			item, ok := items[line.stockItemID]
			if !ok {
				failures = append(failures, LineFailure{StockItemID: line.stockItemID.String(), Err: ErrStockItemNotFound})
				continue
			}
			if !item.IsActive() {
				failures = append(failures, LineFailure{StockItemID: item.ID.String(), Name: item.Name, Err: ErrStockItemInactive})
				continue
			}
			qty := line.quantity
			if line.inputUnit != "" {
				converted, ok := Convert(qty, line.inputUnit, item.Unit)
				if !ok {
					log.Debug().
						Str("stock_item", item.Name).
						Str("from", line.inputUnit).
						Str("to", item.Unit).
						Msg("no conversion rule, using quantity as entered")
				}
				qty = converted
			}
			resolved[i] = deductionLine{stockItemID: line.stockItemID, quantity: qty, costPerUnit: line.costPerUnit}
			required[line.stockItemID] = required[line.stockItemID].Add(qty)
		}

		for id, req := range required {
			item := items[id]
			if item != nil && item.Quantity.LessThan(req) {
				failures = append(failures, LineFailure{
					StockItemID: id.String(),
					Name:        item.Name,
					Err:         ErrInsufficientStock,
					Required:    req,
					Available:   item.Quantity,
				})
			}
		}
		if len(failures) > 0 {
			sortFailures(failures)
			return &BatchError{Lines: failures}
		}

		// Verified — apply every line, carrying a running balance so each
		// ledger row snapshots the exact post-mutation quantity.
		running := make(map[uuid.UUID]decimal.Decimal, len(items))
		for id, item := range items {
			running[id] = item.Quantity
		}
		now := time.Now()
		for _, line := range resolved {
			item := items[line.stockItemID]
			balance := running[line.stockItemID].Sub(line.quantity)
			running[line.stockItemID] = balance

			cost := item.CostPerUnit
			if line.costPerUnit != nil {
				cost = *line.costPerUnit
			}
			lineCost := line.quantity.Mul(cost)

			originID := origin.id
			posting := &model.StockTransaction{
				StockItemID:     item.ID,
				Type:            model.TxOutflow,
				Quantity:        line.quantity.Neg(),
				Reason:          model.ReasonOrderDeduction,
				CostPerUnit:     cost,
				TotalCost:       lineCost,
				BalanceAfter:    balance,
				UserID:          userID,
				OriginID:        &originID,
				OriginKind:      origin.kind,
				DeductionPolicy: origin.policy,
				Date:            now,
			}
			if err := s.txRepo.CreateTx(tx, posting); err != nil {
				return fmt.Errorf("append ledger row for %s: %w", item.Name, err)
			}

			resp.Deducted = append(resp.Deducted, dto.DeductionLineResult{
				StockItemID:  item.ID.String(),
				Name:         item.Name,
				Quantity:     line.quantity,
				BalanceAfter: balance,
				Cost:         lineCost,
			})
			resp.TotalCOGS = resp.TotalCOGS.Add(lineCost)
		}

		for id, balance := range running {
			item := items[id]
			if err := s.itemRepo.SetQuantityTx(tx, id, balance); err != nil {
				return fmt.Errorf("update stock for %s: %w", item.Name, err)
			}
			before := item.Quantity
			item.Quantity = balance
			resp.Events = append(resp.Events, dto.StockEvent{
				StockItemID: id.String(),
				Name:        item.Name,
				NewQuantity: balance,
				// Signals the downward crossing only; deducting from an
				// already-low item does not re-alert.
				CrossedLowStockThreshold: before.GreaterThan(item.MinThreshold) && balance.LessThanOrEqual(item.MinThreshold),
			})
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publish(ctx, resp.Events)
	return resp, nil
}

// lockItems fetches the touched items under FOR UPDATE, sorted by id.
func (s *deductionService) lockItems(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.StockItem, error) {
	rows, err := s.itemRepo.LockForUpdateTx(tx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock stock items: %w", err)
	}
	items := make(map[uuid.UUID]*model.StockItem, len(rows))
	for i := range rows {
		items[rows[i].ID] = &rows[i]
	}
	return items, nil
}

func (s *deductionService) publish(ctx context.Context, events []dto.StockEvent) {
	if s.notifier == nil {
		return
	}
	for _, ev := range events {
		s.notifier.PublishStockEvent(ctx, ev)
		if ev.CrossedLowStockThreshold {
			s.notifier.EnqueueLowStockAlert(ctx, ev)
		}
	}
}

func lineItemIDs(lines []deductionLine) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if !seen[l.stockItemID] {
			seen[l.stockItemID] = true
			ids = append(ids, l.stockItemID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func sortFailures(failures []LineFailure) {
	sort.Slice(failures, func(i, j int) bool { return failures[i].StockItemID < failures[j].StockItemID })
}

// ── Entry point 1: automatic recipe deduction at order creation ──────────────

func (s *deductionService) DeductForOrder(ctx context.Context, req dto.OrderDeductionRequest, userID *uuid.UUID) (*dto.DeductionResponse, error) {
	menuIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, line := range req.Items {
		id, err := uuid.Parse(line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("invalid menu_item_id %q: %w", line.MenuItemID, err)
		}
		menuIDs = append(menuIDs, id)
	}

	menuItems, err := s.recipeRepo.FindMenuItems(ctx, menuIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve menu items: %w", err)
	}
	byID := make(map[uuid.UUID]*model.MenuItem, len(menuItems))
	for i := range menuItems {
		byID[menuItems[i].ID] = &menuItems[i]
	}

	var lines []deductionLine
	skipped := 0
	for _, orderLine := range req.Items {
		menuID, _ := uuid.Parse(orderLine.MenuItemID)
		menuItem, ok := byID[menuID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMenuItemNotFound, orderLine.MenuItemID)
		}
		// Cancelled lines and untracked menu items consume nothing.
		if orderLine.Cancelled || !menuItem.TrackStock {
			skipped++
			continue
		}
		servings := decimal.NewFromInt(int64(orderLine.Quantity))
		for _, ing := range menuItem.Ingredients {
			// Manual-policy ingredients are settled at billing, not here.
			if ing.StockItem == nil || ing.StockItem.DeductionType != model.DeductionAutomatic {
				skipped++
				continue
			}
			lines = append(lines, deductionLine{
				stockItemID: ing.StockItemID,
				quantity:    ing.Quantity.Mul(servings),
			})
		}
	}

	return s.deductBatch(ctx, lines, originKey{id: req.OrderID, kind: model.OriginOrder, policy: model.PolicyAutomatic}, userID, skipped)
}

// ── Entry point 2: manual recipe deduction at billing ────────────────────────

func (s *deductionService) DeductManualForBilling(ctx context.Context, req dto.ManualDeductionRequest, userID *uuid.UUID) (*dto.DeductionResponse, error) {
	lines := make([]deductionLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		id, err := uuid.Parse(l.StockItemID)
		if err != nil {
			return nil, fmt.Errorf("invalid stock_item_id %q: %w", l.StockItemID, err)
		}
		lines = append(lines, deductionLine{
			stockItemID: id,
			quantity:    l.QuantityUsed,
			costPerUnit: l.CostPerUnit,
		})
	}
	return s.deductBatch(ctx, lines, originKey{id: req.OrderID, kind: model.OriginOrder, policy: model.PolicyManual}, userID, 0)
}

// ── Entry point 3: direct reception entry at billing ─────────────────────────

func (s *deductionService) DeductDirectEntries(ctx context.Context, req dto.DirectDeductionRequest, userID *uuid.UUID) (*dto.DeductionResponse, error) {
	var lines []deductionLine
	skipped := 0
	for _, entry := range req.Entries {
		// Reception forms arrive with blank rows; skip quietly.
		if entry.StockItemID == "" || !entry.Quantity.IsPositive() {
			skipped++
			continue
		}
		id, err := uuid.Parse(entry.StockItemID)
		if err != nil {
			skipped++
			continue
		}
		lines = append(lines, deductionLine{
			stockItemID: id,
			quantity:    entry.Quantity,
			inputUnit:   entry.Unit,
		})
	}
	return s.deductBatch(ctx, lines, originKey{id: req.BillID, kind: model.OriginBill, policy: model.PolicyDirect}, userID, skipped)
}

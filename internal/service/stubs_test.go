package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/model"
	"github.com/janesh-web3/RMS-demo-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory stubs. DB() returns nil so services run their transaction closures
// directly against the stub state, which keeps the verify-then-mutate logic
// observable: a failed batch must leave items and postings untouched.

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Stock items ──────────────────────────────────────────────────────────────

type stubItemRepo struct {
	items map[uuid.UUID]*model.StockItem
	order []uuid.UUID
}

var _ repository.StockItemRepository = (*stubItemRepo)(nil)

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[uuid.UUID]*model.StockItem)}
}

func (r *stubItemRepo) add(item *model.StockItem) *model.StockItem {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = model.StatusActive
	}
	r.items[item.ID] = item
	r.order = append(r.order, item.ID)
	return item
}

func (r *stubItemRepo) Create(_ context.Context, item *model.StockItem) error {
	r.add(item)
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *stubItemRepo) FindByName(_ context.Context, name string) (*model.StockItem, error) {
	for _, id := range r.order {
		item := r.items[id]
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(name)) {
			clone := *item
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubItemRepo) List(_ context.Context, filter dto.StockItemFilter) ([]model.StockItem, int64, error) {
	out := make([]model.StockItem, 0)
	for _, id := range r.order {
		item := r.items[id]
		switch filter.Status {
		case "all":
		case model.StatusInactive:
			if item.Status != model.StatusInactive {
				continue
			}
		default:
			if item.Status != model.StatusActive {
				continue
			}
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (r *stubItemRepo) ListActive(_ context.Context) ([]model.StockItem, error) {
	out := make([]model.StockItem, 0)
	for _, id := range r.order {
		if r.items[id].Status == model.StatusActive {
			out = append(out, *r.items[id])
		}
	}
	return out, nil
}

func (r *stubItemRepo) Update(_ context.Context, item *model.StockItem) error {
	clone := *item
	r.items[item.ID] = &clone
	return nil
}

func (r *stubItemRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.items[id].Status = model.StatusInactive
	return nil
}

func (r *stubItemRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	r.items[id].Status = model.StatusActive
	return nil
}

func (r *stubItemRepo) LockForUpdateTx(_ *gorm.DB, ids []uuid.UUID) ([]model.StockItem, error) {
	rows := make([]model.StockItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			rows = append(rows, *item)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID.String() < rows[j].ID.String() })
	return rows, nil
}

func (r *stubItemRepo) SetQuantityTx(_ *gorm.DB, id uuid.UUID, quantity decimal.Decimal) error {
	r.items[id].Quantity = quantity
	return nil
}

func (r *stubItemRepo) DB() *gorm.DB { return nil }

// quantity reads the live stored balance, bypassing any copies handed out.
func (r *stubItemRepo) quantity(id uuid.UUID) decimal.Decimal { return r.items[id].Quantity }

// ── Ledger ───────────────────────────────────────────────────────────────────

type stubTxRepo struct {
	mu        sync.Mutex
	postings  []model.StockTransaction
	createErr error // injected failure for the next CreateTx
}

var _ repository.StockTransactionRepository = (*stubTxRepo)(nil)

func newStubTxRepo() *stubTxRepo { return &stubTxRepo{} }

func (r *stubTxRepo) Create(_ context.Context, t *model.StockTransaction) error {
	return r.append(t)
}

func (r *stubTxRepo) CreateTx(_ *gorm.DB, t *model.StockTransaction) error {
	return r.append(t)
}

func (r *stubTxRepo) append(t *model.StockTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.postings = append(r.postings, *t)
	return nil
}

func (r *stubTxRepo) List(_ context.Context, filter repository.StockTransactionFilter) ([]model.StockTransaction, int64, error) {
	out := make([]model.StockTransaction, 0)
	for _, p := range r.postings {
		if filter.StockItemID != nil && p.StockItemID != *filter.StockItemID {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Reason != "" && p.Reason != filter.Reason {
			continue
		}
		if filter.From != nil && p.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && p.Date.After(*filter.To) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *stubTxRepo) FindDeductionsByOriginTx(_ *gorm.DB, originID, originKind, policy string) ([]model.StockTransaction, error) {
	out := make([]model.StockTransaction, 0)
	for _, p := range r.postings {
		if p.Type == model.TxOutflow && p.Reason == model.ReasonOrderDeduction &&
			p.OriginID != nil && *p.OriginID == originID &&
			p.OriginKind == originKind && p.DeductionPolicy == policy {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubTxRepo) CountReversalsByOriginTx(_ *gorm.DB, originID, originKind, policy string) (int64, error) {
	var n int64
	for _, p := range r.postings {
		if p.Type == model.TxInflow && p.Reason == model.ReasonReturn &&
			p.OriginID != nil && *p.OriginID == originID &&
			p.OriginKind == originKind && p.DeductionPolicy == policy {
			n++
		}
	}
	return n, nil
}

func (r *stubTxRepo) SumOutflows(_ context.Context, from, to time.Time) ([]repository.UsageRow, error) {
	totals := make(map[uuid.UUID]*repository.UsageRow)
	order := make([]uuid.UUID, 0)
	for _, p := range r.postings {
		if p.Type != model.TxOutflow || p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		row, ok := totals[p.StockItemID]
		if !ok {
			row = &repository.UsageRow{StockItemID: p.StockItemID}
			totals[p.StockItemID] = row
			order = append(order, p.StockItemID)
		}
		row.TotalQty = row.TotalQty.Sub(p.Quantity) // outflow quantity is negative
		row.TotalCost = row.TotalCost.Add(p.TotalCost)
	}
	rows := make([]repository.UsageRow, 0, len(order))
	for _, id := range order {
		rows = append(rows, *totals[id])
	}
	return rows, nil
}

func (r *stubTxRepo) ReplayBalance(_ context.Context, stockItemID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.postings {
		if p.StockItemID == stockItemID {
			total = total.Add(p.Quantity)
		}
	}
	return total, nil
}

// seedOpeningPosting writes the ledger row production CreateItem would have
// posted for the seeded quantity, so replay-based assertions line up.
func seedOpeningPosting(txs *stubTxRepo, item *model.StockItem) {
	txs.postings = append(txs.postings, model.StockTransaction{
		ID:           uuid.New(),
		StockItemID:  item.ID,
		Type:         model.TxInflow,
		Quantity:     item.Quantity,
		Reason:       model.ReasonInitialStock,
		BalanceAfter: item.Quantity,
		Date:         time.Now(),
	})
}

func (r *stubTxRepo) forItem(id uuid.UUID) []model.StockTransaction {
	out := make([]model.StockTransaction, 0)
	for _, p := range r.postings {
		if p.StockItemID == id {
			out = append(out, p)
		}
	}
	return out
}

// ── Cost history ─────────────────────────────────────────────────────────────

type stubCostRepo struct {
	entries []model.CostHistory
}

var _ repository.CostHistoryRepository = (*stubCostRepo)(nil)

func (r *stubCostRepo) Create(_ context.Context, h *model.CostHistory) error {
	r.entries = append(r.entries, *h)
	return nil
}

func (r *stubCostRepo) CreateTx(_ *gorm.DB, h *model.CostHistory) error {
	r.entries = append(r.entries, *h)
	return nil
}

func (r *stubCostRepo) ListByItem(_ context.Context, stockItemID uuid.UUID, _ int) ([]model.CostHistory, error) {
	out := make([]model.CostHistory, 0)
	for _, h := range r.entries {
		if h.StockItemID == stockItemID {
			out = append(out, h)
		}
	}
	return out, nil
}

// ── Recipes ──────────────────────────────────────────────────────────────────

type stubRecipeRepo struct {
	menuItems map[uuid.UUID]*model.MenuItem
}

var _ repository.RecipeRepository = (*stubRecipeRepo)(nil)

func newStubRecipeRepo() *stubRecipeRepo {
	return &stubRecipeRepo{menuItems: make(map[uuid.UUID]*model.MenuItem)}
}

func (r *stubRecipeRepo) add(m *model.MenuItem) *model.MenuItem {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.menuItems[m.ID] = m
	return m
}

func (r *stubRecipeRepo) CreateMenuItem(_ context.Context, m *model.MenuItem) error {
	r.add(m)
	return nil
}

func (r *stubRecipeRepo) FindMenuItem(_ context.Context, id uuid.UUID) (*model.MenuItem, error) {
	m, ok := r.menuItems[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *stubRecipeRepo) FindMenuItems(_ context.Context, ids []uuid.UUID) ([]model.MenuItem, error) {
	out := make([]model.MenuItem, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.menuItems[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubRecipeRepo) ListMenuItems(_ context.Context) ([]model.MenuItem, error) {
	out := make([]model.MenuItem, 0, len(r.menuItems))
	for _, m := range r.menuItems {
		out = append(out, *m)
	}
	return out, nil
}

func (r *stubRecipeRepo) SetIngredients(_ context.Context, menuItemID uuid.UUID, ingredients []model.RecipeIngredient) error {
	m, ok := r.menuItems[menuItemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Ingredients = ingredients
	return nil
}

func (r *stubRecipeRepo) IngredientsForMenuItem(_ context.Context, menuItemID uuid.UUID) ([]model.RecipeIngredient, error) {
	m, ok := r.menuItems[menuItemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.Ingredients, nil
}

// ── Suppliers ────────────────────────────────────────────────────────────────

type stubSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (r *stubSupplierRepo) add(s *model.Supplier) *model.Supplier {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.suppliers[s.ID] = s
	return s
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	r.add(s)
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSupplierRepo) List(_ context.Context, includeInactive bool) ([]model.Supplier, error) {
	out := make([]model.Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		if !includeInactive && !s.Active {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSupplierRepo) Update(_ context.Context, s *model.Supplier) error {
	r.suppliers[s.ID] = s
	return nil
}

func (r *stubSupplierRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.suppliers[id].Active = false
	return nil
}

func (r *stubSupplierRepo) AddContact(_ context.Context, c *model.SupplierContact) error {
	s, ok := r.suppliers[c.SupplierID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Contacts = append(s.Contacts, *c)
	return nil
}

// ── Notifier ─────────────────────────────────────────────────────────────────

type stubNotifier struct {
	events []dto.StockEvent
	alerts []dto.StockEvent
}

var _ Notifier = (*stubNotifier)(nil)

func (n *stubNotifier) PublishStockEvent(_ context.Context, ev dto.StockEvent) {
	n.events = append(n.events, ev)
}

func (n *stubNotifier) EnqueueLowStockAlert(_ context.Context, ev dto.StockEvent) {
	n.alerts = append(n.alerts, ev)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deductionFixture struct {
	items    *stubItemRepo
	txs      *stubTxRepo
	recipes  *stubRecipeRepo
	notifier *stubNotifier
	svc      DeductionService
}

func newDeductionFixture() *deductionFixture {
	f := &deductionFixture{
		items:    newStubItemRepo(),
		txs:      newStubTxRepo(),
		recipes:  newStubRecipeRepo(),
		notifier: &stubNotifier{},
	}
	f.svc = NewDeductionService(f.items, f.txs, f.recipes, f.notifier, 5*time.Second)
	return f
}

func seedItem(repo *stubItemRepo, name, unit, qty, cost, threshold string) *model.StockItem {
	return repo.add(&model.StockItem{
		Name:          name,
		Category:      model.CategoryOther,
		Unit:          unit,
		Quantity:      d(qty),
		CostPerUnit:   d(cost),
		MinThreshold:  d(threshold),
		DeductionType: model.DeductionAutomatic,
	})
}

func seedMenuItem(repo *stubRecipeRepo, name string, ingredients ...model.RecipeIngredient) *model.MenuItem {
	m := repo.add(&model.MenuItem{Name: name, TrackStock: true, Active: true})
	for i := range ingredients {
		ingredients[i].MenuItemID = m.ID
	}
	m.Ingredients = ingredients
	return m
}

func ingredient(item *model.StockItem, qty string) model.RecipeIngredient {
	return model.RecipeIngredient{StockItemID: item.ID, Quantity: d(qty), StockItem: item}
}

func eventFor(events []dto.StockEvent, id uuid.UUID) *dto.StockEvent {
	for i := range events {
		if events[i].StockItemID == id.String() {
			return &events[i]
		}
	}
	return nil
}

// ── Availability ─────────────────────────────────────────────────────────────

func TestCheckAvailabilityAggregatesDuplicateLines(t *testing.T) {
	f := newDeductionFixture()
	rice := seedItem(f.items, "Rice", model.UnitKg, "5", "2", "1")

	// Two recipe lines pull the same ingredient; each fits alone, the sum does not.
	resp, err := f.svc.CheckAvailability(context.Background(), dto.AvailabilityRequest{
		Requests: []dto.AvailabilityLine{
			{StockItemID: rice.ID.String(), Quantity: d("3")},
			{StockItemID: rice.ID.String(), Quantity: d("3")},
		},
	})
	require.NoError(t, err)

	assert.False(t, resp.Available)
	require.Len(t, resp.Shortfalls, 1)
	assert.Equal(t, "Rice", resp.Shortfalls[0].Name)
	assert.True(t, resp.Shortfalls[0].Required.Equal(d("6")))
	assert.True(t, resp.Shortfalls[0].Available.Equal(d("5")))
	assert.Empty(t, resp.Missing)
}

func TestCheckAvailabilitySeparatesMissingFromShort(t *testing.T) {
	f := newDeductionFixture()
	oil := seedItem(f.items, "Olive Oil", model.UnitLiter, "1", "12", "0.5")
	retired := seedItem(f.items, "Old Spice Mix", model.UnitG, "500", "1", "0")
	retired.Status = model.StatusInactive
	ghost := uuid.New()

	resp, err := f.svc.CheckAvailability(context.Background(), dto.AvailabilityRequest{
		Requests: []dto.AvailabilityLine{
			{StockItemID: oil.ID.String(), Quantity: d("2")},
			{StockItemID: retired.ID.String(), Quantity: d("10")},
			{StockItemID: ghost.String(), Quantity: d("1")},
		},
	})
	require.NoError(t, err)

	assert.False(t, resp.Available)
	require.Len(t, resp.Shortfalls, 1)
	assert.Equal(t, oil.ID.String(), resp.Shortfalls[0].StockItemID)
	assert.ElementsMatch(t, []string{retired.ID.String(), ghost.String()}, resp.Missing)
}

func TestCheckAvailabilityDoesNotMutate(t *testing.T) {
	f := newDeductionFixture()
	flour := seedItem(f.items, "Flour", model.UnitKg, "10", "1.5", "2")

	resp, err := f.svc.CheckAvailability(context.Background(), dto.AvailabilityRequest{
		Requests: []dto.AvailabilityLine{{StockItemID: flour.ID.String(), Quantity: d("4")}},
	})
	require.NoError(t, err)

	assert.True(t, resp.Available)
	assert.True(t, f.items.quantity(flour.ID).Equal(d("10")))
	assert.Empty(t, f.txs.postings)
}

// ── Automatic recipe deduction ───────────────────────────────────────────────

func TestDeductForOrderAppliesRecipeRatios(t *testing.T) {
	f := newDeductionFixture()
	chicken := seedItem(f.items, "Chicken Breast", model.UnitKg, "10", "8", "2")
	dish := seedMenuItem(f.recipes, "Grilled Chicken", ingredient(chicken, "1"))

	resp, err := f.svc.DeductForOrder(context.Background(), dto.OrderDeductionRequest{
		OrderID: "O1",
		Items:   []dto.OrderLine{{MenuItemID: dish.ID.String(), Quantity: 3}},
	}, nil)
	require.NoError(t, err)

	require.Len(t, resp.Deducted, 1)
	assert.True(t, resp.Deducted[0].Quantity.Equal(d("3")))
	assert.True(t, resp.Deducted[0].BalanceAfter.Equal(d("7")))
	assert.True(t, resp.TotalCOGS.Equal(d("24")))
	assert.True(t, f.items.quantity(chicken.ID).Equal(d("7")))

	postings := f.txs.forItem(chicken.ID)
	require.Len(t, postings, 1)
	assert.Equal(t, model.TxOutflow, postings[0].Type)
	assert.Equal(t, model.ReasonOrderDeduction, postings[0].Reason)
	assert.True(t, postings[0].Quantity.Equal(d("-3")))
	assert.True(t, postings[0].BalanceAfter.Equal(d("7")))
	require.NotNil(t, postings[0].OriginID)
	assert.Equal(t, "O1", *postings[0].OriginID)
	assert.Equal(t, model.OriginOrder, postings[0].OriginKind)
	assert.Equal(t, model.PolicyAutomatic, postings[0].DeductionPolicy)

	ev := eventFor(resp.Events, chicken.ID)
	require.NotNil(t, ev)
	assert.False(t, ev.CrossedLowStockThreshold)
	assert.Empty(t, f.notifier.alerts)
}

func TestDeductForOrderFiresLowStockOnThresholdCross(t *testing.T) {
	f := newDeductionFixture()
	chicken := seedItem(f.items, "Chicken Breast", model.UnitKg, "7", "8", "2")
	dish := seedMenuItem(f.recipes, "Grilled Chicken", ingredient(chicken, "1"))

	resp, err := f.svc.DeductForOrder(context.Background(), dto.OrderDeductionRequest{
		OrderID: "O2",
		Items:   []dto.OrderLine{{MenuItemID: dish.ID.String(), Quantity: 5}},
	}, nil)
	require.NoError(t, err)

	ev := eventFor(resp.Events, chicken.ID)
	require.NotNil(t, ev)
	assert.True(t, ev.NewQuantity.Equal(d("2")))
	assert.True(t, ev.CrossedLowStockThreshold)
	require.Len(t, f.notifier.alerts, 1)
	assert.Equal(t, "Chicken Breast", f.notifier.alerts[0].Name)
}

func TestDeductFromAlreadyLowItemDoesNotReAlert(t *testing.T) {
	f := newDeductionFixture()
	// Already below threshold: the crossing fired on an earlier deduction.
	butter := seedItem(f.items, "Butter", model.UnitKg, "1", "9", "2")

	resp, err := f.svc.DeductManualForBilling(context.Background(), dto.ManualDeductionRequest{
		OrderID: "O20",
		Lines:   []dto.ManualUsageLine{{StockItemID: butter.ID.String(), QuantityUsed: d("0.2")}},
	}, nil)
	require.NoError(t, err)

	ev := eventFor(resp.Events, butter.ID)
	require.NotNil(t, ev)
	assert.True(t, ev.NewQuantity.Equal(d("0.8")))
	assert.False(t, ev.CrossedLowStockThreshold)
	assert.Empty(t, f.notifier.alerts)
}

func TestDeductForOrderRejectsInsufficientStock(t *testing.T) {
	f := newDeductionFixture()
	chicken := seedItem(f.items, "Chicken Breast", model.UnitKg, "2", "8", "2")
	dish := seedMenuItem(f.recipes, "Grilled Chicken", ingredient(chicken, "1"))

	_, err := f.svc.DeductForOrder(context.Background(), dto.OrderDeductionRequest{
		OrderID: "O3",
		Items:   []dto.OrderLine{{MenuItemID: dish.ID.String(), Quantity: 3}},
	}, nil)

	var batch *BatchError
	require.ErrorAs(t, err, &batch)
	require.Len(t, batch.Lines, 1)
	assert.ErrorIs(t, batch.Lines[0].Err, ErrInsufficientStock)
	assert.True(t, batch.Lines[0].Required.Equal(d("3")))
	assert.True(t, batch.Lines[0].Available.Equal(d("2")))

	// Nothing moved, nothing logged, nothing published.
	assert.True(t, f.items.quantity(chicken.ID).Equal(d("2")))
	assert.Empty(t, f.txs.postings)
	assert.Empty(t, f.notifier.events)
}

func TestDeductForOrderSkipRules(t *testing.T) {
	f := newDeductionFixture()
	beef := seedItem(f.items, "Beef", model.UnitKg, "10", "15", "1")
	truffle := seedItem(f.items, "Truffle Oil", model.UnitMl, "200", "0.5", "20")
	truffle.DeductionType = model.DeductionManual

	steak := seedMenuItem(f.recipes, "Steak", ingredient(beef, "0.3"), ingredient(truffle, "5"))
	coffee := seedMenuItem(f.recipes, "Coffee", ingredient(beef, "99"))
	coffee.TrackStock = false

	resp, err := f.svc.DeductForOrder(context.Background(), dto.OrderDeductionRequest{
		OrderID: "O4",
		Items: []dto.OrderLine{
			{MenuItemID: steak.ID.String(), Quantity: 2},
			{MenuItemID: coffee.ID.String(), Quantity: 1},
			{MenuItemID: steak.ID.String(), Quantity: 1, Cancelled: true},
		},
	}, nil)
	require.NoError(t, err)

	// Beef deducted twice the recipe ratio; the manual ingredient, the untracked
	// menu item and the cancelled line all counted as skipped.
	require.Len(t, resp.Deducted, 1)
	assert.Equal(t, beef.ID.String(), resp.Deducted[0].StockItemID)
	assert.True(t, resp.Deducted[0].Quantity.Equal(d("0.6")))
	assert.Equal(t, 3, resp.Skipped)
	assert.True(t, f.items.quantity(truffle.ID).Equal(d("200")))
}

func TestDeductForOrderAllLinesSkippedIsANoOp(t *testing.T) {
	f := newDeductionFixture()
	soda := seedMenuItem(f.recipes, "Soda")
	soda.TrackStock = false

	resp, err := f.svc.DeductForOrder(context.Background(), dto.OrderDeductionRequest{
		OrderID: "O5",
		Items:   []dto.OrderLine{{MenuItemID: soda.ID.String(), Quantity: 2}},
	}, nil)
	require.NoError(t, err)

	assert.Empty(t, resp.Deducted)
	assert.Equal(t, 1, resp.Skipped)
	assert.True(t, resp.TotalCOGS.Equal(decimal.Zero))
	assert.Empty(t, f.txs.postings)
}

func TestDeductForOrderUnknownMenuItem(t *testing.T) {
	f := newDeductionFixture()

	_, err := f.svc.DeductForOrder(context.Background(), dto.OrderDeductionRequest{
		OrderID: "O6",
		Items:   []dto.OrderLine{{MenuItemID: uuid.NewString(), Quantity: 1}},
	}, nil)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}

// ── Manual recipe deduction at billing ───────────────────────────────────────

func TestDeductManualForBillingStampsManualPolicy(t *testing.T) {
	f := newDeductionFixture()
	truffle := seedItem(f.items, "Truffle Oil", model.UnitMl, "200", "0.5", "20")
	truffle.DeductionType = model.DeductionManual

	resp, err := f.svc.DeductManualForBilling(context.Background(), dto.ManualDeductionRequest{
		OrderID: "O7",
		Lines:   []dto.ManualUsageLine{{StockItemID: truffle.ID.String(), QuantityUsed: d("15")}},
	}, nil)
	require.NoError(t, err)

	require.Len(t, resp.Deducted, 1)
	assert.True(t, resp.Deducted[0].BalanceAfter.Equal(d("185")))

	postings := f.txs.forItem(truffle.ID)
	require.Len(t, postings, 1)
	assert.Equal(t, model.OriginOrder, postings[0].OriginKind)
	assert.Equal(t, model.PolicyManual, postings[0].DeductionPolicy)
}

func TestDeductManualForBillingCostOverride(t *testing.T) {
	f := newDeductionFixture()
	wine := seedItem(f.items, "House Wine", model.UnitMl, "3000", "0.02", "500")
	override := d("0.05")

	resp, err := f.svc.DeductManualForBilling(context.Background(), dto.ManualDeductionRequest{
		OrderID: "O8",
		Lines: []dto.ManualUsageLine{
			{StockItemID: wine.ID.String(), QuantityUsed: d("200"), CostPerUnit: &override},
		},
	}, nil)
	require.NoError(t, err)

	assert.True(t, resp.TotalCOGS.Equal(d("10")), "got %s", resp.TotalCOGS)
	postings := f.txs.forItem(wine.ID)
	require.Len(t, postings, 1)
	assert.True(t, postings[0].CostPerUnit.Equal(override))
}

func TestDeductManualForBillingBatchIsAtomic(t *testing.T) {
	f := newDeductionFixture()
	rice := seedItem(f.items, "Rice", model.UnitKg, "20", "2", "5")
	oil := seedItem(f.items, "Oil", model.UnitLiter, "5", "10", "1")
	salt := seedItem(f.items, "Salt", model.UnitG, "100", "0.01", "50")

	_, err := f.svc.DeductManualForBilling(context.Background(), dto.ManualDeductionRequest{
		OrderID: "O9",
		Lines: []dto.ManualUsageLine{
			{StockItemID: rice.ID.String(), QuantityUsed: d("2")},
			{StockItemID: oil.ID.String(), QuantityUsed: d("8")}, // only 5 on hand
			{StockItemID: salt.ID.String(), QuantityUsed: d("10")},
		},
	}, nil)

	var batch *BatchError
	require.ErrorAs(t, err, &batch)

	// One bad line aborts the lot: the two satisfiable lines must not apply.
	assert.True(t, f.items.quantity(rice.ID).Equal(d("20")))
	assert.True(t, f.items.quantity(oil.ID).Equal(d("5")))
	assert.True(t, f.items.quantity(salt.ID).Equal(d("100")))
	assert.Empty(t, f.txs.postings)
}

func TestDeductManualForBillingAggregatesDuplicateLines(t *testing.T) {
	f := newDeductionFixture()
	rice := seedItem(f.items, "Rice", model.UnitKg, "5", "2", "1")

	_, err := f.svc.DeductManualForBilling(context.Background(), dto.ManualDeductionRequest{
		OrderID: "O10",
		Lines: []dto.ManualUsageLine{
			{StockItemID: rice.ID.String(), QuantityUsed: d("3")},
			{StockItemID: rice.ID.String(), QuantityUsed: d("3")},
		},
	}, nil)

	var batch *BatchError
	require.ErrorAs(t, err, &batch)
	require.Len(t, batch.Lines, 1)
	assert.True(t, batch.Lines[0].Required.Equal(d("6")))
	assert.True(t, f.items.quantity(rice.ID).Equal(d("5")))
}

func TestDeductManualForBillingInactiveItemFailsBatch(t *testing.T) {
	f := newDeductionFixture()
	retired := seedItem(f.items, "Retired Sauce", model.UnitLiter, "4", "3", "1")
	retired.Status = model.StatusInactive

	_, err := f.svc.DeductManualForBilling(context.Background(), dto.ManualDeductionRequest{
		OrderID: "O11",
		Lines:   []dto.ManualUsageLine{{StockItemID: retired.ID.String(), QuantityUsed: d("1")}},
	}, nil)

	var batch *BatchError
	require.ErrorAs(t, err, &batch)
	require.Len(t, batch.Lines, 1)
	assert.ErrorIs(t, batch.Lines[0].Err, ErrStockItemInactive)
}

// ── Direct reception entries ─────────────────────────────────────────────────

func TestDeductDirectEntriesConvertsUnits(t *testing.T) {
	f := newDeductionFixture()
	flour := seedItem(f.items, "Flour", model.UnitKg, "10", "1.5", "2")

	resp, err := f.svc.DeductDirectEntries(context.Background(), dto.DirectDeductionRequest{
		BillID: "B1",
		Entries: []dto.DirectEntryLine{
			{StockItemID: flour.ID.String(), Quantity: d("500"), Unit: model.UnitG},
		},
	}, nil)
	require.NoError(t, err)

	require.Len(t, resp.Deducted, 1)
	assert.True(t, resp.Deducted[0].Quantity.Equal(d("0.5")))
	assert.True(t, f.items.quantity(flour.ID).Equal(d("9.5")))

	postings := f.txs.forItem(flour.ID)
	require.Len(t, postings, 1)
	require.NotNil(t, postings[0].OriginID)
	assert.Equal(t, "B1", *postings[0].OriginID)
	assert.Equal(t, model.OriginBill, postings[0].OriginKind)
	assert.Equal(t, model.PolicyDirect, postings[0].DeductionPolicy)
}

func TestDeductDirectEntriesSkipsBlankRows(t *testing.T) {
	f := newDeductionFixture()
	flour := seedItem(f.items, "Flour", model.UnitKg, "10", "1.5", "2")

	resp, err := f.svc.DeductDirectEntries(context.Background(), dto.DirectDeductionRequest{
		BillID: "B2",
		Entries: []dto.DirectEntryLine{
			{StockItemID: "", Quantity: d("1")},
			{StockItemID: flour.ID.String(), Quantity: d("0")},
			{StockItemID: "not-a-uuid", Quantity: d("1")},
			{StockItemID: flour.ID.String(), Quantity: d("2"), Unit: model.UnitKg},
		},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Skipped)
	require.Len(t, resp.Deducted, 1)
	assert.True(t, f.items.quantity(flour.ID).Equal(d("8")))
}

func TestDeductDirectEntriesAllRowsBlank(t *testing.T) {
	f := newDeductionFixture()

	resp, err := f.svc.DeductDirectEntries(context.Background(), dto.DirectDeductionRequest{
		BillID:  "B3",
		Entries: []dto.DirectEntryLine{{StockItemID: "", Quantity: d("0")}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Skipped)
	assert.Empty(t, resp.Deducted)
	assert.True(t, resp.TotalCOGS.Equal(decimal.Zero))
}

func TestDeductDirectEntriesIncompatibleUnitPassesThrough(t *testing.T) {
	f := newDeductionFixture()
	// No conversion rule between pieces and kg: the entered quantity is used
	// as-is against the item's native unit.
	eggs := seedItem(f.items, "Eggs", model.UnitPieces, "30", "0.2", "6")

	resp, err := f.svc.DeductDirectEntries(context.Background(), dto.DirectDeductionRequest{
		BillID: "B4",
		Entries: []dto.DirectEntryLine{
			{StockItemID: eggs.ID.String(), Quantity: d("4"), Unit: model.UnitKg},
		},
	}, nil)
	require.NoError(t, err)

	require.Len(t, resp.Deducted, 1)
	assert.True(t, resp.Deducted[0].Quantity.Equal(d("4")))
	assert.True(t, f.items.quantity(eggs.ID).Equal(d("26")))
}

// ── Ledger failure propagation ───────────────────────────────────────────────

func TestDeductBatchPropagatesLedgerWriteFailure(t *testing.T) {
	f := newDeductionFixture()
	rice := seedItem(f.items, "Rice", model.UnitKg, "20", "2", "5")
	f.txs.createErr = errors.New("connection reset")

	_, err := f.svc.DeductManualForBilling(context.Background(), dto.ManualDeductionRequest{
		OrderID: "O12",
		Lines:   []dto.ManualUsageLine{{StockItemID: rice.ID.String(), QuantityUsed: d("1")}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, f.notifier.events)
}

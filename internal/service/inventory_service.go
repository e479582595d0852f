package service

import (
	"context"
	"fmt"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/model"
	"github.com/janesh-web3/RMS-demo-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryService owns stock item lifecycle and the plain inflow/adjustment
// postings used by the management UI. Every quantity change goes through the
// same atomic mutate+log unit as the deduction orchestrator — there is no code
// path that touches StockItem.Quantity without appending a ledger row.
type InventoryService interface {
	CreateItem(ctx context.Context, req dto.CreateStockItemRequest, userID *uuid.UUID) (*dto.StockItemResponse, error)
	GetItem(ctx context.Context, id uuid.UUID) (*dto.StockItemResponse, error)
	ListItems(ctx context.Context, filter dto.StockItemFilter) (*dto.StockItemListResponse, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateStockItemRequest, userID *uuid.UUID) (*dto.StockItemResponse, error)
	DeactivateItem(ctx context.Context, id uuid.UUID) error
	ReactivateItem(ctx context.Context, id uuid.UUID) error

	// AddStock posts an inflow (purchase, opening stock, supplier return).
	AddStock(ctx context.Context, id uuid.UUID, req dto.AddStockRequest, userID *uuid.UUID) (*dto.MutationResponse, error)

	// AdjustStock posts a signed correction. Downward adjustments that would
	// cross zero are rejected before any mutation.
	AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest, userID *uuid.UUID) (*dto.MutationResponse, error)

	ListTransactions(ctx context.Context, filter repository.StockTransactionFilter) (*dto.TransactionListResponse, error)

	// Reconcile replays the ledger for one item and reports whether the sum of
	// signed postings matches the live quantity.
	Reconcile(ctx context.Context, id uuid.UUID) (bool, decimal.Decimal, decimal.Decimal, error)
}

type inventoryService struct {
	itemRepo repository.StockItemRepository
	txRepo   repository.StockTransactionRepository
	costRepo repository.CostHistoryRepository
	notifier Notifier
}

func NewInventoryService(
	itemRepo repository.StockItemRepository,
	txRepo repository.StockTransactionRepository,
	costRepo repository.CostHistoryRepository,
	notifier Notifier,
) InventoryService {
	return &inventoryService{itemRepo: itemRepo, txRepo: txRepo, costRepo: costRepo, notifier: notifier}
}

func (s *inventoryService) CreateItem(ctx context.Context, req dto.CreateStockItemRequest, userID *uuid.UUID) (*dto.StockItemResponse, error) {
	if !model.ValidUnits[req.Unit] {
		return nil, fmt.Errorf("unknown unit %q", req.Unit)
	}
	if !model.ValidCategories[req.Category] {
		return nil, fmt.Errorf("unknown category %q", req.Category)
	}
	if req.Quantity.IsNegative() || req.CostPerUnit.IsNegative() || req.MinThreshold.IsNegative() {
		return nil, fmt.Errorf("quantity, cost and threshold must be non-negative")
	}

	item := &model.StockItem{
		Name:           req.Name,
		Category:       req.Category,
		Unit:           req.Unit,
		Quantity:       req.Quantity,
		CostPerUnit:    req.CostPerUnit,
		MinThreshold:   req.MinThreshold,
		ExpirationDate: req.ExpirationDate,
		DeductionType:  req.DeductionType,
		Status:         model.StatusActive,
	}
	if req.SupplierID != nil {
		sid, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return nil, fmt.Errorf("invalid supplier_id: %w", err)
		}
		item.SupplierID = &sid
	}

	// Creation with opening stock posts the initial_stock row in the same
	// transaction — the quantity never exists without a ledger trail.
	txErr := runTx(ctx, s.itemRepo.DB(), func(tx *gorm.DB) error {
		if err := createInTx(ctx, tx, s.itemRepo, item); err != nil {
			return err
		}
		if item.Quantity.IsPositive() {
			posting := &model.StockTransaction{
				StockItemID:  item.ID,
				Type:         model.TxInflow,
				Quantity:     item.Quantity,
				Reason:       model.ReasonInitialStock,
				CostPerUnit:  item.CostPerUnit,
				TotalCost:    item.Quantity.Mul(item.CostPerUnit),
				BalanceAfter: item.Quantity,
				UserID:       userID,
				Date:         time.Now(),
			}
			return s.txRepo.CreateTx(tx, posting)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	resp := itemToResponse(item)
	return &resp, nil
}

// createInTx inserts through the tx when available, falling back to the plain
// repo method in unit test mode.
func createInTx(ctx context.Context, tx *gorm.DB, repo repository.StockItemRepository, item *model.StockItem) error {
	if tx == nil {
		return repo.Create(ctx, item)
	}
	return tx.Create(item).Error
}

func (s *inventoryService) GetItem(ctx context.Context, id uuid.UUID) (*dto.StockItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrStockItemNotFound
	}
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *inventoryService) ListItems(ctx context.Context, filter dto.StockItemFilter) (*dto.StockItemListResponse, error) {
	items, total, err := s.itemRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.StockItemResponse, len(items))
	for i := range items {
		data[i] = itemToResponse(&items[i])
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return &dto.StockItemListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateStockItemRequest, userID *uuid.UUID) (*dto.StockItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrStockItemNotFound
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		if !model.ValidCategories[*req.Category] {
			return nil, fmt.Errorf("unknown category %q", *req.Category)
		}
		item.Category = *req.Category
	}
	if req.MinThreshold != nil {
		if req.MinThreshold.IsNegative() {
			return nil, fmt.Errorf("min_threshold must be non-negative")
		}
		item.MinThreshold = *req.MinThreshold
	}
	if req.ExpirationDate != nil {
		item.ExpirationDate = req.ExpirationDate
	}
	if req.DeductionType != nil {
		if *req.DeductionType != model.DeductionAutomatic && *req.DeductionType != model.DeductionManual {
			return nil, fmt.Errorf("unknown deduction_type %q", *req.DeductionType)
		}
		item.DeductionType = *req.DeductionType
	}
	if req.SupplierID != nil {
		sid, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return nil, fmt.Errorf("invalid supplier_id: %w", err)
		}
		item.SupplierID = &sid
	}

	var costChange *model.CostHistory
	if req.CostPerUnit != nil && !req.CostPerUnit.Equal(item.CostPerUnit) {
		if req.CostPerUnit.IsNegative() {
			return nil, fmt.Errorf("cost_per_unit must be non-negative")
		}
		costChange = &model.CostHistory{
			StockItemID: item.ID,
			OldCost:     item.CostPerUnit,
			NewCost:     *req.CostPerUnit,
			Source:      "manual_update",
			UserID:      userID,
		}
		item.CostPerUnit = *req.CostPerUnit
	}

	txErr := runTx(ctx, s.itemRepo.DB(), func(tx *gorm.DB) error {
		if tx == nil {
			if err := s.itemRepo.Update(ctx, item); err != nil {
				return err
			}
			if costChange != nil {
				return s.costRepo.Create(ctx, costChange)
			}
			return nil
		}
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		if costChange != nil {
			return s.costRepo.CreateTx(tx, costChange)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *inventoryService) DeactivateItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.itemRepo.FindByID(ctx, id); err != nil {
		return ErrStockItemNotFound
	}
	return s.itemRepo.Deactivate(ctx, id)
}

func (s *inventoryService) ReactivateItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.itemRepo.FindByID(ctx, id); err != nil {
		return ErrStockItemNotFound
	}
	return s.itemRepo.Reactivate(ctx, id)
}

func (s *inventoryService) AddStock(ctx context.Context, id uuid.UUID, req dto.AddStockRequest, userID *uuid.UUID) (*dto.MutationResponse, error) {
	return s.post(ctx, id, req.Quantity, model.TxInflow, req.Reason, req.CostPerUnit, req.Notes, req.ExpenseID, userID)
}

func (s *inventoryService) AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest, userID *uuid.UUID) (*dto.MutationResponse, error) {
	if req.Quantity.IsZero() {
		return nil, fmt.Errorf("adjustment quantity must be non-zero")
	}
	return s.post(ctx, id, req.Quantity, model.TxAdjustment, req.Reason, nil, req.Notes, nil, userID)
}

// post is the shared atomic unit for plain inflow/adjustment postings: lock the
// item, verify the resulting balance, write the new quantity and the ledger row
// together.
func (s *inventoryService) post(ctx context.Context, id uuid.UUID, qty decimal.Decimal, txType, reason string, costOverride *decimal.Decimal, notes string, expenseID *string, userID *uuid.UUID) (*dto.MutationResponse, error) {
	var resp dto.MutationResponse
	txErr := runTx(ctx, s.itemRepo.DB(), func(tx *gorm.DB) error {
		rows, err := s.itemRepo.LockForUpdateTx(tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrStockItemNotFound
		}
		item := &rows[0]

		before := item.Quantity
		balance := before.Add(qty)
		if balance.IsNegative() {
			return ErrInvalidAdjustment
		}

		cost := item.CostPerUnit
		if costOverride != nil {
			cost = *costOverride
		}

		posting := &model.StockTransaction{
			StockItemID:  item.ID,
			Type:         txType,
			Quantity:     qty,
			Reason:       reason,
			CostPerUnit:  cost,
			TotalCost:    qty.Abs().Mul(cost),
			BalanceAfter: balance,
			UserID:       userID,
			Notes:        notes,
			Date:         time.Now(),
		}
		if expenseID != nil {
			posting.OriginID = expenseID
			posting.OriginKind = "expense"
		}
		if err := s.txRepo.CreateTx(tx, posting); err != nil {
			return err
		}
		if err := s.itemRepo.SetQuantityTx(tx, item.ID, balance); err != nil {
			return err
		}

		// Purchases at a new cost also update the item's cost and record the
		// change.
		if costOverride != nil && reason == model.ReasonPurchase && !costOverride.Equal(item.CostPerUnit) {
			change := &model.CostHistory{
				StockItemID: item.ID,
				OldCost:     item.CostPerUnit,
				NewCost:     *costOverride,
				Source:      "purchase",
				UserID:      userID,
			}
			if err := s.costRepo.CreateTx(tx, change); err != nil {
				return err
			}
			if err := setCostInTx(tx, s.itemRepo, item.ID, *costOverride); err != nil {
				return err
			}
			item.CostPerUnit = *costOverride
		}

		item.Quantity = balance
		resp.Item = itemToResponse(item)
		resp.Transaction = txToResponse(posting)
		resp.Event = dto.StockEvent{
			StockItemID:              item.ID.String(),
			Name:                     item.Name,
			NewQuantity:              balance,
			CrossedLowStockThreshold: before.GreaterThan(item.MinThreshold) && balance.LessThanOrEqual(item.MinThreshold),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.notifier != nil {
		s.notifier.PublishStockEvent(ctx, resp.Event)
		if resp.Event.CrossedLowStockThreshold {
			s.notifier.EnqueueLowStockAlert(ctx, resp.Event)
		}
	}
	return &resp, nil
}

func setCostInTx(tx *gorm.DB, repo repository.StockItemRepository, id uuid.UUID, cost decimal.Decimal) error {
	if tx == nil {
		// Unit test mode — the stub's Update path covers this.
		return nil
	}
	return tx.Model(&model.StockItem{}).Where("id = ?", id).Update("cost_per_unit", cost).Error
}

func (s *inventoryService) ListTransactions(ctx context.Context, filter repository.StockTransactionFilter) (*dto.TransactionListResponse, error) {
	txs, total, err := s.txRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.StockTransactionResponse, len(txs))
	for i := range txs {
		data[i] = txToResponse(&txs[i])
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return &dto.TransactionListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *inventoryService) Reconcile(ctx context.Context, id uuid.UUID) (bool, decimal.Decimal, decimal.Decimal, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return false, decimal.Zero, decimal.Zero, ErrStockItemNotFound
	}
	replayed, err := s.txRepo.ReplayBalance(ctx, id)
	if err != nil {
		return false, decimal.Zero, decimal.Zero, err
	}
	return item.Quantity.Equal(replayed), item.Quantity, replayed, nil
}

// ── Mapping helpers ──────────────────────────────────────────────────────────

func itemToResponse(item *model.StockItem) dto.StockItemResponse {
	var supplierID *string
	if item.SupplierID != nil {
		s := item.SupplierID.String()
		supplierID = &s
	}
	return dto.StockItemResponse{
		ID:             item.ID.String(),
		Name:           item.Name,
		Category:       item.Category,
		Unit:           item.Unit,
		Quantity:       item.Quantity,
		CostPerUnit:    item.CostPerUnit,
		MinThreshold:   item.MinThreshold,
		ExpirationDate: item.ExpirationDate,
		DeductionType:  item.DeductionType,
		SupplierID:     supplierID,
		Status:         item.Status,
		LowStock:       item.IsLow(),
		CreatedAt:      item.CreatedAt.Format(time.RFC3339),
	}
}

func txToResponse(t *model.StockTransaction) dto.StockTransactionResponse {
	return dto.StockTransactionResponse{
		ID:           t.ID.String(),
		StockItemID:  t.StockItemID.String(),
		Type:         t.Type,
		Quantity:     t.Quantity,
		Reason:       t.Reason,
		CostPerUnit:  t.CostPerUnit,
		TotalCost:    t.TotalCost,
		BalanceAfter: t.BalanceAfter,
		OriginID:     t.OriginID,
		OriginKind:   t.OriginKind,
		Policy:       t.DeductionPolicy,
		Notes:        t.Notes,
		Date:         t.Date.Format(time.RFC3339),
	}
}

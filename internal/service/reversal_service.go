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

// ReversalService compensates prior deductions on order/bill cancellation.
// Matching is by the structured composite key (originID, originKind, policy):
// the three deduction policies can coexist for one order and are reversed
// independently.
type ReversalService interface {
	Reverse(ctx context.Context, req dto.ReversalRequest, userID *uuid.UUID) (*dto.ReversalResponse, error)
}

type reversalService struct {
	itemRepo repository.StockItemRepository
	txRepo   repository.StockTransactionRepository
	notifier Notifier
	timeout  time.Duration
}

func NewReversalService(
	itemRepo repository.StockItemRepository,
	txRepo repository.StockTransactionRepository,
	notifier Notifier,
	timeout time.Duration,
) ReversalService {
	return &reversalService{itemRepo: itemRepo, txRepo: txRepo, notifier: notifier, timeout: timeout}
}

// Reverse restores every outflow posted under the origin key and appends one
// compensating inflow/return row per reversed outflow. Atomic across all
// matched postings. Zero matches is a failure, never a silent success — it
// means the deduction never happened or was already reversed.
func (s *reversalService) Reverse(ctx context.Context, req dto.ReversalRequest, userID *uuid.UUID) (*dto.ReversalResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp := &dto.ReversalResponse{}
	txErr := runTx(ctx, s.itemRepo.DB(), func(tx *gorm.DB) error {
		postings, err := s.txRepo.FindDeductionsByOriginTx(tx, req.OriginID, req.OriginKind, req.Policy)
		if err != nil {
			return fmt.Errorf("find origin postings: %w", err)
		}
		if len(postings) == 0 {
			return ErrNoMatchingLedgerEntries
		}

		// A reversal is all-or-nothing, so any prior compensating row means
		// this origin was already reversed in full.
		reversed, err := s.txRepo.CountReversalsByOriginTx(tx, req.OriginID, req.OriginKind, req.Policy)
		if err != nil {
			return fmt.Errorf("check prior reversals: %w", err)
		}
		if reversed > 0 {
			return ErrNoMatchingLedgerEntries
		}

		ids := postingItemIDs(postings)
		rows, err := s.itemRepo.LockForUpdateTx(tx, ids)
		if err != nil {
			return fmt.Errorf("lock stock items: %w", err)
		}
		items := make(map[uuid.UUID]*model.StockItem, len(rows))
		running := make(map[uuid.UUID]decimal.Decimal, len(rows))
		for i := range rows {
			items[rows[i].ID] = &rows[i]
			running[rows[i].ID] = rows[i].Quantity
		}

		now := time.Now()
		originID := req.OriginID
		for _, posting := range postings {
			item, ok := items[posting.StockItemID]
			if !ok {
				// The item vanished from the registry while its ledger rows
				// survive — a data-integrity failure, never partially applied.
				return fmt.Errorf("%w: %s", ErrStockItemNotFound, posting.StockItemID)
			}

			// Restoration is always allowed, even past minThreshold.
			qty := posting.Quantity.Abs()
			balance := running[item.ID].Add(qty)
			running[item.ID] = balance

			inverse := &model.StockTransaction{
				StockItemID:     item.ID,
				Type:            model.TxInflow,
				Quantity:        qty,
				Reason:          model.ReasonReturn,
				CostPerUnit:     posting.CostPerUnit,
				TotalCost:       posting.TotalCost,
				BalanceAfter:    balance,
				UserID:          userID,
				OriginID:        &originID,
				OriginKind:      req.OriginKind,
				DeductionPolicy: req.Policy,
				Date:            now,
			}
			if err := s.txRepo.CreateTx(tx, inverse); err != nil {
				return fmt.Errorf("append compensating row for %s: %w", item.Name, err)
			}

			resp.Reversed = append(resp.Reversed, dto.DeductionLineResult{
				StockItemID:  item.ID.String(),
				Name:         item.Name,
				Quantity:     qty,
				BalanceAfter: balance,
				Cost:         posting.TotalCost,
			})
			resp.TotalCOGS = resp.TotalCOGS.Add(posting.TotalCost)
		}

		for id, balance := range running {
			item := items[id]
			if err := s.itemRepo.SetQuantityTx(tx, id, balance); err != nil {
				return fmt.Errorf("restore stock for %s: %w", item.Name, err)
			}
			resp.Events = append(resp.Events, dto.StockEvent{
				StockItemID: id.String(),
				Name:        item.Name,
				NewQuantity: balance,
				// Upward moves never fire the low-stock signal.
				CrossedLowStockThreshold: false,
			})
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.notifier != nil {
		for _, ev := range resp.Events {
			s.notifier.PublishStockEvent(ctx, ev)
		}
	}
	return resp, nil
}

func postingItemIDs(postings []model.StockTransaction) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(postings))
	ids := make([]uuid.UUID, 0, len(postings))
	for _, p := range postings {
		if !seen[p.StockItemID] {
			seen[p.StockItemID] = true
			ids = append(ids, p.StockItemID)
		}
	}
	return ids
}

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Domain sentinels. Handlers map these to HTTP statuses; none of them are
// retryable except timeouts/serialization conflicts, which surface as the
// underlying context or driver error.
var (
	ErrStockItemNotFound       = errors.New("stock item not found")
	ErrStockItemInactive       = errors.New("stock item is inactive")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInvalidAdjustment       = errors.New("adjustment would drive stock negative")
	ErrNoMatchingLedgerEntries = errors.New("no matching ledger entries to reverse")
	ErrMenuItemNotFound        = errors.New("menu item not found")
)

// LineFailure describes one failing line of a batch deduction or reversal.
type LineFailure struct {
	StockItemID string
	Name        string
	Err         error
	Required    decimal.Decimal
	Available   decimal.Decimal
}

func (f LineFailure) String() string {
	if errors.Is(f.Err, ErrInsufficientStock) {
		return fmt.Sprintf("%s: insufficient stock (required %s, available %s)",
			f.label(), f.Required.String(), f.Available.String())
	}
	return fmt.Sprintf("%s: %v", f.label(), f.Err)
}

func (f LineFailure) label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.StockItemID
}

// BatchError aborts a whole deduction/reversal batch. Its presence always means
// no line was applied.
type BatchError struct {
	Lines []LineFailure
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		msgs[i] = l.String()
	}
	return "batch aborted: " + strings.Join(msgs, "; ")
}

// Messages returns one human-readable message per failing line, for the
// structured API response.
func (e *BatchError) Messages() []string {
	msgs := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		msgs[i] = l.String()
	}
	return msgs
}

// Is lets callers match the dominant failure kind with errors.Is.
func (e *BatchError) Is(target error) bool {
	for _, l := range e.Lines {
		if errors.Is(l.Err, target) {
			return true
		}
	}
	return false
}

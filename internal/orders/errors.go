package orders

import (
	"errors"
	"fmt"
)

var (
	ErrCartEmpty        = errors.New("cart is empty")
	ErrMissingLocation  = errors.New("cart line is missing a location")
	ErrNotFound         = errors.New("order not found")
	ErrDuplicateSession = errors.New("order already exists for payment session")
)

// InsufficientStockError names the first part that could not be reserved so
// checkout failures can point at the offending line.
type InsufficientStockError struct {
	PartID     string
	LocationID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for part %s at %s", e.PartID, e.LocationID)
}

// InvalidTransitionError is returned when a lifecycle call finds the order in
// a state it cannot move from, including repeated cancels and fulfils.
type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot transition %s -> %s", e.OrderID, e.From, e.To)
}

// SettlementFailure is one order line whose inventory release or commit was
// rejected by the ledger guard.
type SettlementFailure struct {
	PartID     string `json:"part_id"`
	LocationID string `json:"location_id"`
	Qty        int    `json:"qty"`
	Reason     string `json:"reason"`
}

// PartialSettlementError reports a cancel or fulfil that could not settle
// every line. The enclosing transaction is rolled back, so no line's effect
// persists; the failed lines are surfaced for manual reconciliation.
type PartialSettlementError struct {
	OrderID string
	Failed  []SettlementFailure
}

func (e *PartialSettlementError) Error() string {
	return fmt.Sprintf("order %s: %d line(s) failed inventory settlement", e.OrderID, len(e.Failed))
}

package orders

import (
	"context"

	"github.com/openaxle/go-parts-market/internal/inventory"
)

// Lifecycle drives status transitions and keeps the inventory ledger in step:
// cancel returns reserved stock, fulfil burns it down. Transitions are guarded
// by the store's atomic status update, so a second cancel or fulfil loses the
// guard instead of touching inventory twice.
type Lifecycle struct {
	Orders Store
	Ledger inventory.Ledger
	Tx     UnitOfWork
}

// MarkPaid is a pure status move; stock was already reserved at creation.
func (l *Lifecycle) MarkPaid(ctx context.Context, orderID string) (*Order, error) {
	if err := l.Orders.SetStatus(ctx, orderID, []Status{StatusPending}, StatusPaid); err != nil {
		return nil, err
	}
	return l.Orders.ByID(ctx, orderID)
}

// Cancel releases every reserved line back to availability, then marks the
// order cancelled.
func (l *Lifecycle) Cancel(ctx context.Context, orderID string) (*Order, error) {
	return l.settle(ctx, orderID, []Status{StatusPending, StatusPaid}, StatusCancelled, l.Ledger.Release)
}

// Fulfill commits every reserved line (the stock has physically shipped),
// then marks the order fulfilled.
func (l *Lifecycle) Fulfill(ctx context.Context, orderID string) (*Order, error) {
	return l.settle(ctx, orderID, []Status{StatusPaid}, StatusFulfilled, l.Ledger.Commit)
}

func (l *Lifecycle) settle(ctx context.Context, orderID string, from []Status, to Status,
	move func(ctx context.Context, partID, locationID string, qty int) error) (*Order, error) {

	var ord *Order
	err := l.Tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := l.Orders.ByID(ctx, orderID)
		if err != nil {
			return err
		}
		// Explicit status check before any inventory movement; a terminal
		// order must never release or commit again.
		if !CanTransition(o.Status, to) {
			return &InvalidTransitionError{OrderID: orderID, From: o.Status, To: to}
		}

		// Attempt every line and collect guard failures rather than stopping
		// at the first one, so operators see the full picture. Any failure
		// aborts the transaction, leaving all lines untouched.
		var failed []SettlementFailure
		for _, it := range o.Items {
			if err := move(ctx, it.PartID, it.LocationID, it.Qty); err != nil {
				failed = append(failed, SettlementFailure{
					PartID:     it.PartID,
					LocationID: it.LocationID,
					Qty:        it.Qty,
					Reason:     err.Error(),
				})
			}
		}
		if len(failed) > 0 {
			return &PartialSettlementError{OrderID: orderID, Failed: failed}
		}

		if err := l.Orders.SetStatus(ctx, orderID, from, to); err != nil {
			return err
		}
		o.Status = to
		ord = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ord, nil
}

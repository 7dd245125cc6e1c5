package orders

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/openaxle/go-parts-market/internal/cart"
	"github.com/openaxle/go-parts-market/internal/inventory"
)

// Engine turns a cart into an order: reserve stock line by line, snapshot
// prices, write the order, clear the cart. The whole sequence runs in one
// unit of work, and reservations made before a failure are released
// explicitly, so a failed checkout leaves inventory exactly where it started.
type Engine struct {
	Orders Store
	Carts  CartSource
	Ledger inventory.Ledger
	Prices PriceSource
	Tax    TaxPolicy
	Tx     UnitOfWork
}

// PlaceOrder is the synchronous checkout path. The order is created with
// status pending; payment happens afterwards.
func (e *Engine) PlaceOrder(ctx context.Context, userID string) (*Order, error) {
	var ord *Order
	err := e.Tx.WithinTx(ctx, func(ctx context.Context) error {
		lines, err := e.Carts.Get(ctx, userID)
		if err != nil {
			return err
		}
		o, err := e.placeLines(ctx, userID, lines, StatusPending, nil)
		if err != nil {
			return err
		}
		if err := e.Carts.Clear(ctx, userID); err != nil {
			return err
		}
		ord = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ord, nil
}

// placeLines runs the shared reservation sequence for both checkout paths.
// Reservation follows cart line order; the first line gets the first shot at
// stock. Callers are responsible for clearing the cart afterwards.
func (e *Engine) placeLines(ctx context.Context, userID string, lines []cart.Line, status Status, pay *Payment) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}
	for _, l := range lines {
		if l.LocationID == "" {
			return nil, ErrMissingLocation
		}
	}

	var reserved []cart.Line
	rollback := func() {
		// Compensation for the in-flight attempt only. Under Postgres the
		// transaction rollback covers this too; the explicit releases keep
		// the behavior identical for stores without transactions.
		for _, l := range reserved {
			if err := e.Ledger.Release(ctx, l.PartID, l.LocationID, l.Qty); err != nil {
				log.Printf("rollback release part=%s loc=%s qty=%d: %v", l.PartID, l.LocationID, l.Qty, err)
			}
		}
	}

	for _, l := range lines {
		if err := e.Ledger.Reserve(ctx, l.PartID, l.LocationID, l.Qty); err != nil {
			rollback()
			if errors.Is(err, inventory.ErrInsufficientStock) {
				return nil, &InsufficientStockError{PartID: l.PartID, LocationID: l.LocationID}
			}
			return nil, err
		}
		reserved = append(reserved, l)
	}

	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		price, err := e.Prices.UnitPrice(ctx, l.PartID)
		if err != nil {
			rollback()
			return nil, err
		}
		items = append(items, Item{
			PartID:            l.PartID,
			Qty:               l.Qty,
			PriceAtOrderCents: price,
			LocationID:        l.LocationID,
		})
	}

	now := time.Now().UTC()
	o := &Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     items,
		Totals:    ComputeTotals(items, e.Tax),
		Status:    status,
		Payment:   pay,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Orders.Create(ctx, o); err != nil {
		rollback()
		return nil, err
	}
	return o, nil
}

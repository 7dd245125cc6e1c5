package orders

import (
	"context"

	"github.com/openaxle/go-parts-market/internal/cart"
)

// Store persists orders. Orders are never deleted and never mutated outside
// SetStatus.
type Store interface {
	Create(ctx context.Context, o *Order) error
	ByID(ctx context.Context, id string) (*Order, error)
	// BySession finds the order created for a payment session, or ErrNotFound.
	BySession(ctx context.Context, sessionID string) (*Order, error)
	ByUser(ctx context.Context, userID string, limit int) ([]Order, error)
	// List pages orders for the admin console, optionally filtered by status.
	List(ctx context.Context, status Status, limit, offset int) ([]Order, error)
	// SetStatus moves the order to `to` only if its current status is one of
	// `from`; otherwise InvalidTransitionError. The guard is evaluated by the
	// store atomically, so concurrent transitions cannot both win.
	SetStatus(ctx context.Context, id string, from []Status, to Status) error
}

// CartSource is the slice of the cart store checkout needs: read the lines,
// clear them on success.
type CartSource interface {
	Get(ctx context.Context, userID string) ([]cart.Line, error)
	Clear(ctx context.Context, userID string) error
}

// PriceSource resolves a part's current unit price at reservation time.
type PriceSource interface {
	UnitPrice(ctx context.Context, partID string) (int64, error)
}

// UnitOfWork makes a sequence of store calls atomic. The Postgres
// implementation wraps them in one transaction; the in-memory one snapshots
// and restores on error.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Package inventory is the source of truth for physical and reserved stock.
// A record tracks one part at one warehouse location; every mutation is a
// single guarded compare-and-update so concurrent reservations can never
// drive quantities negative.
package inventory

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientStock means the on-hand quantity was below the requested
	// amount at the moment the update ran.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInsufficientReserved means a release or commit asked for more than is
	// currently reserved. Treated as drift, never silently clamped.
	ErrInsufficientReserved = errors.New("insufficient reserved quantity")
)

// Record is the stock ledger entry for one (part, location) pair.
type Record struct {
	PartID      string     `json:"part_id"`
	LocationID  string     `json:"location_id"`
	QtyOnHand   int        `json:"qty_on_hand"`
	QtyReserved int        `json:"qty_reserved"`
	ETA         *time.Time `json:"eta,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Ledger exposes the three atomic stock movements plus read access. A failed
// guard is a hard error; callers must abort the surrounding operation.
type Ledger interface {
	// Reserve moves qty from on-hand to reserved iff qty_on_hand >= qty.
	Reserve(ctx context.Context, partID, locationID string, qty int) error
	// Release returns qty from reserved to on-hand iff qty_reserved >= qty.
	Release(ctx context.Context, partID, locationID string, qty int) error
	// Commit drops qty from reserved only; on-hand already went down at
	// reservation time.
	Commit(ctx context.Context, partID, locationID string, qty int) error
	// Availability lists all location records for a part.
	Availability(ctx context.Context, partID string) ([]Record, error)
	// UpsertStock sets absolute quantities for a (part, location) pair.
	// Administrative, not part of the reservation flow.
	UpsertStock(ctx context.Context, rec Record) error
}

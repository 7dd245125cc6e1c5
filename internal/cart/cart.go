// Package cart holds each user's mutable shopping cart. One cart per user,
// lines keyed by part. The checkout flow only reads lines and clears them;
// everything else here serves the cart API.
package cart

import "context"

// Line is a single cart entry. LocationID may stay empty while browsing but
// must be resolved before checkout.
type Line struct {
	PartID     string `json:"part_id"`
	Qty        int    `json:"qty"`
	LocationID string `json:"location_id,omitempty"`
}

type Store interface {
	// Get returns the cart lines in insertion order. A user without a cart
	// gets an empty slice, not an error.
	Get(ctx context.Context, userID string) ([]Line, error)
	// AddLine merges by part: an existing line has its qty incremented and,
	// when the new line names a location, the location replaced.
	AddLine(ctx context.Context, userID string, line Line) error
	// SetQty updates a line's quantity; qty <= 0 removes the line.
	SetQty(ctx context.Context, userID, partID string, qty int) error
	RemoveLine(ctx context.Context, userID, partID string) error
	Clear(ctx context.Context, userID string) error
}

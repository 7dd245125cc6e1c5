// Package catalog is the parts reference data: SKU, name, unit price, and the
// vehicles each part fits. Orders copy the price out at creation time, so
// nothing here is ever read back for historical orders.
package catalog

import (
	"context"
	"errors"
	"time"
)

var ErrPartNotFound = errors.New("part not found")

type Part struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Brand      string    `json:"brand,omitempty"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Fitment declares that a part fits one concrete vehicle. A part carries one
// row per make/model/year it serves; browse facets are distinct values over
// these rows.
type Fitment struct {
	ID           int64     `json:"id"`
	PartID       string    `json:"part_id"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	Engine       string    `json:"engine,omitempty"`
	Transmission string    `json:"transmission,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// VehicleFacets drives the vehicle picker: makes are always present, models
// narrow once a make is chosen, years once make and model are.
type VehicleFacets struct {
	Makes  []string `json:"makes"`
	Models []string `json:"models"`
	Years  []int    `json:"years"`
}

// ListFilter combines part-level filters with an optional vehicle. Any vehicle
// field set constrains the listing to parts with a matching fitment.
type ListFilter struct {
	Search string
	Brand  string
	Make   string
	Model  string
	Year   int
	Limit  int
	Offset int
}

func (f ListFilter) hasVehicle() bool {
	return f.Make != "" || f.Model != "" || f.Year > 0
}

type Store interface {
	Get(ctx context.Context, id string) (*Part, error)
	// UnitPrice returns the current price for a part in cents.
	UnitPrice(ctx context.Context, partID string) (int64, error)
	// List pages through the catalog, filtered by search term, brand and
	// vehicle fitment.
	List(ctx context.Context, f ListFilter) ([]Part, error)
	Upsert(ctx context.Context, p *Part) error

	AddFitment(ctx context.Context, f *Fitment) error
	FitmentsByPart(ctx context.Context, partID string) ([]Fitment, error)
	RemoveFitment(ctx context.Context, id int64) error
	// Facets lists the distinct vehicles known to the catalog, narrowed by
	// whatever the caller has already picked.
	Facets(ctx context.Context, make, model string) (*VehicleFacets, error)
}

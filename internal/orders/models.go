// Package orders owns order placement, payment reconciliation and the order
// status lifecycle. An order is an immutable snapshot of the cart it was
// placed from; only its status moves after creation.
package orders

import "time"

// Item is one order line frozen at creation time. PriceAtOrderCents is copied
// from the catalog so later price changes never alter historical orders.
type Item struct {
	PartID            string `json:"part_id"`
	Qty               int    `json:"qty"`
	PriceAtOrderCents int64  `json:"price_at_order_cents"`
	LocationID        string `json:"location_id"`
}

type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	GrandCents    int64 `json:"grand_cents"`
}

// Payment records the external provider's view of this order. SessionID is
// unique across orders and is the idempotency key for webhook-driven
// creation.
type Payment struct {
	Provider       string `json:"provider"`
	SessionID      string `json:"session_id"`
	ExternalStatus string `json:"external_status,omitempty"`
	IntentID       string `json:"intent_id,omitempty"`
}

type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	Totals    Totals    `json:"totals"`
	Status    Status    `json:"status"`
	Payment   *Payment  `json:"payment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaxPolicy computes tax in cents from a subtotal in cents. Tax rules live
// outside the order flow; checkout just applies whatever policy it was given.
type TaxPolicy func(subtotalCents int64) int64

// ZeroTax is the default policy.
func ZeroTax(int64) int64 { return 0 }

// FlatRate taxes the subtotal at a basis-point rate, rounding down.
func FlatRate(bps int) TaxPolicy {
	return func(subtotal int64) int64 {
		return subtotal * int64(bps) / 10000
	}
}

// ComputeTotals prices an item snapshot once, at order creation.
func ComputeTotals(items []Item, tax TaxPolicy) Totals {
	var subtotal int64
	for _, it := range items {
		subtotal += int64(it.Qty) * it.PriceAtOrderCents
	}
	if tax == nil {
		tax = ZeroTax
	}
	t := tax(subtotal)
	return Totals{SubtotalCents: subtotal, TaxCents: t, GrandCents: subtotal + t}
}

package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusFulfilled, false},
		{StatusPaid, StatusFulfilled, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusPending, false},
		{StatusFulfilled, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusPaid.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusFulfilled.Terminal())
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusPaid, StatusCancelled, StatusFulfilled} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("shipped"))
	assert.False(t, ValidStatus(""))
}

func TestMapExternalStatus(t *testing.T) {
	cases := map[string]Status{
		"paid":              StatusPaid,
		"PAID":              StatusPaid,
		"complete":          StatusPaid,
		"completed":         StatusPaid,
		"succeeded":         StatusPaid,
		"payment_succeeded": StatusPaid, // relaxed match
		"canceled":          StatusCancelled,
		"cancelled":         StatusCancelled,
		"expired":           StatusCancelled,
		"session.expired":   StatusCancelled, // relaxed match
		"open":              StatusPending,
		"unpaid":            StatusPending,
		" pending ":         StatusPending,
		"":                  StatusPending, // unknown falls back to pending
		"requires_action":   StatusPending,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapExternalStatus(in), "input %q", in)
	}
}

func TestComputeTotals(t *testing.T) {
	items := []Item{
		{PartID: "a", Qty: 2, PriceAtOrderCents: 1500},
		{PartID: "b", Qty: 1, PriceAtOrderCents: 700},
	}

	got := ComputeTotals(items, nil)
	assert.Equal(t, int64(3700), got.SubtotalCents)
	assert.Zero(t, got.TaxCents)
	assert.Equal(t, int64(3700), got.GrandCents)

	got = ComputeTotals(items, FlatRate(1000)) // 10%
	assert.Equal(t, int64(370), got.TaxCents)
	assert.Equal(t, int64(4070), got.GrandCents)

	got = ComputeTotals(nil, FlatRate(1000))
	assert.Equal(t, Totals{}, got)
}

package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaxle/go-parts-market/internal/cart"
	"github.com/openaxle/go-parts-market/internal/inventory"
	"github.com/openaxle/go-parts-market/internal/orders"
)

func TestLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.UpsertStock(ctx, inventory.Record{PartID: "p1", LocationID: "l1", QtyOnHand: 10}))

	require.NoError(t, s.Reserve(ctx, "p1", "l1", 4))
	onHand, reserved := s.Stock("p1", "l1")
	assert.Equal(t, 6, onHand)
	assert.Equal(t, 4, reserved)

	require.NoError(t, s.Release(ctx, "p1", "l1", 1))
	onHand, reserved = s.Stock("p1", "l1")
	assert.Equal(t, 7, onHand)
	assert.Equal(t, 3, reserved)

	require.NoError(t, s.Commit(ctx, "p1", "l1", 3))
	onHand, reserved = s.Stock("p1", "l1")
	assert.Equal(t, 7, onHand)
	assert.Equal(t, 0, reserved)
}

func TestLedgerGuards(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.UpsertStock(ctx, inventory.Record{PartID: "p1", LocationID: "l1", QtyOnHand: 2}))

	assert.ErrorIs(t, s.Reserve(ctx, "p1", "l1", 3), inventory.ErrInsufficientStock)
	assert.ErrorIs(t, s.Reserve(ctx, "p1", "unknown", 1), inventory.ErrInsufficientStock)
	assert.ErrorIs(t, s.Release(ctx, "p1", "l1", 1), inventory.ErrInsufficientReserved)
	assert.ErrorIs(t, s.Commit(ctx, "p1", "l1", 1), inventory.ErrInsufficientReserved)

	// a failed guard changes nothing
	onHand, reserved := s.Stock("p1", "l1")
	assert.Equal(t, 2, onHand)
	assert.Equal(t, 0, reserved)
}

func TestAvailabilityListsLocations(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.UpsertStock(ctx, inventory.Record{PartID: "p1", LocationID: "l1", QtyOnHand: 2}))
	require.NoError(t, s.UpsertStock(ctx, inventory.Record{PartID: "p1", LocationID: "l2", QtyOnHand: 5}))
	require.NoError(t, s.UpsertStock(ctx, inventory.Record{PartID: "p2", LocationID: "l1", QtyOnHand: 9}))

	recs, err := s.Availability(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestCartMergesLinesByPart(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "p1", Qty: 2, LocationID: "l1"}))
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "p1", Qty: 3}))
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "p2", Qty: 1, LocationID: "l2"}))

	lines, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 5, lines[0].Qty)
	assert.Equal(t, "l1", lines[0].LocationID, "empty location on merge keeps the existing one")
}

func TestCartSetQtyZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "p1", Qty: 2, LocationID: "l1"}))
	require.NoError(t, s.SetQty(ctx, "u1", "p1", 0))

	lines, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestOrderListingHonorsPaging(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Create(ctx, &orders.Order{
			ID:        fmt.Sprintf("ord-%d", i),
			UserID:    "u1",
			Status:    orders.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	byUser, err := s.ByUser(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, "ord-4", byUser[0].ID, "newest first")
	assert.Equal(t, "ord-3", byUser[1].ID)

	page, err := s.List(ctx, orders.StatusPending, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "ord-2", page[0].ID)
	assert.Equal(t, "ord-1", page[1].ID)

	past, err := s.List(ctx, orders.StatusPending, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestWithinTxRestoresSnapshotOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.UpsertStock(ctx, inventory.Record{PartID: "p1", LocationID: "l1", QtyOnHand: 10}))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Reserve(ctx, "p1", "l1", 10))
		require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "p1", Qty: 1, LocationID: "l1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	onHand, reserved := s.Stock("p1", "l1")
	assert.Equal(t, 10, onHand)
	assert.Equal(t, 0, reserved)

	lines, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

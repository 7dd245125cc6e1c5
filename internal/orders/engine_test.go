package orders_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaxle/go-parts-market/internal/cart"
	"github.com/openaxle/go-parts-market/internal/inventory"
	"github.com/openaxle/go-parts-market/internal/memstore"
	"github.com/openaxle/go-parts-market/internal/orders"
)

func newEngine(s *memstore.Store) *orders.Engine {
	return &orders.Engine{
		Orders: s,
		Carts:  s,
		Ledger: s,
		Prices: s,
		Tax:    orders.ZeroTax,
		Tx:     s,
	}
}

func seedPart(t *testing.T, s *memstore.Store, partID, locID string, onHand int, priceCents int64) {
	t.Helper()
	require.NoError(t, s.UpsertStock(context.Background(), inventory.Record{
		PartID: partID, LocationID: locID, QtyOnHand: onHand,
	}))
	s.SetPrice(partID, priceCents)
}

func TestPlaceOrderReservesStockAndClearsCart(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)

	seedPart(t, s, "brake-pad", "jkt-01", 5, 4500)
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "brake-pad", Qty: 5, LocationID: "jkt-01"}))

	ord, err := eng.PlaceOrder(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, ord)

	assert.Equal(t, orders.StatusPending, ord.Status)
	assert.Equal(t, "u1", ord.UserID)
	require.Len(t, ord.Items, 1)
	assert.Equal(t, int64(4500), ord.Items[0].PriceAtOrderCents)
	assert.Equal(t, int64(22500), ord.Totals.SubtotalCents)
	assert.Equal(t, int64(22500), ord.Totals.GrandCents)

	onHand, reserved := s.Stock("brake-pad", "jkt-01")
	assert.Equal(t, 0, onHand)
	assert.Equal(t, 5, reserved)

	lines, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines, "cart must be cleared after checkout")
}

func TestPlaceOrderInsufficientStockLeavesEverythingUntouched(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)

	seedPart(t, s, "brake-pad", "jkt-01", 5, 4500)
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "brake-pad", Qty: 6, LocationID: "jkt-01"}))

	ord, err := eng.PlaceOrder(ctx, "u1")
	require.Nil(t, ord)

	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "brake-pad", stockErr.PartID)
	assert.Equal(t, "jkt-01", stockErr.LocationID)

	onHand, reserved := s.Stock("brake-pad", "jkt-01")
	assert.Equal(t, 5, onHand)
	assert.Equal(t, 0, reserved)
	assert.Zero(t, s.OrderCount())

	lines, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1, "failed checkout must not consume the cart")
	assert.Equal(t, 6, lines[0].Qty)
}

func TestPlaceOrderRollsBackEarlierReservations(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)

	seedPart(t, s, "oil-filter", "jkt-01", 10, 900)
	seedPart(t, s, "spark-plug", "jkt-01", 1, 350)

	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "oil-filter", Qty: 4, LocationID: "jkt-01"}))
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "spark-plug", Qty: 2, LocationID: "jkt-01"}))

	_, err := eng.PlaceOrder(ctx, "u1")
	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "spark-plug", stockErr.PartID)

	// the first line's reservation must have been released
	onHand, reserved := s.Stock("oil-filter", "jkt-01")
	assert.Equal(t, 10, onHand)
	assert.Equal(t, 0, reserved)
	assert.Zero(t, s.OrderCount())
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	s := memstore.New()
	eng := newEngine(s)

	_, err := eng.PlaceOrder(context.Background(), "nobody")
	assert.ErrorIs(t, err, orders.ErrCartEmpty)
}

func TestPlaceOrderMissingLocation(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)

	seedPart(t, s, "brake-pad", "jkt-01", 5, 4500)
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "brake-pad", Qty: 1}))

	_, err := eng.PlaceOrder(ctx, "u1")
	assert.ErrorIs(t, err, orders.ErrMissingLocation)

	onHand, reserved := s.Stock("brake-pad", "jkt-01")
	assert.Equal(t, 5, onHand)
	assert.Equal(t, 0, reserved)
}

func TestPlaceOrderSnapshotsPriceAtCreation(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)

	seedPart(t, s, "brake-pad", "jkt-01", 5, 4500)
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "brake-pad", Qty: 1, LocationID: "jkt-01"}))

	ord, err := eng.PlaceOrder(ctx, "u1")
	require.NoError(t, err)

	// a later catalog price change must not leak into the stored order
	s.SetPrice("brake-pad", 9900)

	got, err := s.ByID(ctx, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), got.Items[0].PriceAtOrderCents)
	assert.Equal(t, int64(4500), got.Totals.GrandCents)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)

	const onHand = 7
	const buyers = 20
	seedPart(t, s, "brake-pad", "jkt-01", onHand, 4500)

	userIDs := make([]string, buyers)
	for i := range userIDs {
		userIDs[i] = string(rune('a' + i))
		require.NoError(t, s.AddLine(ctx, userIDs[i], cart.Line{PartID: "brake-pad", Qty: 1, LocationID: "jkt-01"}))
	}

	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for _, uid := range userIDs {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := eng.PlaceOrder(ctx, uid)
			results <- err
		}(uid)
	}
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		switch {
		case err == nil:
			ok++
		default:
			var stockErr *orders.InsufficientStockError
			require.ErrorAs(t, err, &stockErr)
			rejected++
		}
	}

	assert.Equal(t, onHand, ok)
	assert.Equal(t, buyers-onHand, rejected)

	left, reserved := s.Stock("brake-pad", "jkt-01")
	assert.Equal(t, 0, left)
	assert.Equal(t, onHand, reserved)
	assert.Equal(t, onHand, s.OrderCount())
}

func TestFlatRateTaxAppliedToTotals(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	eng := newEngine(s)
	eng.Tax = orders.FlatRate(1100) // 11%

	seedPart(t, s, "brake-pad", "jkt-01", 5, 10000)
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "brake-pad", Qty: 2, LocationID: "jkt-01"}))

	ord, err := eng.PlaceOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), ord.Totals.SubtotalCents)
	assert.Equal(t, int64(2200), ord.Totals.TaxCents)
	assert.Equal(t, int64(22200), ord.Totals.GrandCents)
}

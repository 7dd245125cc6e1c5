package orders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaxle/go-parts-market/internal/cart"
	"github.com/openaxle/go-parts-market/internal/memstore"
	"github.com/openaxle/go-parts-market/internal/orders"
)

func newReconciler(s *memstore.Store) *orders.Reconciler {
	return &orders.Reconciler{Engine: newEngine(s), Orders: s, Carts: s}
}

func paidEvent(sessionID, userID string) orders.PaymentEvent {
	return orders.PaymentEvent{
		Provider:       "stripe",
		SessionID:      sessionID,
		UserID:         userID,
		AmountCents:    9000,
		ExternalStatus: "paid",
		IntentID:       "pi_123",
	}
}

func TestReconcileCreatesOrderFromCart(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rec := newReconciler(s)

	seedPart(t, s, "brake-pad", "jkt-01", 5, 4500)
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "brake-pad", Qty: 2, LocationID: "jkt-01"}))

	ord, err := rec.OnPaymentConfirmed(ctx, paidEvent("sess_1", "u1"))
	require.NoError(t, err)
	require.NotNil(t, ord)

	assert.Equal(t, orders.StatusPaid, ord.Status)
	require.NotNil(t, ord.Payment)
	assert.Equal(t, "sess_1", ord.Payment.SessionID)
	assert.Equal(t, "stripe", ord.Payment.Provider)
	assert.Equal(t, "pi_123", ord.Payment.IntentID)

	onHand, reserved := s.Stock("brake-pad", "jkt-01")
	assert.Equal(t, 3, onHand)
	assert.Equal(t, 2, reserved)

	lines, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestReconcileIsIdempotentPerSession(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rec := newReconciler(s)

	seedPart(t, s, "brake-pad", "jkt-01", 5, 4500)
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "brake-pad", Qty: 2, LocationID: "jkt-01"}))

	first, err := rec.OnPaymentConfirmed(ctx, paidEvent("sess_1", "u1"))
	require.NoError(t, err)
	require.NotNil(t, first)

	// redelivered webhook for the same session
	second, err := rec.OnPaymentConfirmed(ctx, paidEvent("sess_1", "u1"))
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, s.OrderCount())

	// no double reservation
	onHand, reserved := s.Stock("brake-pad", "jkt-01")
	assert.Equal(t, 3, onHand)
	assert.Equal(t, 2, reserved)
}

func TestReconcileEmptyCartIsANoop(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rec := newReconciler(s)

	ord, err := rec.OnPaymentConfirmed(ctx, paidEvent("sess_9", "u1"))
	require.NoError(t, err)
	assert.Nil(t, ord, "nothing to reconcile must not be an error")
	assert.Zero(t, s.OrderCount())
}

func TestReconcileInsufficientStockCreatesNoOrder(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rec := newReconciler(s)

	seedPart(t, s, "brake-pad", "jkt-01", 1, 4500)
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "brake-pad", Qty: 3, LocationID: "jkt-01"}))

	ord, err := rec.OnPaymentConfirmed(ctx, paidEvent("sess_2", "u1"))
	require.NoError(t, err)
	assert.Nil(t, ord)
	assert.Zero(t, s.OrderCount())

	// inventory and cart are untouched; the payment goes to manual recovery
	onHand, reserved := s.Stock("brake-pad", "jkt-01")
	assert.Equal(t, 1, onHand)
	assert.Equal(t, 0, reserved)

	lines, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
}

func TestReconcileMapsExternalStatus(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rec := newReconciler(s)

	seedPart(t, s, "brake-pad", "jkt-01", 5, 4500)
	require.NoError(t, s.AddLine(ctx, "u1", cart.Line{PartID: "brake-pad", Qty: 1, LocationID: "jkt-01"}))

	ev := paidEvent("sess_3", "u1")
	ev.ExternalStatus = "open"
	ord, err := rec.OnPaymentConfirmed(ctx, ev)
	require.NoError(t, err)
	require.NotNil(t, ord)
	assert.Equal(t, orders.StatusPending, ord.Status)
	assert.Equal(t, "open", ord.Payment.ExternalStatus)
}

package orders

import (
	"context"
	"errors"
	"log"
)

// PaymentEvent is the minimal contract with the payment provider feed: an
// external reference, who paid, how much, and the provider's status string.
// Events may be redelivered any number of times and may arrive before or
// after the synchronous checkout call for the same user.
type PaymentEvent struct {
	Provider       string `json:"provider"`
	SessionID      string `json:"session_id"`
	UserID         string `json:"user_id"`
	AmountCents    int64  `json:"amount_cents"`
	ExternalStatus string `json:"external_status"`
	IntentID       string `json:"intent_id,omitempty"`
}

// Reconciler maps asynchronous payment confirmations onto orders. It creates
// an order from the user's current cart at most once per payment session; a
// redelivered event returns the existing order untouched.
type Reconciler struct {
	Engine *Engine
	Orders Store
	Carts  CartSource
}

// OnPaymentConfirmed returns the order for the session, creating it if
// needed. (nil, nil) means there was nothing to reconcile: the cart was
// already processed or reservation failed; the payment stays captured
// externally and is handed to operational recovery.
func (r *Reconciler) OnPaymentConfirmed(ctx context.Context, ev PaymentEvent) (*Order, error) {
	existing, err := r.Orders.BySession(ctx, ev.SessionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	pay := &Payment{
		Provider:       ev.Provider,
		SessionID:      ev.SessionID,
		ExternalStatus: ev.ExternalStatus,
		IntentID:       ev.IntentID,
	}
	status := MapExternalStatus(ev.ExternalStatus)

	var ord *Order
	err = r.Engine.Tx.WithinTx(ctx, func(ctx context.Context) error {
		lines, err := r.Carts.Get(ctx, ev.UserID)
		if err != nil {
			return err
		}
		o, err := r.Engine.placeLines(ctx, ev.UserID, lines, status, pay)
		if err != nil {
			return err
		}
		if err := r.Carts.Clear(ctx, ev.UserID); err != nil {
			return err
		}
		ord = o
		return nil
	})

	switch {
	case err == nil:
		return ord, nil
	case errors.Is(err, ErrCartEmpty):
		// Cart already consumed (likely by the synchronous checkout) or never
		// populated for this session. Nothing to do.
		log.Printf("payment session %s: no cart to reconcile for user %s", ev.SessionID, ev.UserID)
		return nil, nil
	case errors.Is(err, ErrDuplicateSession):
		// Raced another delivery of the same session; the winner's order is
		// the order.
		return r.Orders.BySession(ctx, ev.SessionID)
	default:
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) || errors.Is(err, ErrMissingLocation) {
			// Never create a partial order. The payment is captured
			// externally; surfacing nothing here routes it to manual
			// reconciliation.
			log.Printf("payment session %s: cannot place order: %v", ev.SessionID, err)
			return nil, nil
		}
		return nil, err
	}
}

package httpx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/openaxle/go-parts-market/internal/kafka"
	"github.com/openaxle/go-parts-market/internal/orders"
	"github.com/openaxle/go-parts-market/internal/redisx"
)

// OrderEvents publishes order lifecycle events and keeps the Redis status
// cache warm. Shared by the checkout, webhook and admin handlers.
type OrderEvents struct {
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string
}

var statusTopics = map[orders.Status]struct{ topic, event string }{
	orders.StatusPaid:      {orders.TopicOrderPaid, orders.EventOrderPaid},
	orders.StatusCancelled: {orders.TopicOrderCancelled, orders.EventOrderCancelled},
	orders.StatusFulfilled: {orders.TopicOrderFulfilled, orders.EventOrderFulfilled},
}

func (p *OrderEvents) OrderCreated(ctx context.Context, o *orders.Order, trace string) {
	p.cacheStatus(ctx, o)
	payload := kafkax.MustMarshal(orders.OrderCreatedPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		ItemCount:  len(o.Items),
		GrandCents: o.Totals.GrandCents,
	})
	p.publish(orders.TopicOrderCreated, orders.EventOrderCreated, o.ID, trace, payload)

	// Webhook-created orders can land directly in a post-pending state; emit
	// the transition event too so consumers see one stream of truth.
	if o.Status != orders.StatusPending {
		p.StatusChanged(ctx, o, trace)
	}
}

func (p *OrderEvents) StatusChanged(ctx context.Context, o *orders.Order, trace string) {
	p.cacheStatus(ctx, o)
	st, ok := statusTopics[o.Status]
	if !ok {
		return
	}
	payload := kafkax.MustMarshal(orders.OrderStatusPayload{OrderID: o.ID, UserID: o.UserID, Status: o.Status})
	p.publish(st.topic, st.event, o.ID, trace, payload)
}

func (p *OrderEvents) CheckoutRejected(userID, partID, reason, trace string) {
	payload := kafkax.MustMarshal(orders.CheckoutRejectedPayload{UserID: userID, PartID: partID, Reason: reason})
	p.publish(orders.TopicCheckoutRejected, orders.EventCheckoutRejected, userID, trace, payload)
}

func (p *OrderEvents) publish(topic, eventType, correlationID, trace string, payload []byte) {
	ev := orders.NewEnvelope(eventType, p.Service, trace, correlationID, payload)
	p.Producer.Publish(topic, orders.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (p *OrderEvents) cacheStatus(ctx context.Context, o *orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	// user_id travels with the cached status so reads can enforce ownership
	// without touching the store.
	_ = p.Redis.Set(ctx, key,
		fmt.Sprintf(`{"user_id":%q,"status":%q}`, o.UserID, o.Status), redisx.TTLStatusCache).Err()
}

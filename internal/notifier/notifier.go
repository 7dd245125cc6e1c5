// Package notifier consumes the order event stream and records notification
// intents for customers (order placed, paid, cancelled, shipped). Actual
// delivery is a downstream concern; this worker's job is exactly-once
// handling of the stream.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/openaxle/go-parts-market/internal/kafka"
	"github.com/openaxle/go-parts-market/internal/orders"
	"github.com/openaxle/go-parts-market/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// Topics lists everything this worker subscribes to.
func Topics() []string {
	return []string{
		orders.TopicOrderCreated,
		orders.TopicOrderPaid,
		orders.TopicOrderCancelled,
		orders.TopicOrderFulfilled,
		orders.TopicCheckoutRejected,
	}
}

// HandleEvent is the consumer handler. Kafka delivers at least once, so the
// event id is deduplicated through Redis before any side effect.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	seen, err := redisx.Exists(ctx, s.Redis, dkey)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("notify user=%s order=%s placed, total=%d cents", p.UserID, p.OrderID, p.GrandCents)
	case orders.EventOrderPaid, orders.EventOrderCancelled, orders.EventOrderFulfilled:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("notify user=%s order=%s is now %s", p.UserID, p.OrderID, p.Status)
	case orders.EventCheckoutRejected:
		p, err := kafkax.UnwrapPayload[orders.CheckoutRejectedPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("notify user=%s checkout rejected: %s (part=%s)", p.UserID, p.Reason, p.PartID)
	default:
		// unknown event types are committed and skipped
	}

	return s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}

package redisx

import "time"

const (
	// Order status cache: order:status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order:status:%s"

	// Finalize fast path: seen payment sessions, session:{session_id} -> order_id.
	// The unique index on orders is the source of truth; this only short-cuts
	// redelivered webhooks.
	KeyPaymentSession = "session:%s"

	// Consumer dedup: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache    = 5 * time.Minute
	TTLPaymentSession = 24 * time.Hour
	TTLDedup          = 48 * time.Hour
)

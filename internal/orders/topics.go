package orders

const (
	TopicOrderCreated     = "orders.created"
	TopicOrderPaid        = "orders.paid"
	TopicOrderCancelled   = "orders.cancelled"
	TopicOrderFulfilled   = "orders.fulfilled"
	TopicCheckoutRejected = "orders.checkout.rejected"
)

// Partition key = order id, so every event for one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange   = "qrdine.events"
	OrderEventsQueue = "qrdine.order_events"

	KitchenExchange    = "qrdine.kitchen"
	KitchenStatusQueue = "qrdine.kitchen.status"
	KitchenStatusDLQ   = "qrdine.kitchen.status.dlq"
	KitchenStatusRK    = "status"
	KitchenDeadRK      = "dead"
)

// EnsureEventsTopology declares the topic exchange ordering events are
// published to and a durable queue collecting order and waiter events for
// downstream displays.
func EnsureEventsTopology(qc *Client) error {
	if qc == nil {
		return nil
	}
	if err := qc.EnsureExchange(EventsExchange); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(OrderEventsQueue); err != nil {
		return err
	}
	// '#' matches multi-segment keys such as order.status.updated.
	for _, key := range []string{"order.#", "waiter.#"} {
		if err := qc.BindQueue(OrderEventsQueue, EventsExchange, key); err != nil {
			return err
		}
	}
	return nil
}

// EnsureKitchenTopology declares the direct exchange kitchen displays push
// status changes to, with a dead-letter queue for rejected messages.
func EnsureKitchenTopology(qc *Client) error {
	if qc == nil {
		return nil
	}
	if err := qc.EnsureExchangeKind(KitchenExchange, "direct"); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(KitchenStatusDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(KitchenStatusDLQ, KitchenExchange, KitchenDeadRK); err != nil {
		return err
	}
	_, err := qc.EnsureQueueWithArgs(KitchenStatusQueue, amqp.Table{
		"x-dead-letter-exchange":    KitchenExchange,
		"x-dead-letter-routing-key": KitchenDeadRK,
	})
	if err != nil {
		return err
	}
	return qc.BindQueue(KitchenStatusQueue, KitchenExchange, KitchenStatusRK)
}

package ordering

import (
	"context"
	"time"
)

type EventType string

const (
	EventOrderPlaced        EventType = "order.placed"
	EventOrderUpdated       EventType = "order.updated"
	EventOrderCancelled     EventType = "order.cancelled"
	EventOrderStatusUpdated EventType = "order.status.updated"
	EventCartUpdated        EventType = "cart.updated"
	EventNotification       EventType = "notification.created"
)

// Event describes a state change a session listener may care about.
type Event struct {
	Type         EventType     `json:"type"`
	SessionID    string        `json:"sessionId"`
	Order        *Order        `json:"order,omitempty"`
	Cart         []CartItem    `json:"cart,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	OccurredAt   time.Time     `json:"occurredAt"`
}

// Publisher receives events after the store lock is released.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	f(ctx, event)
}

// Fanout delivers each event to every publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

package queue

import (
	"context"
	"time"

	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/waiter"

	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// JSONPublisher is the part of Client the event publisher needs.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

// orderEvent is the wire envelope for order events. Cart and notification
// events stay inside the session and are not forwarded.
type orderEvent struct {
	Type        string          `json:"type"`
	SessionID   string          `json:"sessionId"`
	OrderID     string          `json:"orderId"`
	VenueID     string          `json:"venueId"`
	TableID     string          `json:"tableId"`
	TableNumber int             `json:"tableNumber"`
	Status      ordering.Status `json:"status"`
	TotalAmount float64         `json:"totalAmount"`
	Order       *ordering.Order `json:"order"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

type waiterEvent struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"sessionId"`
	VenueID     string    `json:"venueId"`
	TableID     string    `json:"tableId"`
	TableNumber int       `json:"tableNumber"`
	Message     string    `json:"message,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// EventPublisher forwards ordering and waiter events to the events exchange,
// using the event type as routing key. Failures are logged; the in-memory
// state change has already happened.
type EventPublisher struct {
	client JSONPublisher
	logger *zap.Logger
}

func NewEventPublisher(client JSONPublisher, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{client: client, logger: logger}
}

func (p *EventPublisher) Publish(ctx context.Context, e ordering.Event) {
	if p == nil || p.client == nil || e.Order == nil {
		return
	}
	payload := orderEvent{
		Type:        string(e.Type),
		SessionID:   e.SessionID,
		OrderID:     e.Order.ID,
		VenueID:     e.Order.VenueID,
		TableID:     e.Order.TableID,
		TableNumber: e.Order.TableNumber,
		Status:      e.Order.Status,
		TotalAmount: e.Order.TotalAmount,
		Order:       e.Order,
		OccurredAt:  e.OccurredAt,
	}
	p.send(ctx, string(e.Type), payload)
}

// PublishWaiter matches waiter.Listener.
func (p *EventPublisher) PublishWaiter(ctx context.Context, e waiter.Event) {
	if p == nil || p.client == nil {
		return
	}
	payload := waiterEvent{
		Type:        string(e.Type),
		SessionID:   e.Table.SessionID,
		VenueID:     e.Table.VenueID,
		TableID:     e.Table.TableID,
		TableNumber: e.Table.TableNumber,
		Message:     e.Message,
		OccurredAt:  e.OccurredAt,
	}
	p.send(ctx, string(e.Type), payload)
}

func (p *EventPublisher) send(ctx context.Context, routingKey string, payload any) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.client.PublishJSON(pubCtx, EventsExchange, routingKey, payload); err != nil {
		p.logger.Warn("event publish failed", zap.String("routingKey", routingKey), zap.Error(err))
	}
}

package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/waiter"

	amqp "github.com/rabbitmq/amqp091-go"
)

type published struct {
	exchange   string
	routingKey string
	payload    any
}

type fakeClient struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakeClient) PublishJSON(_ context.Context, exchange, routingKey string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{exchange: exchange, routingKey: routingKey, payload: payload})
	return f.err
}

func seatedStore(t *testing.T, pub ordering.Publisher) *ordering.Store {
	t.Helper()
	s := ordering.NewStore("sess-1", ordering.WithPublisher(pub))
	v := catalog.Venue{
		ID:     "rest-1",
		Tables: []catalog.Table{{ID: "table-4", Number: 4, Type: catalog.TablePrivate, IsAvailable: true}},
		Menu:   []catalog.MenuItem{{ID: "v1", Price: 8.99, Category: catalog.CategoryVeg, Available: true}},
	}
	s.SelectVenue(v)
	s.SelectTable(v.Tables[0])
	if _, err := s.AddMenuItem(context.Background(), "v1", 2, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	return s
}

func TestEventPublisherForwardsOrderEvents(t *testing.T) {
	client := &fakeClient{}
	pub := NewEventPublisher(client, nil)
	s := seatedStore(t, pub)

	order, err := s.PlaceOrder(context.Background())
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if len(client.sent) != 1 {
		t.Fatalf("expected only the order event to be forwarded, got %d messages", len(client.sent))
	}
	msg := client.sent[0]
	if msg.exchange != EventsExchange || msg.routingKey != string(ordering.EventOrderPlaced) {
		t.Fatalf("unexpected destination %s/%s", msg.exchange, msg.routingKey)
	}
	evt, ok := msg.payload.(orderEvent)
	if !ok {
		t.Fatalf("unexpected payload %T", msg.payload)
	}
	if evt.OrderID != order.ID || evt.TableNumber != 4 || evt.VenueID != "rest-1" || evt.Status != ordering.StatusPending {
		t.Fatalf("unexpected envelope %+v", evt)
	}
}

func TestEventPublisherSwallowsErrors(t *testing.T) {
	client := &fakeClient{err: errors.New("broker down")}
	s := seatedStore(t, NewEventPublisher(client, nil))
	if _, err := s.PlaceOrder(context.Background()); err != nil {
		t.Fatalf("broker failure must not fail the order: %v", err)
	}
}

func TestEventPublisherWaiterEvents(t *testing.T) {
	client := &fakeClient{}
	pub := NewEventPublisher(client, nil)
	pub.PublishWaiter(context.Background(), waiter.Event{
		Type:  waiter.EventCalled,
		Table: waiter.Table{SessionID: "sess-1", VenueID: "rest-1", TableID: "table-4", TableNumber: 4},
	})
	if len(client.sent) != 1 || client.sent[0].routingKey != "waiter.called" {
		t.Fatalf("unexpected messages %+v", client.sent)
	}
}

type advancer struct {
	store *ordering.Store
}

func (a advancer) AdvanceOrder(ctx context.Context, orderID string, status ordering.Status) (ordering.Order, error) {
	return a.store.AdvanceOrder(ctx, orderID, status)
}

func TestKitchenStatusHandler(t *testing.T) {
	s := seatedStore(t, nil)
	order, err := s.PlaceOrder(context.Background())
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	handle := KitchenStatusHandler(advancer{store: s}, nil)

	cases := []struct {
		name      string
		body      string
		permanent bool
		want      ordering.Status
	}{
		{name: "malformed", body: `{`, permanent: true, want: ordering.StatusPending},
		{name: "unknown status", body: `{"orderId":"` + order.ID + `","status":"eaten"}`, permanent: true, want: ordering.StatusPending},
		{name: "skips a step", body: `{"orderId":"` + order.ID + `","status":"ready"}`, permanent: true, want: ordering.StatusPending},
		{name: "confirm", body: `{"orderId":"` + order.ID + `","status":"CONFIRMED"}`, want: ordering.StatusConfirmed},
		{name: "prepare", body: `{"orderId":"` + order.ID + `","status":"preparing"}`, want: ordering.StatusPreparing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := handle(context.Background(), []byte(tc.body))
			if tc.permanent {
				if !errors.Is(err, ErrPermanent) {
					t.Fatalf("expected permanent error, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, _ := s.Order(order.ID)
			if got.Status != tc.want {
				t.Fatalf("expected status %s, got %s", tc.want, got.Status)
			}
		})
	}
}

func TestGetRetryCount(t *testing.T) {
	cases := []struct {
		headers amqp.Table
		want    int
	}{
		{headers: nil, want: 0},
		{headers: amqp.Table{retryHeader: int32(2)}, want: 2},
		{headers: amqp.Table{retryHeader: int64(3)}, want: 3},
		{headers: amqp.Table{retryHeader: "x"}, want: 0},
	}
	for _, tc := range cases {
		if got := getRetryCount(tc.headers); got != tc.want {
			t.Fatalf("headers %v: expected %d, got %d", tc.headers, tc.want, got)
		}
	}
}


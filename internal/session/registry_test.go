package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/waiter"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestRegistry(c *clock) *Registry {
	seq := 0
	return NewRegistry(nil, 30*time.Minute,
		WithClock(c.now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("sess-%d", seq)
		}),
	)
}

func venue() catalog.Venue {
	return catalog.Venue{
		ID: "rest-1",
		Tables: []catalog.Table{
			{ID: "table-1", Number: 1, Type: catalog.TablePrivate, IsAvailable: true},
			{ID: "table-2", Number: 2, Type: catalog.TablePrivate, IsAvailable: true},
			{ID: "table-3", Number: 3, Type: catalog.TableShared, IsAvailable: false},
		},
		Menu: []catalog.MenuItem{{ID: "v1", Price: 8.99, Category: catalog.CategoryVeg, Available: true}},
	}
}

func placeOrder(t *testing.T, s *ordering.Store, tableIdx int) ordering.Order {
	t.Helper()
	v := venue()
	s.SelectVenue(v)
	s.SelectTable(v.Tables[tableIdx])
	if _, err := s.AddMenuItem(context.Background(), "v1", 1, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	order, err := s.PlaceOrder(context.Background())
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return order
}

func TestRegistryLifecycle(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	r := newTestRegistry(c)

	closed := make([]string, 0)
	r.OnClose(func(id string) { closed = append(closed, id) })

	s := r.Create()
	if s.SessionID() != "sess-1" {
		t.Fatalf("unexpected session id %s", s.SessionID())
	}
	got, err := r.Get("sess-1")
	if err != nil || got != s {
		t.Fatalf("get: %v", err)
	}
	if _, err := r.Get("nope"); ordering.CodeOf(err) != ordering.ErrSessionNotFound {
		t.Fatalf("expected %s, got %v", ordering.ErrSessionNotFound, err)
	}
	if !r.Close("sess-1") || r.Close("sess-1") {
		t.Fatalf("close must succeed exactly once")
	}
	if len(closed) != 1 || closed[0] != "sess-1" {
		t.Fatalf("unexpected close callbacks %v", closed)
	}
}

func TestRegistrySweep(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	r := newTestRegistry(c)

	idle := r.Create()
	busy := r.Create()
	placeOrder(t, busy, 0)

	c.t = c.t.Add(10 * time.Minute)
	fresh := r.Create()

	c.t = c.t.Add(25 * time.Minute)
	if n := r.Sweep(); n != 1 {
		t.Fatalf("expected one swept session, got %d", n)
	}
	if _, err := r.Get(idle.SessionID()); err == nil {
		t.Fatalf("idle session must be swept")
	}
	if _, err := r.Get(busy.SessionID()); err != nil {
		t.Fatalf("session with an active order must survive")
	}
	if _, err := r.Get(fresh.SessionID()); err != nil {
		t.Fatalf("recent session must survive")
	}
}

func TestRegistryAdvanceOrder(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	r := newTestRegistry(c)
	s := r.Create()
	order := placeOrder(t, s, 0)

	updated, err := r.AdvanceOrder(context.Background(), order.ID, ordering.StatusConfirmed)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if updated.Status != ordering.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}
	if _, err := r.AdvanceOrder(context.Background(), "missing", ordering.StatusConfirmed); ordering.CodeOf(err) != ordering.ErrOrderNotFound {
		t.Fatalf("expected %s, got %v", ordering.ErrOrderNotFound, err)
	}
}

func TestVenueDashboard(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	r := newTestRegistry(c)

	a := r.Create()
	first := placeOrder(t, a, 0)
	c.t = c.t.Add(time.Minute)
	second := placeOrder(t, a, 0)
	a.CancelOrder(context.Background(), first.ID)

	b := r.Create()
	c.t = c.t.Add(time.Minute)
	third := placeOrder(t, b, 1)
	r.AdvanceOrder(context.Background(), third.ID, ordering.StatusConfirmed)
	r.AdvanceOrder(context.Background(), third.ID, ordering.StatusPreparing)

	other := r.Create()
	other.SelectVenue(catalog.Venue{ID: "rest-3"})

	d := r.VenueDashboard(venue())
	if d.ActiveSessions != 2 {
		t.Fatalf("expected 2 sessions, got %d", d.ActiveSessions)
	}
	if d.TotalTables != 3 || d.TablesBooked != 3 {
		t.Fatalf("unexpected table counts booked=%d total=%d", d.TablesBooked, d.TotalTables)
	}
	if d.WaitingOrders != 1 || d.PreparingOrders != 1 || d.CancelledOrders != 1 || d.ServedOrders != 0 {
		t.Fatalf("unexpected order counts %+v", d)
	}
	if len(d.RecentOrders) != 3 || d.RecentOrders[0].ID != third.ID || d.RecentOrders[1].ID != second.ID {
		t.Fatalf("recent orders must be newest first")
	}
}

func TestVenueDashboardKeepsOrdersAfterVenueSwitch(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	r := newTestRegistry(c)

	s := r.Create()
	order := placeOrder(t, s, 0)
	s.SelectVenue(catalog.Venue{ID: "rest-3"})

	d := r.VenueDashboard(venue())
	if d.ActiveSessions != 0 {
		t.Fatalf("the session is seated elsewhere, got %d active sessions", d.ActiveSessions)
	}
	if d.WaitingOrders != 1 || len(d.RecentOrders) != 1 || d.RecentOrders[0].ID != order.ID {
		t.Fatalf("order placed at the venue must stay on its dashboard: %+v", d)
	}
	// table-1 holds the order, table-3 is unavailable
	if d.TablesBooked != 2 || len(d.Tables) != 1 || d.Tables[0].TableID != "table-1" {
		t.Fatalf("unexpected table stats booked=%d tables=%+v", d.TablesBooked, d.Tables)
	}
	if got := len(r.VenueOrders("rest-1")); got != d.WaitingOrders {
		t.Fatalf("venue orders (%d) and dashboard (%d) disagree", got, d.WaitingOrders)
	}

	other := r.VenueDashboard(catalog.Venue{ID: "rest-3"})
	if other.ActiveSessions != 1 || other.WaitingOrders != 0 {
		t.Fatalf("unexpected dashboard for the new venue %+v", other)
	}
}

func TestRegistryIgnoresNilOptions(t *testing.T) {
	r := NewRegistry(nil, time.Minute, WithClock(nil), WithIDGenerator(nil))
	s := r.Create()
	if s.SessionID() == "" {
		t.Fatalf("expected a generated session id")
	}
	if _, err := r.Get(s.SessionID()); err != nil {
		t.Fatalf("get: %v", err)
	}
}

func TestDashboardViewByRole(t *testing.T) {
	d := Dashboard{VenueID: "rest-1", TablesBooked: 2, WaitingOrders: 3, PreparingOrders: 1, ServedOrders: 4, CancelledOrders: 1,
		Tables: []TableStat{{TableID: "table-1", TableNumber: 1, ActiveOrders: 1}}}

	kitchen := d.View(auth.RoleKitchen)
	if kitchen.TablesBooked != nil || kitchen.ServedOrders != nil || kitchen.CancelledOrders != nil || kitchen.Tables != nil {
		t.Fatalf("kitchen must not see table or served stats: %+v", kitchen)
	}
	if kitchen.WaitingOrders == nil || *kitchen.WaitingOrders != 3 || kitchen.PreparingOrders == nil || *kitchen.PreparingOrders != 1 {
		t.Fatalf("kitchen must see waiting and preparing: %+v", kitchen)
	}

	waiter := d.View(auth.RoleWaiter)
	if waiter.PreparingOrders != nil || waiter.CancelledOrders != nil {
		t.Fatalf("waiter must not see preparing or cancelled: %+v", waiter)
	}
	if waiter.TablesBooked == nil || *waiter.TablesBooked != 2 || len(waiter.Tables) != 1 {
		t.Fatalf("waiter must see tables: %+v", waiter)
	}

	admin := d.View(auth.RoleAdmin)
	if admin.CancelledOrders == nil || len(admin.Permissions) != 7 {
		t.Fatalf("admin must see everything: %+v", admin)
	}
}

func TestVenueOrders(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	r := newTestRegistry(c)
	first := placeOrder(t, r.Create(), 0)
	c.t = c.t.Add(time.Minute)
	second := placeOrder(t, r.Create(), 1)
	if _, err := r.AdvanceOrder(context.Background(), second.ID, ordering.StatusConfirmed); err != nil {
		t.Fatalf("advance: %v", err)
	}

	all := r.VenueOrders("rest-1")
	if len(all) != 2 || all[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", all)
	}
	pending := r.VenueOrders("rest-1", ordering.StatusPending)
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("unexpected pending orders %+v", pending)
	}
	if got := r.VenueOrders("fc-1"); len(got) != 0 {
		t.Fatalf("other venue must be empty")
	}
}

func TestWaiterNotifier(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	r := newTestRegistry(c)
	s := r.Create()
	notify := WaiterNotifier(r)

	table := waiter.Table{SessionID: s.SessionID(), VenueID: "rest-1", TableID: "table-1", TableNumber: 1}
	notify(context.Background(), waiter.Event{Type: waiter.EventCalled, Table: table})
	notify(context.Background(), waiter.Event{Type: waiter.EventCancelled, Table: table})
	notify(context.Background(), waiter.Event{Type: waiter.EventExpired, Table: table})
	notify(context.Background(), waiter.Event{Type: waiter.EventCalled, Table: waiter.Table{SessionID: "gone"}})

	ns := s.Notifications()
	if len(ns) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(ns))
	}
	if ns[0].Type != ordering.NotificationWarning || ns[1].Message != "A waiter has been called to table 1" {
		t.Fatalf("unexpected notifications %+v", ns)
	}
}

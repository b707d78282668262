package waiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"qrdine-order-service/internal/ordering"
)

type events struct {
	mu  sync.Mutex
	got []Event
	ch  chan Event
}

func newEvents() *events {
	return &events{ch: make(chan Event, 16)}
}

func (e *events) listen(_ context.Context, ev Event) {
	e.mu.Lock()
	e.got = append(e.got, ev)
	e.mu.Unlock()
	e.ch <- ev
}

func (e *events) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-e.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

var table = Table{SessionID: "sess-1", VenueID: "rest-1", TableID: "table-3", TableNumber: 3}

func TestCallIsIdempotent(t *testing.T) {
	ev := newEvents()
	s := NewService(nil, time.Hour, ev.listen)
	defer s.Close()

	first, err := s.Call(context.Background(), table)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	second, err := s.Call(context.Background(), table)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !first.StartedAt.Equal(second.StartedAt) {
		t.Fatalf("second call must return the open call")
	}
	if got := ev.next(t); got.Type != EventCalled {
		t.Fatalf("expected %s, got %s", EventCalled, got.Type)
	}
	select {
	case extra := <-ev.ch:
		t.Fatalf("unexpected event %s", extra.Type)
	default:
	}
}

func TestCallExpires(t *testing.T) {
	ev := newEvents()
	s := NewService(nil, 20*time.Millisecond, ev.listen)
	defer s.Close()

	if _, err := s.Call(context.Background(), table); err != nil {
		t.Fatalf("call: %v", err)
	}
	ev.next(t)
	if got := ev.next(t); got.Type != EventExpired {
		t.Fatalf("expected %s, got %s", EventExpired, got.Type)
	}
	if _, ok := s.Active(table.SessionID); ok {
		t.Fatalf("expired call must be gone")
	}
}

func TestCancelStopsTimer(t *testing.T) {
	ev := newEvents()
	s := NewService(nil, 30*time.Millisecond, ev.listen)
	defer s.Close()

	s.Call(context.Background(), table)
	ev.next(t)
	if !s.Cancel(context.Background(), table.SessionID) {
		t.Fatalf("expected an open call to cancel")
	}
	if got := ev.next(t); got.Type != EventCancelled {
		t.Fatalf("expected %s, got %s", EventCancelled, got.Type)
	}
	if s.Cancel(context.Background(), table.SessionID) {
		t.Fatalf("second cancel must report nothing to cancel")
	}

	time.Sleep(60 * time.Millisecond)
	select {
	case extra := <-ev.ch:
		t.Fatalf("timer fired after cancel: %s", extra.Type)
	default:
	}
}

func TestStaleTimerDoesNotCancelNewCall(t *testing.T) {
	ev := newEvents()
	s := NewService(nil, time.Hour, ev.listen)
	defer s.Close()

	s.Call(context.Background(), table)
	s.mu.Lock()
	staleGen := s.calls[table.SessionID].gen
	s.mu.Unlock()

	s.Cancel(context.Background(), table.SessionID)
	s.Call(context.Background(), table)

	s.expire(table.SessionID, staleGen)
	if _, ok := s.Active(table.SessionID); !ok {
		t.Fatalf("stale expiry must not close the newer call")
	}
}

func TestCloseStopsCalls(t *testing.T) {
	s := NewService(nil, time.Hour, nil)
	s.Call(context.Background(), table)
	s.Close()

	if _, ok := s.Active(table.SessionID); ok {
		t.Fatalf("close must drop open calls")
	}
	if _, err := s.Call(context.Background(), table); err == nil {
		t.Fatalf("calls after close must fail")
	}
}

func TestSendMessage(t *testing.T) {
	ev := newEvents()
	s := NewService(nil, time.Hour, ev.listen)
	defer s.Close()

	if err := s.SendMessage(context.Background(), table, "  "); ordering.CodeOf(err) != ordering.ErrValidation {
		t.Fatalf("expected %s, got %v", ordering.ErrValidation, err)
	}
	if err := s.SendMessage(context.Background(), Table{SessionID: "x"}, "hi"); ordering.CodeOf(err) != ordering.ErrNoTableSelected {
		t.Fatalf("expected %s, got %v", ordering.ErrNoTableSelected, err)
	}
	if err := s.SendMessage(context.Background(), table, " Extra napkins please "); err != nil {
		t.Fatalf("send: %v", err)
	}
	got := ev.next(t)
	if got.Type != EventMessage || got.Message != "Extra napkins please" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestElapsed(t *testing.T) {
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	c := Call{StartedAt: start, ExpiresAt: start.Add(DefaultWindow)}
	if got := c.Elapsed(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Fatalf("unexpected elapsed %v", got)
	}
	if got := c.Elapsed(start.Add(time.Hour)); got != DefaultWindow {
		t.Fatalf("elapsed must cap at the window, got %v", got)
	}
}

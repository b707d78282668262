// Package waiter tracks call-waiter requests from tables. A call stays open
// for a fixed window and is cancelled automatically when nobody answers it.
package waiter

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"qrdine-order-service/internal/ordering"

	"go.uber.org/zap"
)

const DefaultWindow = 300 * time.Second

const maxMessageLength = 500

type EventType string

const (
	EventCalled    EventType = "waiter.called"
	EventCancelled EventType = "waiter.cancelled"
	EventExpired   EventType = "waiter.expired"
	EventMessage   EventType = "waiter.message"
)

// Table identifies who is calling.
type Table struct {
	SessionID   string `json:"sessionId"`
	VenueID     string `json:"venueId"`
	TableID     string `json:"tableId"`
	TableNumber int    `json:"tableNumber"`
}

type Call struct {
	Table
	StartedAt time.Time `json:"startedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Elapsed is the waiting time shown to the guest, capped at the window.
func (c Call) Elapsed(now time.Time) time.Duration {
	d := now.Sub(c.StartedAt)
	if window := c.ExpiresAt.Sub(c.StartedAt); d > window {
		d = window
	}
	if d < 0 {
		return 0
	}
	return d
}

type Event struct {
	Type       EventType `json:"type"`
	Table      Table     `json:"table"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Listener func(ctx context.Context, e Event)

type activeCall struct {
	call  Call
	gen   uint64
	timer *time.Timer
}

type Service struct {
	logger   *zap.Logger
	window   time.Duration
	now      func() time.Time
	listener Listener

	mu     sync.Mutex
	calls  map[string]*activeCall
	gen    uint64
	closed bool
}

func NewService(logger *zap.Logger, window time.Duration, listener Listener) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if listener == nil {
		listener = func(context.Context, Event) {}
	}
	return &Service{
		logger:   logger,
		window:   window,
		now:      time.Now,
		listener: listener,
		calls:    make(map[string]*activeCall),
	}
}

// Call opens a call for the table's session. Calling again while a call is
// open returns the open call unchanged.
func (s *Service) Call(ctx context.Context, table Table) (Call, error) {
	if table.SessionID == "" || table.TableID == "" {
		return Call{}, ordering.Precondition(ordering.ErrNoTableSelected, "Select a table before calling a waiter")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Call{}, context.Canceled
	}
	if existing, ok := s.calls[table.SessionID]; ok {
		s.mu.Unlock()
		return existing.call, nil
	}
	now := s.now()
	s.gen++
	gen := s.gen
	ac := &activeCall{
		call: Call{Table: table, StartedAt: now, ExpiresAt: now.Add(s.window)},
		gen:  gen,
	}
	ac.timer = time.AfterFunc(s.window, func() { s.expire(table.SessionID, gen) })
	s.calls[table.SessionID] = ac
	call := ac.call
	s.mu.Unlock()

	s.listener(ctx, Event{Type: EventCalled, Table: table, OccurredAt: now})
	return call, nil
}

// expire cancels the call only if it is still the call the timer was armed
// for.
func (s *Service) expire(sessionID string, gen uint64) {
	s.mu.Lock()
	ac, ok := s.calls[sessionID]
	if !ok || ac.gen != gen || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.calls, sessionID)
	s.mu.Unlock()

	s.logger.Info("waiter call expired",
		zap.String("session_id", sessionID),
		zap.String("table_id", ac.call.TableID),
	)
	s.listener(context.Background(), Event{Type: EventExpired, Table: ac.call.Table, OccurredAt: s.now()})
}

// Cancel closes the session's open call. It reports whether there was one.
func (s *Service) Cancel(ctx context.Context, sessionID string) bool {
	s.mu.Lock()
	ac, ok := s.calls[sessionID]
	if ok {
		ac.timer.Stop()
		delete(s.calls, sessionID)
	}
	s.mu.Unlock()

	if ok {
		s.listener(ctx, Event{Type: EventCancelled, Table: ac.call.Table, OccurredAt: s.now()})
	}
	return ok
}

func (s *Service) Active(sessionID string) (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ac, ok := s.calls[sessionID]
	if !ok {
		return Call{}, false
	}
	return ac.call, true
}

// SendMessage forwards a free-text note from the table to staff.
func (s *Service) SendMessage(ctx context.Context, table Table, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ordering.Invalid(ordering.ErrValidation, "Message is required")
	}
	if len(text) > maxMessageLength {
		return ordering.Invalid(ordering.ErrValidation, "Message is too long")
	}
	if table.TableID == "" {
		return ordering.Precondition(ordering.ErrNoTableSelected, "Select a table before messaging staff")
	}
	s.listener(ctx, Event{Type: EventMessage, Table: table, Message: text, OccurredAt: s.now()})
	return nil
}

// Close stops every pending timer. Calls made afterwards fail.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ac := range s.calls {
		ac.timer.Stop()
		delete(s.calls, id)
	}
}

// ActiveAt lists the open calls of a venue, oldest first.
func (s *Service) ActiveAt(venueID string) []Call {
	s.mu.Lock()
	out := make([]Call, 0)
	for _, ac := range s.calls {
		if ac.call.VenueID == venueID {
			out = append(out, ac.call)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Package session keeps one ordering store per guest session and answers the
// cross-session questions the staff side asks.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Registry struct {
	logger    *zap.Logger
	idleTTL   time.Duration
	now       func() time.Time
	newID     func() string
	storeOpts []ordering.Option

	mu       sync.RWMutex
	sessions map[string]*ordering.Store
	closers  []func(sessionID string)
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// WithStoreOptions are applied to every store the registry creates.
func WithStoreOptions(opts ...ordering.Option) Option {
	return func(r *Registry) { r.storeOpts = append(r.storeOpts, opts...) }
}

func NewRegistry(logger *zap.Logger, idleTTL time.Duration, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		logger:   logger,
		idleTTL:  idleTTL,
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]*ordering.Store),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnClose registers a callback run when a session is removed, either
// explicitly or by the idle sweep.
func (r *Registry) OnClose(fn func(sessionID string)) {
	r.mu.Lock()
	r.closers = append(r.closers, fn)
	r.mu.Unlock()
}

// Create opens a session with a fresh store.
func (r *Registry) Create(opts ...ordering.Option) *ordering.Store {
	id := r.newID()
	all := make([]ordering.Option, 0, len(r.storeOpts)+len(opts)+1)
	all = append(all, ordering.WithClock(r.now))
	all = append(all, r.storeOpts...)
	all = append(all, opts...)
	store := ordering.NewStore(id, all...)

	r.mu.Lock()
	r.sessions[id] = store
	r.mu.Unlock()

	r.logger.Debug("session created", zap.String("session_id", id))
	return store
}

func (r *Registry) Get(sessionID string) (*ordering.Store, error) {
	r.mu.RLock()
	store, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, ordering.NotFound(ordering.ErrSessionNotFound, "Session expired or not found")
	}
	return store, nil
}

func (r *Registry) Close(sessionID string) bool {
	r.mu.Lock()
	_, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	closers := append([]func(string){}, r.closers...)
	r.mu.Unlock()

	if ok {
		for _, fn := range closers {
			fn(sessionID)
		}
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) stores() []*ordering.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ordering.Store, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Sweep closes sessions idle for longer than the TTL. Sessions with an
// active order are kept so guests can still follow it.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)
	expired := make([]string, 0)
	for _, s := range r.stores() {
		if !s.LastActive().Before(cutoff) {
			continue
		}
		if len(ordering.ActiveOrders(s.Orders())) > 0 {
			continue
		}
		expired = append(expired, s.SessionID())
	}
	for _, id := range expired {
		r.Close(id)
	}
	if len(expired) > 0 {
		r.logger.Info("idle sessions swept", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// FindOrder locates the session that owns an order.
func (r *Registry) FindOrder(orderID string) (*ordering.Store, ordering.Order, error) {
	for _, s := range r.stores() {
		if order, err := s.Order(orderID); err == nil {
			return s, order, nil
		}
	}
	return nil, ordering.Order{}, ordering.NotFound(ordering.ErrOrderNotFound, fmt.Sprintf("Order %s not found", orderID))
}

// AdvanceOrder applies a staff or kitchen status change to whichever session
// owns the order.
func (r *Registry) AdvanceOrder(ctx context.Context, orderID string, status ordering.Status) (ordering.Order, error) {
	store, _, err := r.FindOrder(orderID)
	if err != nil {
		return ordering.Order{}, err
	}
	return store.AdvanceOrder(ctx, orderID, status)
}

type TableStat struct {
	TableID      string `json:"tableId"`
	TableNumber  int    `json:"tableNumber"`
	ActiveOrders int    `json:"activeOrders"`
}

type Dashboard struct {
	VenueID         string           `json:"venueId"`
	TablesBooked    int              `json:"tablesBooked"`
	TotalTables     int              `json:"totalTables"`
	WaitingOrders   int              `json:"waitingOrders"`
	PreparingOrders int              `json:"preparingOrders"`
	ServedOrders    int              `json:"servedOrders"`
	CancelledOrders int              `json:"cancelledOrders"`
	ActiveSessions  int              `json:"activeSessions"`
	Tables          []TableStat      `json:"tables"`
	RecentOrders    []ordering.Order `json:"recentOrders"`
}

const recentOrderLimit = 5

// VenueDashboard aggregates the orders placed at the venue across every
// session, including sessions that have since moved to another venue.
// ActiveSessions counts only sessions currently seated at the venue. A table
// counts as booked while it has an active order or is marked unavailable in
// the catalog.
func (r *Registry) VenueDashboard(venue catalog.Venue) Dashboard {
	d := Dashboard{
		VenueID:      venue.ID,
		TotalTables:  len(venue.Tables),
		Tables:       make([]TableStat, 0),
		RecentOrders: make([]ordering.Order, 0),
	}

	orders := make([]ordering.Order, 0)
	for _, s := range r.stores() {
		if v, ok := s.Venue(); ok && v.ID == venue.ID {
			d.ActiveSessions++
		}
		for _, o := range s.Orders() {
			if o.VenueID == venue.ID {
				orders = append(orders, o)
			}
		}
	}

	byStatus := ordering.CountByStatus(orders)
	d.WaitingOrders = byStatus[ordering.StatusPending]
	d.PreparingOrders = byStatus[ordering.StatusPreparing]
	d.ServedOrders = byStatus[ordering.StatusDelivered]
	d.CancelledOrders = byStatus[ordering.StatusCancelled]

	active := ordering.ActiveOrderCountByTable(orders)
	for _, t := range venue.Tables {
		count := active[t.ID]
		if count > 0 || !t.IsAvailable {
			d.TablesBooked++
		}
		if count > 0 {
			d.Tables = append(d.Tables, TableStat{TableID: t.ID, TableNumber: t.Number, ActiveOrders: count})
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > recentOrderLimit {
		orders = orders[:recentOrderLimit]
	}
	d.RecentOrders = orders
	return d
}

// VenueOrders lists the orders placed at a venue across sessions, newest
// first. An empty status list means every status.
func (r *Registry) VenueOrders(venueID string, statuses ...ordering.Status) []ordering.Order {
	want := make(map[ordering.Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	out := make([]ordering.Order, 0)
	for _, s := range r.stores() {
		for _, o := range s.Orders() {
			if o.VenueID != venueID {
				continue
			}
			if len(want) > 0 && !want[o.Status] {
				continue
			}
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Package ordering holds the per-session ordering state: venue and table
// selection, the cart, placed orders and the notification feed.
//
// Every operation runs under the store mutex and returns copies, so callers
// never share slices with the store. Events are published after the mutex is
// released.
package ordering

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"qrdine-order-service/internal/catalog"

	"github.com/google/uuid"
)

const DefaultOrderETA = 30 * time.Minute

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithOrderETA(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.orderETA = d
		}
	}
}

func WithDietaryFilter(f catalog.DietaryFilter) Option {
	return func(s *Store) {
		if f.Valid() {
			s.diet = f
		}
	}
}

type Store struct {
	mu sync.Mutex

	sessionID     string
	venue         *catalog.Venue
	table         *catalog.Table
	cart          []CartItem
	orders        []Order
	currentOrder  string
	notifications []Notification
	diet          catalog.DietaryFilter
	lastActive    time.Time

	now       func() time.Time
	newID     func() string
	publisher Publisher
	orderETA  time.Duration
}

func NewStore(sessionID string, opts ...Option) *Store {
	s := &Store{
		sessionID:     sessionID,
		cart:          make([]CartItem, 0),
		orders:        make([]Order, 0),
		notifications: make([]Notification, 0),
		diet:          catalog.DietAll,
		now:           time.Now,
		newID:         uuid.NewString,
		publisher:     nopPublisher{},
		orderETA:      DefaultOrderETA,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActive = s.now()
	return s
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// LastActive is the time of the most recent operation on the store.
func (s *Store) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Store) touch() time.Time {
	now := s.now()
	s.lastActive = now
	return now
}

func (s *Store) publish(ctx context.Context, events []Event) {
	for _, e := range events {
		s.publisher.Publish(ctx, e)
	}
}

func (s *Store) event(t EventType, at time.Time) Event {
	return Event{Type: t, SessionID: s.sessionID, OccurredAt: at}
}

// Snapshot returns a copy of the whole session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Cart:          append([]CartItem(nil), s.cart...),
		Orders:        make([]Order, 0, len(s.orders)),
		Notifications: append([]Notification(nil), s.notifications...),
		DietaryFilter: s.diet,
	}
	if snap.Cart == nil {
		snap.Cart = make([]CartItem, 0)
	}
	if snap.Notifications == nil {
		snap.Notifications = make([]Notification, 0)
	}
	if s.venue != nil {
		v := s.venue.Clone()
		snap.Venue = &v
	}
	if s.table != nil {
		t := *s.table
		snap.Table = &t
	}
	for _, o := range s.orders {
		snap.Orders = append(snap.Orders, o.clone())
		if o.ID == s.currentOrder {
			current := o.clone()
			snap.CurrentOrder = &current
		}
	}
	return snap
}

// Venue returns the selected venue.
func (s *Store) Venue() (catalog.Venue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.venue == nil {
		return catalog.Venue{}, false
	}
	return s.venue.Clone(), true
}

func (s *Store) Table() (catalog.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return catalog.Table{}, false
	}
	return *s.table, true
}

func (s *Store) DietaryFilter() catalog.DietaryFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diet
}

// SelectVenue replaces the venue wholesale. Switching to a different venue
// drops the table selection; the cart and orders are kept.
func (s *Store) SelectVenue(venue catalog.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	v := venue.Clone()
	if s.venue != nil && s.venue.ID != v.ID {
		s.table = nil
	}
	s.venue = &v
}

// SelectTable sets the current table. Callers are expected to offer only
// selectable tables of the current venue.
func (s *Store) SelectTable(table catalog.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	t := table
	s.table = &t
}

// SelectTableByID selects a table of the current venue, rejecting tables
// that are unavailable or locked by someone else.
func (s *Store) SelectTableByID(tableID string) (catalog.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.venue == nil {
		return catalog.Table{}, Precondition(ErrNoVenueSelected, "Select a venue first")
	}
	t, ok := catalog.FindTable(s.venue.Tables, tableID)
	if !ok {
		return catalog.Table{}, NotFound(ErrTableNotFound, fmt.Sprintf("Table %s not found", tableID))
	}
	if !t.Selectable() {
		return catalog.Table{}, Precondition(ErrTableNotSelectable, fmt.Sprintf("Table %d is not available", t.Number))
	}
	s.table = &t
	return t, nil
}

func (s *Store) SelectStall(stallID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.venue == nil {
		return Precondition(ErrNoVenueSelected, "Select a venue first")
	}
	if !s.venue.IsFoodCourt() {
		return Precondition(ErrNotFoodCourt, fmt.Sprintf("%s has no stalls", s.venue.Name))
	}
	if _, ok := s.venue.Stall(stallID); !ok {
		return NotFound(ErrStallNotFound, fmt.Sprintf("Stall %s not found", stallID))
	}
	s.venue.CurrentStallID = stallID
	return nil
}

func (s *Store) LockTable(tableID string) error {
	return s.setTableLock(tableID, true)
}

func (s *Store) UnlockTable(tableID string) error {
	return s.setTableLock(tableID, false)
}

func (s *Store) setTableLock(tableID string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.venue == nil {
		return Precondition(ErrNoVenueSelected, "Select a venue first")
	}
	for i := range s.venue.Tables {
		if s.venue.Tables[i].ID != tableID {
			continue
		}
		s.venue.Tables[i].IsLocked = locked
		if s.table != nil && s.table.ID == tableID {
			s.table.IsLocked = locked
		}
		return nil
	}
	return NotFound(ErrTableNotFound, fmt.Sprintf("Table %s not found", tableID))
}

func (s *Store) SetDietaryFilter(filter catalog.DietaryFilter) error {
	if !filter.Valid() {
		return Invalid(ErrInvalidDietaryFilter, fmt.Sprintf("Unknown dietary filter %q", filter))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.diet = filter
	return nil
}

// Menu returns the effective menu of the selected venue.
func (s *Store) Menu() ([]catalog.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.venue == nil {
		return nil, Precondition(ErrNoVenueSelected, "Select a venue first")
	}
	return append([]catalog.MenuItem(nil), catalog.EffectiveMenu(*s.venue)...), nil
}

func (s *Store) Cart() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CartItem, len(s.cart))
	copy(out, s.cart)
	return out
}

// AddToCart adds a line, or replaces the quantity of the existing line with
// the same item id and stall. Instructions of an existing line change only
// when a non-empty value is given.
func (s *Store) AddToCart(ctx context.Context, item catalog.MenuItem, quantity int, specialInstructions, stallID string) ([]CartItem, error) {
	if quantity < 1 {
		return nil, Invalid(ErrInvalidQuantity, "Quantity must be at least 1")
	}

	s.mu.Lock()
	now := s.touch()
	found := false
	for i := range s.cart {
		if s.cart[i].ID != item.ID || s.cart[i].StallID != stallID {
			continue
		}
		s.cart[i].Quantity = quantity
		if specialInstructions != "" {
			s.cart[i].SpecialInstructions = specialInstructions
		}
		found = true
		break
	}
	if !found {
		s.cart = append(s.cart, CartItem{
			MenuItem:            item,
			Quantity:            quantity,
			SpecialInstructions: specialInstructions,
			StallID:             stallID,
		})
	}
	cart := append([]CartItem(nil), s.cart...)
	e := s.event(EventCartUpdated, now)
	e.Cart = cart
	s.mu.Unlock()

	s.publish(ctx, []Event{e})
	return cart, nil
}

// AddMenuItem looks the item up in the effective menu of the selected venue
// before adding it. Food-court lines are tagged with the current stall.
func (s *Store) AddMenuItem(ctx context.Context, itemID string, quantity int, specialInstructions string) ([]CartItem, error) {
	s.mu.Lock()
	if s.venue == nil {
		s.mu.Unlock()
		return nil, Precondition(ErrNoVenueSelected, "Select a venue first")
	}
	item, ok := catalog.FindMenuItem(catalog.EffectiveMenu(*s.venue), itemID)
	stallID := ""
	if s.venue.IsFoodCourt() {
		stallID = s.venue.CurrentStallID
	}
	s.mu.Unlock()

	if !ok {
		return nil, NotFound(ErrMenuItemNotFound, fmt.Sprintf("Menu item %s not found", itemID))
	}
	if !item.Available {
		return nil, Precondition(ErrItemUnavailable, fmt.Sprintf("%s is not available right now", item.Name))
	}
	return s.AddToCart(ctx, item, quantity, strings.TrimSpace(specialInstructions), stallID)
}

// UpdateCartItem sets the quantity of every line with the item id. A
// quantity of zero or less removes the lines. A nil specialInstructions
// leaves the previous value in place.
func (s *Store) UpdateCartItem(ctx context.Context, itemID string, quantity int, specialInstructions *string) ([]CartItem, error) {
	s.mu.Lock()
	now := s.touch()
	if quantity <= 0 {
		s.cart = removeLines(s.cart, itemID)
	} else {
		found := false
		for i := range s.cart {
			if s.cart[i].ID != itemID {
				continue
			}
			found = true
			s.cart[i].Quantity = quantity
			if specialInstructions != nil {
				s.cart[i].SpecialInstructions = *specialInstructions
			}
		}
		if !found {
			s.mu.Unlock()
			return nil, NotFound(ErrCartItemNotFound, fmt.Sprintf("Item %s is not in the cart", itemID))
		}
	}
	cart := append([]CartItem(nil), s.cart...)
	e := s.event(EventCartUpdated, now)
	e.Cart = cart
	s.mu.Unlock()

	s.publish(ctx, []Event{e})
	return cart, nil
}

// RemoveFromCart drops every line with the item id. Removing an absent item
// is not an error.
func (s *Store) RemoveFromCart(ctx context.Context, itemID string) []CartItem {
	s.mu.Lock()
	now := s.touch()
	s.cart = removeLines(s.cart, itemID)
	cart := append([]CartItem(nil), s.cart...)
	e := s.event(EventCartUpdated, now)
	e.Cart = cart
	s.mu.Unlock()

	s.publish(ctx, []Event{e})
	return cart
}

func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	now := s.touch()
	s.cart = make([]CartItem, 0)
	e := s.event(EventCartUpdated, now)
	s.mu.Unlock()

	s.publish(ctx, []Event{e})
}

func removeLines(cart []CartItem, itemID string) []CartItem {
	out := make([]CartItem, 0, len(cart))
	for _, line := range cart {
		if line.ID != itemID {
			out = append(out, line)
		}
	}
	return out
}

func (s *Store) notify(message string, kind NotificationType, at time.Time) Notification {
	n := Notification{
		ID:        s.newID(),
		Message:   message,
		Type:      kind,
		CreatedAt: at,
	}
	s.notifications = append([]Notification{n}, s.notifications...)
	return n
}

// PlaceOrder turns the cart into a pending order. It fails without touching
// any state when no venue or table is selected or the cart is empty.
func (s *Store) PlaceOrder(ctx context.Context) (Order, error) {
	s.mu.Lock()
	if s.venue == nil {
		s.mu.Unlock()
		return Order{}, Precondition(ErrNoVenueSelected, "Select a venue before ordering")
	}
	if s.table == nil {
		s.mu.Unlock()
		return Order{}, Precondition(ErrNoTableSelected, "Select a table before ordering")
	}
	if len(s.cart) == 0 {
		s.mu.Unlock()
		return Order{}, Precondition(ErrEmptyCart, "Your cart is empty")
	}

	now := s.touch()
	eta := now.Add(s.orderETA)
	order := Order{
		ID:                    s.newID(),
		VenueID:               s.venue.ID,
		TableID:               s.table.ID,
		TableNumber:           s.table.Number,
		Items:                 append([]CartItem(nil), s.cart...),
		Status:                StatusPending,
		TotalAmount:           Total(s.cart),
		CreatedAt:             now,
		UpdatedAt:             now,
		EstimatedDeliveryTime: &eta,
	}
	s.orders = append(s.orders, order)
	s.currentOrder = order.ID
	s.cart = make([]CartItem, 0)
	n := s.notify(fmt.Sprintf("Your order has been placed! Order #%s", order.ID), NotificationSuccess, now)

	events := s.orderEvents(EventOrderPlaced, order, n, now)
	s.mu.Unlock()

	s.publish(ctx, events)
	return order.clone(), nil
}

func (s *Store) orderEvents(t EventType, order Order, n Notification, at time.Time) []Event {
	o := order.clone()
	e := s.event(t, at)
	e.Order = &o
	note := n
	ne := s.event(EventNotification, at)
	ne.Notification = &note
	return []Event{e, ne}
}

func (s *Store) findOrder(orderID string) (int, error) {
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			return i, nil
		}
	}
	return -1, NotFound(ErrOrderNotFound, fmt.Sprintf("Order %s not found", orderID))
}

func (s *Store) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.clone())
	}
	return out
}

func (s *Store) Order(orderID string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.findOrder(orderID)
	if err != nil {
		return Order{}, err
	}
	return s.orders[i].clone(), nil
}

// CurrentOrder returns the most recently placed order.
func (s *Store) CurrentOrder() (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentOrder == "" {
		return Order{}, false
	}
	i, err := s.findOrder(s.currentOrder)
	if err != nil {
		return Order{}, false
	}
	return s.orders[i].clone(), true
}

// UpdateOrder replaces the items of a pending order and recomputes its total.
func (s *Store) UpdateOrder(ctx context.Context, orderID string, items []CartItem) (Order, error) {
	for _, item := range items {
		if item.Quantity < 1 {
			return Order{}, Invalid(ErrInvalidQuantity, fmt.Sprintf("Quantity of %s must be at least 1", item.ID))
		}
	}
	if len(items) == 0 {
		return Order{}, Invalid(ErrValidation, "An order needs at least one item")
	}

	s.mu.Lock()
	i, err := s.findOrder(orderID)
	if err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	if s.orders[i].Status != StatusPending {
		status := s.orders[i].Status
		s.mu.Unlock()
		return Order{}, Precondition(ErrOrderNotEditable, fmt.Sprintf("Order %s is %s and can no longer be changed", orderID, status))
	}

	now := s.touch()
	s.orders[i].Items = append([]CartItem(nil), items...)
	s.orders[i].TotalAmount = Total(items)
	s.orders[i].UpdatedAt = now
	order := s.orders[i].clone()
	n := s.notify(fmt.Sprintf("Your order #%s has been updated!", orderID), NotificationInfo, now)

	events := s.orderEvents(EventOrderUpdated, order, n, now)
	s.mu.Unlock()

	s.publish(ctx, events)
	return order, nil
}

// CancelOrder cancels a pending order. Cancelling an order that is already
// cancelled succeeds without a new notification.
func (s *Store) CancelOrder(ctx context.Context, orderID string) (Order, error) {
	s.mu.Lock()
	i, err := s.findOrder(orderID)
	if err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	switch s.orders[i].Status {
	case StatusCancelled:
		order := s.orders[i].clone()
		s.mu.Unlock()
		return order, nil
	case StatusPending:
	default:
		status := s.orders[i].Status
		s.mu.Unlock()
		return Order{}, Precondition(ErrOrderNotEditable, fmt.Sprintf("Order %s is %s and can no longer be cancelled", orderID, status))
	}

	now := s.touch()
	s.orders[i].Status = StatusCancelled
	s.orders[i].UpdatedAt = now
	order := s.orders[i].clone()
	n := s.notify(fmt.Sprintf("Your order #%s has been cancelled.", orderID), NotificationWarning, now)

	events := s.orderEvents(EventOrderCancelled, order, n, now)
	s.mu.Unlock()

	s.publish(ctx, events)
	return order, nil
}

var statusMessages = map[Status]string{
	StatusConfirmed: "Your order #%s has been confirmed.",
	StatusPreparing: "Your order #%s is being prepared.",
	StatusReady:     "Your order #%s is ready!",
	StatusDelivered: "Your order #%s has been served. Enjoy your meal!",
}

// AdvanceOrder moves an order one step along the kitchen lifecycle. Setting
// the status the order already has is a no-op.
func (s *Store) AdvanceOrder(ctx context.Context, orderID string, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, Invalid(ErrValidation, fmt.Sprintf("Unknown order status %q", to))
	}
	if to == StatusCancelled {
		return s.CancelOrder(ctx, orderID)
	}

	s.mu.Lock()
	i, err := s.findOrder(orderID)
	if err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	from := s.orders[i].Status
	if from == to {
		order := s.orders[i].clone()
		s.mu.Unlock()
		return order, nil
	}
	if !from.CanTransition(to) {
		s.mu.Unlock()
		return Order{}, Precondition(ErrInvalidTransition, fmt.Sprintf("Order %s cannot move from %s to %s", orderID, from, to))
	}

	now := s.touch()
	s.orders[i].Status = to
	s.orders[i].UpdatedAt = now
	order := s.orders[i].clone()
	n := s.notify(fmt.Sprintf(statusMessages[to], orderID), NotificationInfo, now)

	events := s.orderEvents(EventOrderStatusUpdated, order, n, now)
	s.mu.Unlock()

	s.publish(ctx, events)
	return order, nil
}

// Notify prepends a free-form notification, used for waiter calls.
func (s *Store) Notify(ctx context.Context, message string, kind NotificationType) Notification {
	s.mu.Lock()
	now := s.touch()
	n := s.notify(message, kind, now)
	e := s.event(EventNotification, now)
	note := n
	e.Notification = &note
	s.mu.Unlock()

	s.publish(ctx, []Event{e})
	return n
}

func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *Store) MarkNotificationAsRead(id string) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return s.notifications[i], nil
		}
	}
	return Notification{}, NotFound(ErrNotificationNotFound, fmt.Sprintf("Notification %s not found", id))
}

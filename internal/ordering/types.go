package ordering

import (
	"time"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/utils"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// next is the forward path of the order lifecycle.
var next = map[Status]Status{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusDelivered,
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from s to to. Orders only
// move one step forward, and cancellation is allowed while pending.
func (s Status) CanTransition(to Status) bool {
	if to == StatusCancelled {
		return s == StatusPending
	}
	return next[s] == to
}

type CartItem struct {
	catalog.MenuItem
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
	StallID             string `json:"stallId,omitempty"`
}

func (c CartItem) LineTotal() float64 {
	return utils.FromCents(c.lineCents())
}

func (c CartItem) lineCents() int64 {
	return utils.ToCents(c.Price) * int64(c.Quantity)
}

// Total sums price × quantity in integer cents so repeated additions do not
// drift.
func Total(items []CartItem) float64 {
	var cents int64
	for _, item := range items {
		cents += item.lineCents()
	}
	return utils.FromCents(cents)
}

func ItemCount(items []CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

type Order struct {
	ID                    string     `json:"id"`
	VenueID               string     `json:"venueId"`
	TableID               string     `json:"tableId"`
	TableNumber           int        `json:"tableNumber"`
	Items                 []CartItem `json:"items"`
	Status                Status     `json:"status"`
	TotalAmount           float64    `json:"totalAmount"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
	EstimatedDeliveryTime *time.Time `json:"estimatedDeliveryTime,omitempty"`
}

func (o Order) Active() bool {
	return !o.Status.Terminal()
}

func (o Order) clone() Order {
	out := o
	out.Items = append([]CartItem(nil), o.Items...)
	if o.EstimatedDeliveryTime != nil {
		eta := *o.EstimatedDeliveryTime
		out.EstimatedDeliveryTime = &eta
	}
	return out
}

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type Notification struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Snapshot is a consistent copy of a store's state.
type Snapshot struct {
	Venue         *catalog.Venue        `json:"venue"`
	Table         *catalog.Table        `json:"table"`
	Cart          []CartItem            `json:"cart"`
	Orders        []Order               `json:"orders"`
	CurrentOrder  *Order                `json:"currentOrder"`
	Notifications []Notification        `json:"notifications"`
	DietaryFilter catalog.DietaryFilter `json:"dietaryFilter"`
}

package handlers

import (
	"math"
	"net/http"
	"time"

	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/pkg/response"
)

const (
	defaultPrepMinutes = 15
	maxWaitMinutes     = 60
)

type waitTimeResponse struct {
	OrderID        string          `json:"orderId"`
	Status         ordering.Status `json:"status"`
	QueueAhead     int             `json:"queueAhead"`
	MinMinutes     int             `json:"minMinutes"`
	MaxMinutes     int             `json:"maxMinutes"`
	ElapsedMinutes int             `json:"elapsedMinutes"`
	EstimatedAt    *time.Time      `json:"estimatedAt,omitempty"`
}

// OrdersWaitTime estimates how long an order still has to wait. The range
// widens with every order at the venue that was placed earlier and is not
// yet ready.
func (h *Handler) OrdersWaitTime(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	order, err := store.Order(readPathString(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	now := h.now()
	out := waitTimeResponse{
		OrderID:        order.ID,
		Status:         order.Status,
		ElapsedMinutes: clampWaitTimeInt(int(minutesBetween(order.CreatedAt, now)), 0, math.MaxInt32),
		EstimatedAt:    order.EstimatedDeliveryTime,
	}
	if isFinalStatus(order.Status) {
		response.Success(w, out)
		return
	}

	var queued []ordering.Order
	if h.Sessions != nil {
		queued = h.Sessions.VenueOrders(order.VenueID, ordering.StatusPending, ordering.StatusConfirmed, ordering.StatusPreparing)
	}
	out.QueueAhead = queueAhead(queued, order)
	out.MinMinutes, out.MaxMinutes = waitRange(basePrepMinutes(order), out.QueueAhead, out.ElapsedMinutes)
	response.Success(w, out)
}

// basePrepMinutes is the slowest item on the order.
func basePrepMinutes(order ordering.Order) int {
	prep := 0
	for _, item := range order.Items {
		if item.PreparationTime > prep {
			prep = item.PreparationTime
		}
	}
	if prep <= 0 {
		return defaultPrepMinutes
	}
	return clampWaitTimeInt(prep, 5, maxWaitMinutes)
}

func queueAhead(orders []ordering.Order, order ordering.Order) int {
	n := 0
	for _, o := range orders {
		if o.ID != order.ID && o.CreatedAt.Before(order.CreatedAt) {
			n++
		}
	}
	return n
}

// waitRange adds a fifth of the base time per queued order, then takes off
// what has already elapsed.
func waitRange(base, ahead, elapsed int) (int, int) {
	total := float64(base) * (1 + 0.2*float64(ahead))
	remaining := total - float64(elapsed)
	if remaining < 1 {
		remaining = 1
	}
	low := clampWaitTimeInt(int(math.Floor(remaining*0.75)), 1, maxWaitMinutes)
	high := clampWaitTimeInt(int(math.Ceil(remaining*1.25)), low, maxWaitMinutes)
	return low, high
}

func isFinalStatus(status ordering.Status) bool {
	return status == ordering.StatusReady || status.Terminal()
}

func minutesBetween(a time.Time, b time.Time) float64 {
	return b.Sub(a).Minutes()
}

func clampWaitTimeInt(value int, min int, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

package handlers

import (
	"net/http"
	"strings"

	"qrdine-order-service/internal/middleware"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/pkg/response"
)

// staffVenue resolves the venue a staff request targets. Staff bound to a
// venue may not look at another one.
func (h *Handler) staffVenue(w http.ResponseWriter, r *http.Request, venueID string) (*middleware.AuthContext, bool) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff access required")
		return nil, false
	}
	if venueID == "" {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "venueId is required")
		return nil, false
	}
	if authCtx.VenueID != "" && authCtx.VenueID != venueID {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this venue")
		return nil, false
	}
	return authCtx, true
}

// StaffDashboard returns the venue dashboard with the stats the caller's
// role may see.
func (h *Handler) StaffDashboard(w http.ResponseWriter, r *http.Request) {
	venueID := readPathString(r, "venueId")
	authCtx, ok := h.staffVenue(w, r, venueID)
	if !ok {
		return
	}
	venue, err := h.Catalog.ResolveVenue(r.Context(), venueID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, h.Sessions.VenueDashboard(venue).View(authCtx.Role))
}

// StaffOrders lists a venue's orders, optionally filtered by a
// comma-separated status list.
func (h *Handler) StaffOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	venueID := strings.TrimSpace(q.Get("venueId"))
	if venueID == "" {
		if authCtx, ok := middleware.GetAuthContext(r.Context()); ok {
			venueID = authCtx.VenueID
		}
	}
	if _, ok := h.staffVenue(w, r, venueID); !ok {
		return
	}

	var statuses []ordering.Status
	for _, raw := range strings.Split(q.Get("status"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		status := ordering.Status(raw)
		if !status.Valid() {
			response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Unknown order status "+raw)
			return
		}
		statuses = append(statuses, status)
	}
	response.Success(w, h.Sessions.VenueOrders(venueID, statuses...))
}

type orderStatusRequest struct {
	Status ordering.Status `json:"status"`
}

// StaffUpdateOrderStatus moves an order along its lifecycle from the staff
// dashboard.
func (h *Handler) StaffUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body orderStatusRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	orderID := readPathString(r, "orderId")
	_, current, err := h.Sessions.FindOrder(orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, ok := h.staffVenue(w, r, current.VenueID); !ok {
		return
	}
	order, err := h.Sessions.AdvanceOrder(r.Context(), orderID, body.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, order)
}

// StaffWaiterCalls lists the open waiter calls of a venue.
func (h *Handler) StaffWaiterCalls(w http.ResponseWriter, r *http.Request) {
	venueID := strings.TrimSpace(r.URL.Query().Get("venueId"))
	if venueID == "" {
		if authCtx, ok := middleware.GetAuthContext(r.Context()); ok {
			venueID = authCtx.VenueID
		}
	}
	if _, ok := h.staffVenue(w, r, venueID); !ok {
		return
	}
	calls := h.Waiter.ActiveAt(venueID)
	out := make([]waiterCallResponse, 0, len(calls))
	for _, c := range calls {
		out = append(out, h.waiterCall(c))
	}
	response.Success(w, out)
}

// StaffAnswerWaiterCall closes a table's call once someone has gone over.
func (h *Handler) StaffAnswerWaiterCall(w http.ResponseWriter, r *http.Request) {
	sessionID := readPathString(r, "sessionId")
	call, active := h.Waiter.Active(sessionID)
	if !active {
		response.Error(w, http.StatusNotFound, "WAITER_CALL_NOT_FOUND", "No open waiter call for this table")
		return
	}
	if _, ok := h.staffVenue(w, r, call.VenueID); !ok {
		return
	}
	h.Waiter.Cancel(r.Context(), sessionID)
	if store, err := h.Sessions.Get(sessionID); err == nil {
		store.Notify(r.Context(), "A waiter is on the way to your table", ordering.NotificationSuccess)
	}
	w.WriteHeader(http.StatusNoContent)
}

// StaffMetrics reports request latency percentiles per route.
func (h *Handler) StaffMetrics(w http.ResponseWriter, r *http.Request) {
	routes := make([]middleware.RouteLatency, 0)
	if h.Latency != nil {
		routes = h.Latency.Snapshot()
	}
	response.Success(w, map[string]any{
		"routes":         routes,
		"activeSessions": h.Sessions.Len(),
	})
}

package handlers

import (
	"net/http"

	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/waiter"
	"qrdine-order-service/pkg/response"
)

type waiterCallResponse struct {
	waiter.Call
	ElapsedSeconds   int `json:"elapsedSeconds"`
	RemainingSeconds int `json:"remainingSeconds"`
}

func (h *Handler) waiterCall(call waiter.Call) waiterCallResponse {
	now := h.now()
	remaining := call.ExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return waiterCallResponse{
		Call:             call,
		ElapsedSeconds:   int(call.Elapsed(now).Seconds()),
		RemainingSeconds: int(remaining.Seconds()),
	}
}

func (h *Handler) waiterTable(store *ordering.Store) (waiter.Table, error) {
	venue, table, err := requireSeat(store)
	if err != nil {
		return waiter.Table{}, err
	}
	return waiter.Table{
		SessionID:   store.SessionID(),
		VenueID:     venue.ID,
		TableID:     table.ID,
		TableNumber: table.Number,
	}, nil
}

// WaiterCall asks staff to come to the table. Calling again while a call is
// open returns the open call.
func (h *Handler) WaiterCall(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	table, err := h.waiterTable(store)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	call, err := h.Waiter.Call(r.Context(), table)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, h.waiterCall(call))
}

func (h *Handler) WaiterGet(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	call, active := h.Waiter.Active(store.SessionID())
	if !active {
		response.Success(w, map[string]any{"active": false})
		return
	}
	response.Success(w, map[string]any{"active": true, "call": h.waiterCall(call)})
}

func (h *Handler) WaiterCancel(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	response.Success(w, map[string]any{"cancelled": h.Waiter.Cancel(r.Context(), store.SessionID())})
}

type waiterMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) WaiterMessage(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var body waiterMessageRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	table, err := h.waiterTable(store)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Waiter.SendMessage(r.Context(), table, body.Message); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"sent": true})
}

package handlers

import (
	"net/http"
	"strings"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/qr"
	"qrdine-order-service/pkg/response"
)

func (h *Handler) SessionGet(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	response.Success(w, store.Snapshot())
}

// SessionMenu returns the menu of the selected venue or stall, filtered by
// the session's dietary filter unless ?diet= overrides it.
func (h *Handler) SessionMenu(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	items, err := store.Menu()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mq, err := menuQuery(r, store.DietaryFilter())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, catalog.BuildMenuView(items, mq))
}

type scanRequest struct {
	Payload string `json:"payload"`
}

// SessionScan seats the session from decoded QR text, for clients that run
// the camera themselves.
func (h *Handler) SessionScan(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var body scanRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	payload, err := qr.Parse(body.Payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.seat(r, store, payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, h.scanResult(res))
}

type selectVenueRequest struct {
	VenueID string `json:"venueId"`
}

func (h *Handler) SessionSelectVenue(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var body selectVenueRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	venue, err := h.Catalog.ResolveVenue(r.Context(), strings.TrimSpace(body.VenueID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	store.SelectVenue(venue)
	response.Success(w, store.Snapshot())
}

type selectTableRequest struct {
	TableID string `json:"tableId"`
}

func (h *Handler) SessionSelectTable(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var body selectTableRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	table, err := store.SelectTableByID(strings.TrimSpace(body.TableID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, table)
}

type selectStallRequest struct {
	StallID string `json:"stallId"`
}

func (h *Handler) SessionSelectStall(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var body selectStallRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	if err := store.SelectStall(strings.TrimSpace(body.StallID)); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, store.Snapshot())
}

func (h *Handler) SessionLockTable(w http.ResponseWriter, r *http.Request) {
	h.setTableLock(w, r, true)
}

func (h *Handler) SessionUnlockTable(w http.ResponseWriter, r *http.Request) {
	h.setTableLock(w, r, false)
}

func (h *Handler) setTableLock(w http.ResponseWriter, r *http.Request, locked bool) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	tableID := readPathString(r, "tableId")
	var err error
	if locked {
		err = store.LockTable(tableID)
	} else {
		err = store.UnlockTable(tableID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"tableId": tableID, "isLocked": locked})
}

type dietaryFilterRequest struct {
	DietaryFilter catalog.DietaryFilter `json:"dietaryFilter"`
}

func (h *Handler) SessionSetDietaryFilter(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var body dietaryFilterRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	if err := store.SetDietaryFilter(body.DietaryFilter); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"dietaryFilter": store.DietaryFilter()})
}

// SessionClose ends the session. An active waiter call is cancelled by the
// registry's close hook.
func (h *Handler) SessionClose(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	h.Sessions.Close(store.SessionID())
	w.WriteHeader(http.StatusNoContent)
}

// requireSeat returns the venue and table a session is seated at.
func requireSeat(store *ordering.Store) (catalog.Venue, catalog.Table, error) {
	venue, ok := store.Venue()
	if !ok {
		return catalog.Venue{}, catalog.Table{}, ordering.Precondition(ordering.ErrNoVenueSelected, "Select a venue first")
	}
	table, ok := store.Table()
	if !ok {
		return catalog.Venue{}, catalog.Table{}, ordering.Precondition(ordering.ErrNoTableSelected, "Select a table first")
	}
	return venue, table, nil
}

package handlers

import (
	"net/http"
	"strings"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/promo"
	"qrdine-order-service/internal/qr"
	"qrdine-order-service/internal/receipt"
	"qrdine-order-service/internal/scan"
	"qrdine-order-service/internal/utils"
	"qrdine-order-service/pkg/response"
)

type scanResponse struct {
	Venue        catalog.Summary `json:"venue"`
	Table        catalog.Table   `json:"table"`
	TableMatched bool            `json:"tableMatched"`
}

func (h *Handler) scanResult(res scan.Resolution) scanResponse {
	return scanResponse{Venue: res.Venue.Summary(h.now()), Table: res.Table, TableMatched: res.TableMatched}
}

// seat resolves a payload and selects its venue and table on the session.
func (h *Handler) seat(r *http.Request, store *ordering.Store, payload qr.Payload) (scan.Resolution, error) {
	res, err := scan.Resolve(r.Context(), h.Catalog, payload)
	if err != nil {
		return scan.Resolution{}, err
	}
	store.SelectVenue(res.Venue)
	store.SelectTable(res.Table)
	return res, nil
}

// PublicScan resolves a scanned link (?merchant=&table=) without a session,
// so a client can show the venue before signing in.
func (h *Handler) PublicScan(w http.ResponseWriter, r *http.Request) {
	payload, err := qr.FromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := scan.Resolve(r.Context(), h.Catalog, payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, h.scanResult(res))
}

func (h *Handler) PublicVenues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	venues, err := catalog.SearchVenues(r.Context(), h.Catalog, catalog.VenueFilter{
		Query:   strings.TrimSpace(q.Get("q")),
		Country: strings.TrimSpace(q.Get("country")),
		State:   strings.TrimSpace(q.Get("state")),
		City:    strings.TrimSpace(q.Get("city")),
		Pincode: strings.TrimSpace(q.Get("pincode")),
	}, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, venues)
}

func (h *Handler) PublicVenue(w http.ResponseWriter, r *http.Request) {
	venue, err := h.Catalog.ResolveVenue(r.Context(), readPathString(r, "venueId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]any{
		"venue":  venue.Summary(h.now()),
		"stalls": venue.Stalls,
	})
}

func menuQuery(r *http.Request, fallback catalog.DietaryFilter) (catalog.MenuQuery, error) {
	q := r.URL.Query()
	diet := fallback
	if v := strings.TrimSpace(q.Get("diet")); v != "" {
		diet = catalog.DietaryFilter(v)
		if !diet.Valid() {
			return catalog.MenuQuery{}, ordering.Invalid(ordering.ErrInvalidDietaryFilter, "Diet must be all, veg or nonveg")
		}
	}
	return catalog.MenuQuery{Diet: diet, Query: strings.TrimSpace(q.Get("q")), Tag: strings.TrimSpace(q.Get("tag"))}, nil
}

// PublicVenueMenu returns the menu of a venue, or of one stall with
// ?stallId= for food courts.
func (h *Handler) PublicVenueMenu(w http.ResponseWriter, r *http.Request) {
	venue, err := h.Catalog.ResolveVenue(r.Context(), readPathString(r, "venueId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if stallID := strings.TrimSpace(r.URL.Query().Get("stallId")); stallID != "" {
		if _, ok := venue.Stall(stallID); !ok {
			response.Error(w, http.StatusNotFound, string(ordering.ErrStallNotFound), "Stall not found")
			return
		}
		venue.CurrentStallID = stallID
	}
	mq, err := menuQuery(r, catalog.DietAll)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, catalog.BuildMenuView(catalog.EffectiveMenu(venue), mq))
}

// PublicVenueTables lists the tables a guest may pick.
func (h *Handler) PublicVenueTables(w http.ResponseWriter, r *http.Request) {
	venue, err := h.Catalog.ResolveVenue(r.Context(), readPathString(r, "venueId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, catalog.SelectableTables(venue.Tables))
}

func (h *Handler) PublicPromotions(w http.ResponseWriter, r *http.Request) {
	response.Success(w, promo.Active(h.Promotions, h.now()))
}

// PublicReceipt serves a receipt through a signed link, for sharing or
// printing outside the session.
func (h *Handler) PublicReceipt(w http.ResponseWriter, r *http.Request) {
	claims, err := utils.ParseReceiptToken(h.Config.ReceiptTokenSecret, readPathString(r, "token"), h.now())
	if err != nil {
		response.Error(w, http.StatusNotFound, string(ordering.ErrOrderNotFound), "Receipt link is invalid or expired")
		return
	}
	store, err := h.Sessions.Get(claims.SessionID)
	if err != nil {
		response.Error(w, http.StatusNotFound, string(ordering.ErrOrderNotFound), "Receipt is no longer available")
		return
	}
	h.renderReceipt(w, r, store, claims.OrderID)
}

func (h *Handler) receiptPDF(r *http.Request, store *ordering.Store, orderID string) (ordering.Order, []byte, error) {
	order, err := store.Order(orderID)
	if err != nil {
		return ordering.Order{}, nil, err
	}
	venue, err := h.Catalog.ResolveVenue(r.Context(), order.VenueID)
	if err != nil {
		return ordering.Order{}, nil, err
	}
	buf, err := receipt.Render(receipt.Build(venue, order, h.Config.TaxRate))
	if err != nil {
		return ordering.Order{}, nil, err
	}
	return order, buf.Bytes(), nil
}

func (h *Handler) renderReceipt(w http.ResponseWriter, r *http.Request, store *ordering.Store, orderID string) {
	order, pdf, err := h.receiptPDF(r, store, orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.PDF(w, "receipt-"+order.ID+".pdf", pdf)
}

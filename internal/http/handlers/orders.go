package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/utils"
	"qrdine-order-service/pkg/response"
)

func (h *Handler) OrdersList(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	orders := store.Orders()
	if r.URL.Query().Get("active") == "true" {
		orders = ordering.ActiveOrders(orders)
	}
	response.Success(w, orders)
}

// OrdersPlace turns the cart into an order.
func (h *Handler) OrdersPlace(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	order, err := store.PlaceOrder(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, order)
}

// OrdersCurrent returns the most recently placed order.
func (h *Handler) OrdersCurrent(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	order, found := store.CurrentOrder()
	if !found {
		response.Error(w, http.StatusNotFound, string(ordering.ErrOrderNotFound), "No order has been placed yet")
		return
	}
	response.Success(w, order)
}

func (h *Handler) OrdersGet(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	order, err := store.Order(readPathString(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, order)
}

type orderItemRequest struct {
	MenuItemID          string `json:"menuItemId"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"specialInstructions"`
}

type updateOrderRequest struct {
	Items []orderItemRequest `json:"items"`
}

// OrdersUpdate replaces the items of a pending order. Items already on the
// order keep their stall; new items are looked up in the venue menus.
func (h *Handler) OrdersUpdate(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var body updateOrderRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	orderID := readPathString(r, "orderId")
	current, err := store.Order(orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	venue, err := h.Catalog.ResolveVenue(r.Context(), current.VenueID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]ordering.CartItem, 0, len(body.Items))
	for _, req := range body.Items {
		line, err := orderLine(current, venue, req)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		items = append(items, line)
	}

	order, err := store.UpdateOrder(r.Context(), orderID, items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, order)
}

func orderLine(current ordering.Order, venue catalog.Venue, req orderItemRequest) (ordering.CartItem, error) {
	id := strings.TrimSpace(req.MenuItemID)
	line := ordering.CartItem{Quantity: req.Quantity, SpecialInstructions: strings.TrimSpace(req.SpecialInstructions)}
	for _, existing := range current.Items {
		if existing.ID == id {
			line.MenuItem = existing.MenuItem
			line.StallID = existing.StallID
			return line, nil
		}
	}
	if item, ok := catalog.FindMenuItem(venue.Menu, id); ok {
		line.MenuItem = item
		return line, nil
	}
	for _, stall := range venue.Stalls {
		if item, ok := catalog.FindMenuItem(stall.Menu, id); ok {
			line.MenuItem = item
			line.StallID = stall.ID
			return line, nil
		}
	}
	return ordering.CartItem{}, ordering.NotFound(ordering.ErrMenuItemNotFound, fmt.Sprintf("Menu item %s not found", id))
}

func (h *Handler) OrdersCancel(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	order, err := store.CancelOrder(r.Context(), readPathString(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, order)
}

// OrdersReceipt renders the receipt PDF of an order.
func (h *Handler) OrdersReceipt(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	h.renderReceipt(w, r, store, readPathString(r, "orderId"))
}

// OrdersReceiptArchive uploads the receipt to object storage and returns its
// link.
func (h *Handler) OrdersReceiptArchive(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if h.Receipts == nil {
		response.Error(w, http.StatusServiceUnavailable, "RECEIPT_STORAGE_DISABLED", "Receipt storage is not configured")
		return
	}
	order, pdf, err := h.receiptPDF(r, store, readPathString(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	url, err := h.Receipts.ArchiveReceipt(r.Context(), order.VenueID, order.ID, pdf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, map[string]any{"orderId": order.ID, "url": url})
}

// OrdersReceiptLink signs a link that serves the receipt without the
// session token.
func (h *Handler) OrdersReceiptLink(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	order, err := store.Order(readPathString(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	expiresAt := h.now().Add(h.Config.ReceiptTokenTTL)
	token := utils.CreateReceiptToken(h.Config.ReceiptTokenSecret, utils.ReceiptClaims{
		SessionID: store.SessionID(),
		OrderID:   order.ID,
		ExpiresAt: expiresAt,
	})
	response.Success(w, map[string]any{
		"token":     token,
		"path":      "/api/public/receipts/" + token,
		"expiresAt": expiresAt,
	})
}

package handlers

import (
	"net/http"
	"strings"

	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/pkg/response"
)

type cartResponse struct {
	Items  []ordering.CartItem `json:"items"`
	Totals ordering.Totals     `json:"totals"`
}

func (h *Handler) cartResponse(items []ordering.CartItem) cartResponse {
	if items == nil {
		items = make([]ordering.CartItem, 0)
	}
	return cartResponse{Items: items, Totals: ordering.ComputeTotals(items, h.Config.TaxRate)}
}

func (h *Handler) CartGet(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	response.Success(w, h.cartResponse(store.Cart()))
}

type addCartItemRequest struct {
	MenuItemID          string `json:"menuItemId"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"specialInstructions"`
}

// CartAdd adds a menu item of the selected venue or stall. Adding an item
// already in the cart replaces its quantity.
func (h *Handler) CartAdd(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var body addCartItemRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}
	items, err := store.AddMenuItem(r.Context(), strings.TrimSpace(body.MenuItemID), body.Quantity, body.SpecialInstructions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, h.cartResponse(items))
}

type updateCartItemRequest struct {
	Quantity            int     `json:"quantity"`
	SpecialInstructions *string `json:"specialInstructions"`
}

// CartUpdate sets the quantity of a line; zero removes it.
func (h *Handler) CartUpdate(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var body updateCartItemRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	items, err := store.UpdateCartItem(r.Context(), readPathString(r, "itemId"), body.Quantity, body.SpecialInstructions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, h.cartResponse(items))
}

func (h *Handler) CartRemove(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	response.Success(w, h.cartResponse(store.RemoveFromCart(r.Context(), readPathString(r, "itemId"))))
}

func (h *Handler) CartClear(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.ClearCart(r.Context())
	response.Success(w, h.cartResponse(nil))
}

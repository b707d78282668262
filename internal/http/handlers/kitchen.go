package handlers

import (
	"net/http"

	"qrdine-order-service/pkg/response"
)

// KitchenUpdateOrderStatus is the kitchen display system's status hook. The
// same change can arrive through the kitchen status queue.
func (h *Handler) KitchenUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body orderStatusRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	order, err := h.Sessions.AdvanceOrder(r.Context(), readPathString(r, "orderId"), body.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, order)
}

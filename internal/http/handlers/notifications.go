package handlers

import (
	"net/http"

	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/pkg/response"
)

func (h *Handler) NotificationsList(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	items := store.Notifications()
	response.Success(w, map[string]any{
		"items":       items,
		"unreadCount": ordering.UnreadCount(items),
	})
}

func (h *Handler) NotificationsMarkRead(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	n, err := store.MarkNotificationAsRead(readPathString(r, "notificationId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, n)
}

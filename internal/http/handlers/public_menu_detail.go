package handlers

import (
	"net/http"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/pkg/response"
)

type menuItemDetail struct {
	catalog.MenuItem
	VenueID   string `json:"venueId"`
	StallID   string `json:"stallId,omitempty"`
	StallName string `json:"stallName,omitempty"`
}

// PublicMenuItem returns one menu item of a venue, searching the venue menu
// first and then every stall.
func (h *Handler) PublicMenuItem(w http.ResponseWriter, r *http.Request) {
	venue, err := h.Catalog.ResolveVenue(r.Context(), readPathString(r, "venueId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	detail, ok := findMenuItemDetail(venue, readPathString(r, "itemId"))
	if !ok {
		response.Error(w, http.StatusNotFound, string(ordering.ErrMenuItemNotFound), "Menu item not found")
		return
	}
	response.Success(w, detail)
}

func findMenuItemDetail(venue catalog.Venue, itemID string) (menuItemDetail, bool) {
	if itemID == "" {
		return menuItemDetail{}, false
	}
	if item, ok := catalog.FindMenuItem(venue.Menu, itemID); ok {
		return menuItemDetail{MenuItem: item, VenueID: venue.ID}, true
	}
	for _, stall := range venue.Stalls {
		if item, ok := catalog.FindMenuItem(stall.Menu, itemID); ok {
			return menuItemDetail{MenuItem: item, VenueID: venue.ID, StallID: stall.ID, StallName: stall.Name}, true
		}
	}
	return menuItemDetail{}, false
}

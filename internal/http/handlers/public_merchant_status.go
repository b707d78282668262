package handlers

import (
	"net/http"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/utils"
	"qrdine-order-service/pkg/response"
)

type venueStatus struct {
	VenueID         string         `json:"venueId"`
	IsOpen          bool           `json:"isOpen"`
	LocalTime       string         `json:"localTime"`
	Timezone        string         `json:"timezone"`
	Hours           *catalog.Hours `json:"hours,omitempty"`
	SelectableCount int            `json:"selectableTables"`
	TotalTables     int            `json:"totalTables"`
}

// PublicVenueStatus reports whether a venue is open at its local time and
// how many tables can still be chosen.
func (h *Handler) PublicVenueStatus(w http.ResponseWriter, r *http.Request) {
	venue, err := h.Catalog.ResolveVenue(r.Context(), readPathString(r, "venueId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tz := venue.Timezone
	if tz == "" {
		tz = "UTC"
	}
	now := h.now()
	response.Success(w, venueStatus{
		VenueID:         venue.ID,
		IsOpen:          venue.IsOpenAt(now),
		LocalTime:       utils.CurrentTimeInTimezone(tz, now),
		Timezone:        tz,
		Hours:           venue.Hours,
		SelectableCount: len(catalog.SelectableTables(venue.Tables)),
		TotalTables:     len(venue.Tables),
	})
}

package ws

import (
	"net/http"
	"strings"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/waiter"
)

// StaffVenueWS streams order and waiter events of one venue to staff
// dashboards. Query: venueId, token.
func (s *Server) StaffVenueWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	claims, err := s.verify(r)
	if err != nil || !claims.Role.IsStaff() || !auth.HasPermission(claims.Role, auth.PermDashboard) {
		writeError(conn, "UNAUTHORIZED", "unauthorized")
		return
	}

	venueID := strings.TrimSpace(r.URL.Query().Get("venueId"))
	if venueID == "" {
		venueID = claims.VenueID
	}
	if venueID == "" || (claims.VenueID != "" && claims.VenueID != venueID) {
		writeError(conn, "FORBIDDEN", "venue not allowed")
		return
	}

	ctx := r.Context()
	venue, err := s.Catalog.ResolveVenue(ctx, venueID)
	if err != nil {
		writeError(conn, "VENUE_NOT_FOUND", "venue not found")
		return
	}

	client := &wsRealtimeClient{conn: conn}
	unsubscribe := s.venueHub.subscribe(venue.ID, client)
	defer unsubscribe()

	if s.Sessions != nil {
		_ = client.writeJSON(message{Type: "dashboard.state", Data: s.Sessions.VenueDashboard(venue).View(claims.Role)})
	}
	if s.Waiter != nil && auth.HasPermission(claims.Role, auth.PermTablesBooked) {
		calls := s.Waiter.ActiveAt(venue.ID)
		if calls == nil {
			calls = make([]waiter.Call, 0)
		}
		_ = client.writeJSON(message{Type: "waiter.calls", Data: calls})
	}

	s.serve(ctx, client, nil)
}

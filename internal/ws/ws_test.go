package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/config"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/promo"
	"qrdine-order-service/internal/session"

	"github.com/gorilla/websocket"
)

const testSecret = "ws-secret"

type env struct {
	srv      *Server
	registry *session.Registry
	http     *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	venues, err := catalog.LoadSeed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := New(nil, config.Config{JWTSecret: testSecret, WSHeartbeatInterval: time.Second, PromoRotateInterval: time.Hour})
	srv.Catalog = catalog.NewMemoryProvider(venues, 0)
	srv.Sessions = session.NewRegistry(nil, time.Hour, session.WithStoreOptions(ordering.WithPublisher(srv)))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/session", srv.SessionWS)
	mux.HandleFunc("/ws/session/scan", srv.ScanWS)
	mux.HandleFunc("/ws/staff/venue", srv.StaffVenueWS)
	mux.HandleFunc("/ws/public/promotions", srv.PromotionsWS)
	hs := httptest.NewServer(mux)
	t.Cleanup(hs.Close)
	return &env{srv: srv, registry: srv.Sessions, http: hs}
}

func (e *env) dial(t *testing.T, path string, claims *auth.Claims) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + path
	if claims != nil {
		tok, err := auth.IssueAccessToken(*claims, testSecret, time.Hour, time.Now())
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		url += sep + "token=" + tok
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Type string          `json:"type"`
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

// readUntil skips frames until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	for i := 0; i < 10; i++ {
		if f := read(t, conn); f.Type == typ {
			return f
		}
	}
	t.Fatalf("no %s frame", typ)
	return frame{}
}

func TestSessionWSStreamsEvents(t *testing.T) {
	e := newEnv(t)
	store := e.registry.Create()
	conn := e.dial(t, "/ws/session", &auth.Claims{SessionID: store.SessionID(), Role: auth.RoleGuest})

	if f := read(t, conn); f.Type != "session.state" {
		t.Fatalf("expected session state first, got %s", f.Type)
	}

	venue, _ := e.srv.Catalog.ResolveVenue(context.Background(), "rest-1")
	store.SelectVenue(venue)
	store.SelectTable(venue.Tables[0])
	if _, err := store.AddMenuItem(context.Background(), "v1", 1, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	readUntil(t, conn, string(ordering.EventCartUpdated))

	if _, err := store.PlaceOrder(context.Background()); err != nil {
		t.Fatalf("place: %v", err)
	}
	readUntil(t, conn, string(ordering.EventOrderPlaced))
	readUntil(t, conn, string(ordering.EventNotification))
}

func TestSessionWSRejectsUnknownSession(t *testing.T) {
	e := newEnv(t)
	conn := e.dial(t, "/ws/session", &auth.Claims{SessionID: "missing", Role: auth.RoleGuest})
	if f := read(t, conn); f.Type != "error" || f.Code != "UNAUTHORIZED" {
		t.Fatalf("expected unauthorized, got %+v", f)
	}
}

func TestScanWSSeatsSession(t *testing.T) {
	e := newEnv(t)
	store := e.registry.Create()
	conn := e.dial(t, "/ws/session/scan", &auth.Claims{SessionID: store.SessionID(), Role: auth.RoleGuest})
	read(t, conn)

	_ = conn.WriteJSON(scanCommand{Type: "frame", Data: ""})
	_ = conn.WriteJSON(scanCommand{Type: "frame", Data: "rest-1:table-3-qr"})

	f := read(t, conn)
	if f.Type != "scan.result" {
		t.Fatalf("expected scan result, got %+v", f)
	}
	table, ok := store.Table()
	if !ok || table.ID != "table-3" {
		t.Fatalf("session must be seated at table-3, got %+v", table)
	}
}

func TestScanWSPermissionDenied(t *testing.T) {
	e := newEnv(t)
	store := e.registry.Create()
	conn := e.dial(t, "/ws/session/scan", &auth.Claims{SessionID: store.SessionID(), Role: auth.RoleGuest})
	read(t, conn)

	_ = conn.WriteJSON(scanCommand{Type: "denied"})
	f := read(t, conn)
	if f.Type != "scan.error" || f.Code != string(ordering.ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %+v", f)
	}
	if _, ok := store.Venue(); ok {
		t.Fatalf("denied scan must not seat the session")
	}
}

func TestStaffVenueWS(t *testing.T) {
	e := newEnv(t)
	conn := e.dial(t, "/ws/staff/venue?venueId=rest-1", &auth.Claims{Role: auth.RoleKitchen})

	f := read(t, conn)
	if f.Type != "dashboard.state" {
		t.Fatalf("expected dashboard, got %+v", f)
	}
	var view session.DashboardView
	if err := json.Unmarshal(f.Data, &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.TablesBooked != nil || view.WaitingOrders == nil {
		t.Fatalf("kitchen view must hide tables and show waiting orders: %+v", view)
	}

	store := e.registry.Create()
	venue, _ := e.srv.Catalog.ResolveVenue(context.Background(), "rest-1")
	store.SelectVenue(venue)
	store.SelectTable(venue.Tables[0])
	_, _ = store.AddMenuItem(context.Background(), "v1", 1, "")
	if _, err := store.PlaceOrder(context.Background()); err != nil {
		t.Fatalf("place: %v", err)
	}
	readUntil(t, conn, string(ordering.EventOrderPlaced))
}

func TestStaffVenueWSRejectsOtherVenue(t *testing.T) {
	e := newEnv(t)
	conn := e.dial(t, "/ws/staff/venue?venueId=fc-1", &auth.Claims{Role: auth.RoleWaiter, VenueID: "rest-1"})
	if f := read(t, conn); f.Type != "error" || f.Code != "FORBIDDEN" {
		t.Fatalf("expected forbidden, got %+v", f)
	}
}

func TestPromotionsWS(t *testing.T) {
	e := newEnv(t)
	promos, err := promo.LoadSeed()
	if err != nil {
		t.Fatalf("promos: %v", err)
	}
	e.srv.Promotions = promos
	conn := e.dial(t, "/ws/public/promotions", nil)

	var slide promo.Slide
	f := read(t, conn)
	_ = json.Unmarshal(f.Data, &slide)
	if f.Type != "promo.slide" || slide.Index != 0 || slide.Total != 3 {
		t.Fatalf("unexpected first slide %+v", slide)
	}

	_ = conn.WriteJSON(promoCommand{Type: "prev"})
	f = read(t, conn)
	_ = json.Unmarshal(f.Data, &slide)
	if slide.Index != 2 {
		t.Fatalf("prev must wrap to the last slide, got %d", slide.Index)
	}

	_ = conn.WriteJSON(promoCommand{Type: "pause"})
	f = read(t, conn)
	_ = json.Unmarshal(f.Data, &slide)
	if !slide.Paused {
		t.Fatalf("expected paused slide")
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/qr"
	"qrdine-order-service/internal/scan"

	"go.uber.org/zap"
)

func TestWriteError(t *testing.T) {
	h := &Handler{Logger: zap.NewNop()}
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "domain", err: ordering.Precondition(ordering.ErrEmptyCart, "empty"), status: http.StatusConflict, code: "EMPTY_CART"},
		{name: "wrapped venue", err: fmt.Errorf("%w: x", catalog.ErrVenueNotFound), status: http.StatusNotFound, code: "VENUE_NOT_FOUND"},
		{name: "no table", err: scan.ErrNoTableAvailable, status: http.StatusNotFound, code: "TABLE_NOT_FOUND"},
		{name: "malformed qr", err: fmt.Errorf("%w: bad", qr.ErrMalformedPayload), status: http.StatusBadRequest, code: "MALFORMED_QR"},
		{name: "camera", err: scan.ErrPermissionDenied, status: http.StatusForbidden, code: "CAMERA_PERMISSION_DENIED"},
		{name: "email taken", err: auth.ErrEmailTaken, status: http.StatusConflict, code: "EMAIL_TAKEN"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, body.Error)
			}
		})
	}
}

func TestOrderLine(t *testing.T) {
	burger := catalog.MenuItem{ID: "b1", Name: "Burger", Price: 9}
	salad := catalog.MenuItem{ID: "s1", Name: "Salad", Price: 6}
	noodles := catalog.MenuItem{ID: "n1", Name: "Noodles", Price: 7}
	venue := catalog.Venue{
		ID:     "fc",
		Menu:   []catalog.MenuItem{salad},
		Stalls: []catalog.Stall{{ID: "stall-a", Menu: []catalog.MenuItem{noodles}}},
	}
	current := ordering.Order{Items: []ordering.CartItem{{MenuItem: burger, Quantity: 1, StallID: "stall-b"}}}

	cases := []struct {
		id        string
		wantStall string
		wantErr   bool
	}{
		{id: "b1", wantStall: "stall-b"},
		{id: "s1", wantStall: ""},
		{id: "n1", wantStall: "stall-a"},
		{id: "zz", wantErr: true},
	}
	for _, tc := range cases {
		line, err := orderLine(current, venue, orderItemRequest{MenuItemID: tc.id, Quantity: 2})
		if tc.wantErr {
			if ordering.CodeOf(err) != ordering.ErrMenuItemNotFound {
				t.Fatalf("%s: expected menu item not found, got %v", tc.id, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.id, err)
		}
		if line.ID != tc.id || line.StallID != tc.wantStall || line.Quantity != 2 {
			t.Fatalf("%s: unexpected line %+v", tc.id, line)
		}
	}
}

func TestWaitRange(t *testing.T) {
	cases := []struct {
		name                 string
		base, ahead, elapsed int
		low, high            int
	}{
		{name: "empty queue", base: 20, ahead: 0, elapsed: 0, low: 15, high: 25},
		{name: "two ahead", base: 20, ahead: 2, elapsed: 0, low: 21, high: 35},
		{name: "elapsed", base: 20, ahead: 0, elapsed: 12, low: 6, high: 10},
		{name: "overdue", base: 10, ahead: 0, elapsed: 30, low: 1, high: 2},
		{name: "capped", base: 60, ahead: 5, elapsed: 0, low: 60, high: 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			low, high := waitRange(tc.base, tc.ahead, tc.elapsed)
			if low != tc.low || high != tc.high {
				t.Fatalf("expected %d-%d, got %d-%d", tc.low, tc.high, low, high)
			}
		})
	}
}

func TestQueueAhead(t *testing.T) {
	now := time.Now()
	order := ordering.Order{ID: "o-2", CreatedAt: now}
	orders := []ordering.Order{
		{ID: "o-1", CreatedAt: now.Add(-time.Minute)},
		order,
		{ID: "o-3", CreatedAt: now.Add(time.Minute)},
	}
	if got := queueAhead(orders, order); got != 1 {
		t.Fatalf("expected 1 order ahead, got %d", got)
	}
	if got := basePrepMinutes(ordering.Order{}); got != defaultPrepMinutes {
		t.Fatalf("expected default prep time, got %d", got)
	}
}

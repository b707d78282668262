package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/ordering"
)

const secret = "test-secret"

type lookup map[string]*ordering.Store

func (l lookup) Get(id string) (*ordering.Store, error) {
	if s, ok := l[id]; ok {
		return s, nil
	}
	return nil, ordering.NotFound(ordering.ErrSessionNotFound, "not found")
}

func token(t *testing.T, claims auth.Claims) string {
	t.Helper()
	tok, err := auth.IssueAccessToken(claims, secret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-Id", "corr-1")
	if got := serve(h, req).Header().Get(RequestIDHeader); got != "corr-1" {
		t.Fatalf("expected correlation id to be reused, got %q", got)
	}
}

func TestSessionAuth(t *testing.T) {
	store := ordering.NewStore("sess-1")
	var seen *ordering.Store
	h := SessionAuth(lookup{"sess-1": store}, secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetStore(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing token", header: "", want: http.StatusUnauthorized},
		{name: "staff token", header: "Bearer " + token(t, auth.Claims{Role: auth.RoleAdmin}), want: http.StatusForbidden},
		{name: "unknown session", header: "Bearer " + token(t, auth.Claims{SessionID: "gone", Role: auth.RoleGuest}), want: http.StatusUnauthorized},
		{name: "guest session", header: "Bearer " + token(t, auth.Claims{SessionID: "sess-1", Role: auth.RoleGuest}), want: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if rec := serve(h, req); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
	if seen != store {
		t.Fatalf("handler must receive the session store")
	}
}

func TestStaffAuthPermissions(t *testing.T) {
	h := StaffAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name string
		role auth.UserRole
		path string
		want int
	}{
		{name: "kitchen dashboard", role: auth.RoleKitchen, path: "/api/staff/venues/rest-1/dashboard", want: http.StatusOK},
		{name: "kitchen waiter calls", role: auth.RoleKitchen, path: "/api/staff/waiter-calls", want: http.StatusForbidden},
		{name: "waiter waiter calls", role: auth.RoleWaiter, path: "/api/staff/waiter-calls", want: http.StatusOK},
		{name: "guest", role: auth.RoleGuest, path: "/api/staff/venues/rest-1/dashboard", want: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+token(t, auth.Claims{Role: tc.role, SessionID: "s"}))
			if rec := serve(h, req); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestKitchenAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPut, "/api/kitchen/orders/o-1/status", nil)
	req.Header.Set("Authorization", "Bearer kitchen-key")
	if rec := serve(KitchenAuth("")(ok), req); rec.Code != http.StatusForbidden {
		t.Fatalf("disabled key: expected 403, got %d", rec.Code)
	}
	if rec := serve(KitchenAuth("other")(ok), req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: expected 401, got %d", rec.Code)
	}
	if rec := serve(KitchenAuth("kitchen-key")(ok), req); rec.Code != http.StatusOK {
		t.Fatalf("valid key: expected 200, got %d", rec.Code)
	}
}

func TestLatencyTracker(t *testing.T) {
	tracker := NewLatencyTracker(4)
	for _, ms := range []int64{100, 1, 2, 3, 4} {
		tracker.Record("GET /x", ms)
	}
	snap := tracker.Snapshot()
	if len(snap) != 1 || snap[0].Samples != 4 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap[0].P50Ms != 2 || snap[0].P95Ms != 4 {
		t.Fatalf("oldest sample must be evicted, got %+v", snap[0])
	}
}

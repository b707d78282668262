package utils

import (
	"errors"
	"testing"
	"time"
)

func TestReceiptToken(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	claims := ReceiptClaims{SessionID: "sess-1", OrderID: "order-1", ExpiresAt: now.Add(time.Hour)}
	token := CreateReceiptToken("secret", claims)

	got, err := ParseReceiptToken("secret", token, now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.SessionID != "sess-1" || got.OrderID != "order-1" || !got.ExpiresAt.Equal(claims.ExpiresAt) {
		t.Fatalf("unexpected claims %+v", got)
	}

	cases := []struct {
		name   string
		secret string
		token  string
		now    time.Time
	}{
		{name: "wrong secret", secret: "other", token: token, now: now},
		{name: "expired", secret: "secret", token: token, now: now.Add(2 * time.Hour)},
		{name: "no separator", secret: "secret", token: "abc", now: now},
		{name: "tampered payload", secret: "secret", token: "x" + token, now: now},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseReceiptToken(tc.secret, tc.token, tc.now); !errors.Is(err, ErrInvalidReceiptToken) {
				t.Fatalf("expected ErrInvalidReceiptToken, got %v", err)
			}
		})
	}
}

func TestIsWithinHours(t *testing.T) {
	cases := []struct {
		open, close, clock string
		want               bool
	}{
		{"11:00", "23:00", "11:00", true},
		{"11:00", "23:00", "23:00", false},
		{"11:00", "23:00", "08:30", false},
		{"18:00", "02:00", "01:15", true},
		{"18:00", "02:00", "12:00", false},
		{"", "", "03:00", true},
		{"bad", "23:00", "03:00", true},
	}
	for _, tc := range cases {
		if got := IsWithinHours(tc.open, tc.close, tc.clock); got != tc.want {
			t.Fatalf("IsWithinHours(%s, %s, %s) = %v, want %v", tc.open, tc.close, tc.clock, got, tc.want)
		}
	}
}

func TestMoney(t *testing.T) {
	if got := ToCents(8.99*2 + 4.99); got != 2297 {
		t.Fatalf("expected 2297 cents, got %d", got)
	}
	if got := FormatMoney(22.97, ""); got != "$22.97" {
		t.Fatalf("unexpected format %s", got)
	}
	if got := RoundMoney(2.297); got != 2.3 {
		t.Fatalf("unexpected rounding %v", got)
	}
}

package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidReceiptToken = errors.New("invalid receipt token")

// ReceiptClaims identify the order a receipt link points at.
type ReceiptClaims struct {
	SessionID string
	OrderID   string
	ExpiresAt time.Time
}

func base64UrlEncode(input []byte) string {
	return base64.RawURLEncoding.EncodeToString(input)
}

func signPayload(secret, payload string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

// CreateReceiptToken signs "sessionID|orderID|expiry" so a receipt can be
// fetched from a printed link without the session bearer token.
func CreateReceiptToken(secret string, claims ReceiptClaims) string {
	raw := strings.Join([]string{
		claims.SessionID,
		claims.OrderID,
		strconv.FormatInt(claims.ExpiresAt.Unix(), 10),
	}, "|")
	payload := base64UrlEncode([]byte(raw))
	return payload + "." + base64UrlEncode(signPayload(secret, payload))
}

// ParseReceiptToken verifies the signature and expiry and returns the claims.
func ParseReceiptToken(secret, token string, now time.Time) (ReceiptClaims, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return ReceiptClaims{}, ErrInvalidReceiptToken
	}
	actual, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(actual, signPayload(secret, payload)) {
		return ReceiptClaims{}, ErrInvalidReceiptToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return ReceiptClaims{}, ErrInvalidReceiptToken
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return ReceiptClaims{}, ErrInvalidReceiptToken
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return ReceiptClaims{}, ErrInvalidReceiptToken
	}
	claims := ReceiptClaims{SessionID: parts[0], OrderID: parts[1], ExpiresAt: time.Unix(exp, 0)}
	if !now.Before(claims.ExpiresAt) {
		return ReceiptClaims{}, ErrInvalidReceiptToken
	}
	return claims, nil
}

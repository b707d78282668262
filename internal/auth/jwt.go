package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type UserRole string

const (
	RoleGuest    UserRole = "GUEST"
	RoleCustomer UserRole = "CUSTOMER"
	RoleAdmin    UserRole = "ADMIN"
	RoleWaiter   UserRole = "WAITER"
	RoleKitchen  UserRole = "KITCHEN"
)

func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleWaiter || r == RoleKitchen
}

// Claims carry the ordering session a token is bound to. Customer tokens
// also name the account; staff tokens carry no session.
type Claims struct {
	SessionID string   `json:"sessionId,omitempty"`
	AccountID string   `json:"accountId,omitempty"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email,omitempty"`
	Name      *string  `json:"name,omitempty"`
	VenueID   string   `json:"venueId,omitempty"`
	jwt.RegisteredClaims
}

func ParseBearerToken(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IssueAccessToken signs claims with HS256 and sets the issue and expiry
// times.
func IssueAccessToken(claims Claims, secret string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.Subject == "" {
		claims.Subject = claims.AccountID
		if claims.Subject == "" {
			claims.Subject = claims.SessionID
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func VerifyAccessToken(tokenString string, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token required")
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}

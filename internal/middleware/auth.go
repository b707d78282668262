package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/ordering"
)

type contextKey string

const (
	authContextKey  contextKey = "authContext"
	storeContextKey contextKey = "orderingStore"
)

type AuthContext struct {
	SessionID   string
	AccountID   string
	Role        auth.UserRole
	Email       string
	VenueID     string
	Permissions []auth.StaffPermission
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

func WithStore(ctx context.Context, store *ordering.Store) context.Context {
	return context.WithValue(ctx, storeContextKey, store)
}

// GetStore returns the ordering store SessionAuth attached to the request.
func GetStore(ctx context.Context) (*ordering.Store, bool) {
	store, ok := ctx.Value(storeContextKey).(*ordering.Store)
	return store, ok && store != nil
}

// SessionLookup finds the store of a live session.
type SessionLookup interface {
	Get(sessionID string) (*ordering.Store, error)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

func verify(r *http.Request, jwtSecret string) (*auth.Claims, error) {
	token := auth.ParseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return auth.VerifyAccessToken(token, jwtSecret)
}

// SessionAuth requires a guest or customer token bound to a live ordering
// session and attaches that session's store to the request.
func SessionAuth(sessions SessionLookup, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verify(r, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}
			if claims.Role != auth.RoleGuest && claims.Role != auth.RoleCustomer {
				writeAuthError(w, http.StatusForbidden, "Guest or customer access required")
				return
			}
			if claims.SessionID == "" {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			store, err := sessions.Get(claims.SessionID)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Session expired. Please scan the table code again.", err.Error())
				return
			}

			authCtx := &AuthContext{
				SessionID: claims.SessionID,
				AccountID: claims.AccountID,
				Role:      claims.Role,
				Email:     claims.Email,
			}
			ctx := WithAuthContext(r.Context(), authCtx)
			ctx = WithStore(ctx, store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CustomerAuth requires a token that belongs to a registered account.
func CustomerAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verify(r, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}
			if claims.Role != auth.RoleCustomer || claims.AccountID == "" {
				writeAuthError(w, http.StatusForbidden, "Customer account required")
				return
			}

			authCtx := &AuthContext{
				SessionID: claims.SessionID,
				AccountID: claims.AccountID,
				Role:      claims.Role,
				Email:     claims.Email,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

// StaffAuth requires a staff token and checks the role against the
// permission the route needs. Staff bound to a venue only see that venue.
func StaffAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verify(r, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}
			if !claims.Role.IsStaff() {
				writeAuthError(w, http.StatusForbidden, "Staff access required")
				return
			}

			if perm := auth.GetPermissionForAPI(r.URL.Path, r.Method); perm != nil {
				if !auth.HasPermission(claims.Role, *perm) {
					writeAuthError(w, http.StatusForbidden, "You do not have permission to access this resource")
					return
				}
			}

			authCtx := &AuthContext{
				Role:        claims.Role,
				Email:       claims.Email,
				VenueID:     claims.VenueID,
				Permissions: auth.PermissionsForRole(claims.Role),
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

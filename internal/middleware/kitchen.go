package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"qrdine-order-service/internal/auth"
)

// KitchenAuth guards machine-to-machine routes used by kitchen display
// systems with a shared bearer key.
func KitchenAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := strings.TrimSpace(apiKey)
			if secret == "" {
				writeAuthError(w, http.StatusForbidden, "Kitchen access is disabled")
				return
			}

			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				writeAuthError(w, http.StatusUnauthorized, "Invalid kitchen key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

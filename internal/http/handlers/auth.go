package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/pkg/response"
)

type tokenResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	SessionID string        `json:"sessionId,omitempty"`
	Role      auth.UserRole `json:"role"`
	Account   *auth.Account `json:"account,omitempty"`
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, status int, claims auth.Claims, account *auth.Account) {
	now := h.now()
	ttl := h.Config.JWTExpiry()
	token, err := auth.IssueAccessToken(claims, h.Config.JWTSecret, ttl, now)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, status, map[string]any{
		"success": true,
		"data": tokenResponse{
			Token:     token,
			ExpiresAt: now.Add(ttl),
			SessionID: claims.SessionID,
			Role:      claims.Role,
			Account:   account,
		},
	})
}

// openSession carries over the live session of a guest token sent with the
// request, so the cart survives sign-in. Otherwise it creates a session with
// the account's dietary preference.
func (h *Handler) openSession(r *http.Request, account *auth.Account) *ordering.Store {
	if token := auth.ParseBearerToken(r.Header.Get("Authorization")); token != "" {
		if claims, err := auth.VerifyAccessToken(token, h.Config.JWTSecret); err == nil && claims.Role == auth.RoleGuest {
			if store, err := h.Sessions.Get(claims.SessionID); err == nil {
				if account != nil {
					_ = store.SetDietaryFilter(account.Preferences.DietaryFilter)
				}
				return store
			}
		}
	}
	if account != nil {
		return h.Sessions.Create(ordering.WithDietaryFilter(account.Preferences.DietaryFilter))
	}
	return h.Sessions.Create()
}

// AuthGuest opens an anonymous ordering session.
func (h *Handler) AuthGuest(w http.ResponseWriter, r *http.Request) {
	store := h.openSession(r, nil)
	h.issue(w, r, http.StatusCreated, auth.Claims{SessionID: store.SessionID(), Role: auth.RoleGuest}, nil)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	account, err := h.Accounts.Register(body.Name, body.Email, body.Phone, body.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	store := h.openSession(r, &account)
	name := account.Name
	h.issue(w, r, http.StatusCreated, auth.Claims{
		SessionID: store.SessionID(),
		AccountID: account.ID,
		Role:      auth.RoleCustomer,
		Email:     account.Email,
		Name:      &name,
	}, &account)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLogin signs a customer in.
func (h *Handler) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	account, err := h.Accounts.Authenticate(body.Email, body.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	store := h.openSession(r, &account)
	name := account.Name
	h.issue(w, r, http.StatusOK, auth.Claims{
		SessionID: store.SessionID(),
		AccountID: account.ID,
		Role:      auth.RoleCustomer,
		Email:     account.Email,
		Name:      &name,
	}, &account)
}

type staffLoginRequest struct {
	APIKey  string        `json:"apiKey"`
	Role    auth.UserRole `json:"role"`
	VenueID string        `json:"venueId"`
	Email   string        `json:"email"`
}

// AuthStaffLogin exchanges the shared staff key for a role-scoped token.
func (h *Handler) AuthStaffLogin(w http.ResponseWriter, r *http.Request) {
	var body staffLoginRequest
	if err := decodeJSON(r, &body); err != nil {
		invalidBody(w)
		return
	}
	key := strings.TrimSpace(h.Config.StaffAPIKey)
	if key == "" {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Staff access is disabled")
		return
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(body.APIKey)), []byte(key)) != 1 {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid staff key")
		return
	}
	role := auth.UserRole(strings.ToUpper(strings.TrimSpace(string(body.Role))))
	if !role.IsStaff() {
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Role must be ADMIN, WAITER or KITCHEN")
		return
	}
	venueID := strings.TrimSpace(body.VenueID)
	if venueID != "" {
		if _, err := h.Catalog.ResolveVenue(r.Context(), venueID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.issue(w, r, http.StatusOK, auth.Claims{Role: role, VenueID: venueID, Email: strings.TrimSpace(body.Email)}, nil)
}

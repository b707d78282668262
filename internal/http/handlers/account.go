package handlers

import (
	"net/http"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/middleware"
	"qrdine-order-service/pkg/response"
)

func (h *Handler) accountID(w http.ResponseWriter, r *http.Request) (string, bool) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || authCtx.AccountID == "" {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Customer account required")
		return "", false
	}
	return authCtx.AccountID, true
}

func (h *Handler) AccountProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	account, err := h.Accounts.Get(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, account)
}

// AccountUpdatePreferences stores the preferences and applies the dietary
// filter to the account's live session.
func (h *Handler) AccountUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var prefs auth.Preferences
	if err := decodeJSON(r, &prefs); err != nil {
		invalidBody(w)
		return
	}
	account, err := h.Accounts.UpdatePreferences(id, prefs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if authCtx, ok := middleware.GetAuthContext(r.Context()); ok && authCtx.SessionID != "" {
		if store, err := h.Sessions.Get(authCtx.SessionID); err == nil {
			_ = store.SetDietaryFilter(account.Preferences.DietaryFilter)
		}
	}
	response.Success(w, account)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/middleware"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/qr"
	"qrdine-order-service/internal/scan"
	"qrdine-order-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func readPathString(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func invalidBody(w http.ResponseWriter) {
	response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), "Invalid request body")
}

// writeError maps domain and sentinel errors to the error envelope. Anything
// unrecognised is logged and reported as a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *ordering.Error
	switch {
	case errors.As(err, &de):
		response.Error(w, de.StatusCode, string(de.Code), de.Message)
	case errors.Is(err, catalog.ErrVenueNotFound):
		response.Error(w, http.StatusNotFound, string(ordering.ErrVenueNotFound), "Venue not found")
	case errors.Is(err, catalog.ErrTableNotFound), errors.Is(err, scan.ErrNoTableAvailable):
		response.Error(w, http.StatusNotFound, string(ordering.ErrTableNotFound), "Table not found")
	case errors.Is(err, qr.ErrMalformedPayload):
		response.Error(w, http.StatusBadRequest, string(ordering.ErrMalformedQR), "This QR code is not a table code")
	case errors.Is(err, scan.ErrPermissionDenied):
		response.Error(w, http.StatusForbidden, string(ordering.ErrPermissionDenied), "Camera access was denied")
	case errors.Is(err, auth.ErrEmailTaken):
		response.Error(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, auth.ErrInvalidAccount):
		response.Error(w, http.StatusBadRequest, string(ordering.ErrValidation), err.Error())
	case errors.Is(err, auth.ErrAccountNotFound):
		response.Error(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
	default:
		h.Logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("requestId", middleware.RequestIDFrom(r)),
			zap.Error(err),
		)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

// store returns the session store attached by SessionAuth.
func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*ordering.Store, bool) {
	store, ok := middleware.GetStore(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Session required")
		return nil, false
	}
	return store, true
}

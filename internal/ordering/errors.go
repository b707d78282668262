package ordering

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	ErrVenueNotFound        ErrorCode = "VENUE_NOT_FOUND"
	ErrTableNotFound        ErrorCode = "TABLE_NOT_FOUND"
	ErrStallNotFound        ErrorCode = "STALL_NOT_FOUND"
	ErrOrderNotFound        ErrorCode = "ORDER_NOT_FOUND"
	ErrCartItemNotFound     ErrorCode = "CART_ITEM_NOT_FOUND"
	ErrMenuItemNotFound     ErrorCode = "MENU_ITEM_NOT_FOUND"
	ErrNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"

	ErrValidation           ErrorCode = "VALIDATION_ERROR"
	ErrInvalidQuantity      ErrorCode = "INVALID_QUANTITY"
	ErrMalformedQR          ErrorCode = "MALFORMED_QR"
	ErrItemUnavailable      ErrorCode = "ITEM_UNAVAILABLE"
	ErrInvalidDietaryFilter ErrorCode = "INVALID_DIETARY_FILTER"

	ErrPermissionDenied ErrorCode = "CAMERA_PERMISSION_DENIED"

	ErrNoVenueSelected    ErrorCode = "NO_VENUE_SELECTED"
	ErrNoTableSelected    ErrorCode = "NO_TABLE_SELECTED"
	ErrEmptyCart          ErrorCode = "EMPTY_CART"
	ErrNotFoodCourt       ErrorCode = "NOT_A_FOOD_COURT"
	ErrTableNotSelectable ErrorCode = "TABLE_NOT_SELECTABLE"
	ErrOrderNotEditable   ErrorCode = "ORDER_NOT_EDITABLE"
	ErrInvalidTransition  ErrorCode = "INVALID_STATUS_TRANSITION"
)

// Error is a domain failure with a machine code and the HTTP status the API
// reports it with.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, message string, status int) *Error {
	return &Error{Code: code, Message: message, StatusCode: status}
}

func NotFound(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusNotFound)
}

func Invalid(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusBadRequest)
}

func Precondition(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusConflict)
}

func Forbidden(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusForbidden)
}

// CodeOf returns the code of a domain error, or "" for anything else.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

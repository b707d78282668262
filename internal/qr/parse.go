// Package qr decodes the table QR payloads printed on venue tables.
//
// Two formats are accepted:
//
//	https://host/scan?merchant=<venueId>&table=<tableCode>
//	<venueId>:<tableCode>
//
// The table code is optional in both.
package qr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrMalformedPayload = errors.New("malformed qr payload")

type Payload struct {
	VenueID   string `json:"venueId"`
	TableCode string `json:"tableCode,omitempty"`
}

func (p Payload) HasTable() bool {
	return p.TableCode != ""
}

func Parse(raw string) (Payload, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Payload{}, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	if isURL(text) {
		return parseURL(text)
	}

	if !strings.Contains(text, ":") {
		return Payload{}, fmt.Errorf("%w: expected venue:table or a scan url", ErrMalformedPayload)
	}
	parts := strings.Split(text, ":")
	venueID := strings.TrimSpace(parts[0])
	if venueID == "" {
		return Payload{}, fmt.Errorf("%w: missing venue id", ErrMalformedPayload)
	}
	return Payload{VenueID: venueID, TableCode: strings.TrimSpace(parts[1])}, nil
}

func isURL(text string) bool {
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func parseURL(text string) (Payload, error) {
	u, err := url.Parse(text)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return FromQuery(u.Query())
}

// FromQuery reads the merchant/table pair used by scan links.
func FromQuery(values url.Values) (Payload, error) {
	venueID := strings.TrimSpace(values.Get("merchant"))
	if venueID == "" {
		return Payload{}, fmt.Errorf("%w: missing merchant parameter", ErrMalformedPayload)
	}
	return Payload{VenueID: venueID, TableCode: strings.TrimSpace(values.Get("table"))}, nil
}

// Format renders the compact token form, the inverse of Parse.
func Format(p Payload) string {
	return p.VenueID + ":" + p.TableCode
}

// Link renders a scan URL for printing on a table card.
func Link(base string, p Payload) string {
	values := url.Values{}
	values.Set("merchant", p.VenueID)
	if p.TableCode != "" {
		values.Set("table", p.TableCode)
	}
	return strings.TrimRight(base, "/") + "/scan?" + values.Encode()
}

package catalog

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrVenueNotFound = errors.New("venue not found")
	ErrTableNotFound = errors.New("table not found")
)

// Provider supplies venue master data. Implementations must return copies so
// callers can mutate table lock flags without touching the catalog.
type Provider interface {
	ResolveVenue(ctx context.Context, id string) (Venue, error)
	ResolveTableByCode(ctx context.Context, venueID, code string) (Table, error)
	ListVenues(ctx context.Context) ([]Venue, error)
}

type VenueFilter struct {
	Query   string
	Country string
	State   string
	City    string
	Pincode string
}

// SearchVenues filters venues the way the venue search screen does: a
// case-insensitive match on name or description plus exact location fields.
func SearchVenues(ctx context.Context, p Provider, f VenueFilter, now time.Time) ([]Summary, error) {
	venues, err := p.ListVenues(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(venues))
	for _, v := range venues {
		if matchesVenue(v, f) {
			out = append(out, v.Summary(now))
		}
	}
	return out, nil
}

func matchesVenue(v Venue, f VenueFilter) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q != "" &&
		!strings.Contains(strings.ToLower(v.Name), q) &&
		!strings.Contains(strings.ToLower(v.Description), q) {
		return false
	}

	var loc Location
	if v.Location != nil {
		loc = *v.Location
	}
	if f.Country != "" && loc.Country != f.Country {
		return false
	}
	if f.State != "" && loc.State != f.State {
		return false
	}
	if f.City != "" && loc.City != f.City {
		return false
	}
	if f.Pincode != "" && !strings.Contains(loc.Address, f.Pincode) {
		return false
	}
	return true
}

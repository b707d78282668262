package scan

import (
	"context"
	"errors"
	"fmt"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/qr"
)

var ErrNoTableAvailable = errors.New("no table available")

type Resolution struct {
	Venue catalog.Venue `json:"venue"`
	Table catalog.Table `json:"table"`
	// TableMatched is false when the table was picked automatically.
	TableMatched bool `json:"tableMatched"`
}

// Resolve looks up the venue and table a payload points at. Without a table
// code, or when the code is unknown, the first selectable table is used.
func Resolve(ctx context.Context, p catalog.Provider, payload qr.Payload) (Resolution, error) {
	venue, err := p.ResolveVenue(ctx, payload.VenueID)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Venue: venue}
	if payload.HasTable() {
		table, err := p.ResolveTableByCode(ctx, venue.ID, payload.TableCode)
		switch {
		case err == nil:
			res.Table = table
			res.TableMatched = true
			return res, nil
		case !errors.Is(err, catalog.ErrTableNotFound):
			return Resolution{}, err
		}
	}

	table, ok := catalog.FirstOpenTable(venue.Tables)
	if !ok {
		return Resolution{}, fmt.Errorf("%w at %s", ErrNoTableAvailable, venue.Name)
	}
	res.Table = table
	return res, nil
}

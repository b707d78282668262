package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"qrdine-order-service/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the catalog tables when they are missing.
//
//go:embed schema.sql
var Schema string

// PostgresProvider reads venues from the tables described in schema.sql.
type PostgresProvider struct {
	DB *pgxpool.Pool
}

func NewPostgresProvider(db *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{DB: db}
}

const venueColumns = `
	select v.id, v.name, v.description, v.logo_url, v.venue_type,
	       v.country, v.state, v.city, v.address, v.latitude, v.longitude,
	       v.open_time, v.close_time, v.timezone, v.current_stall_id
	from venues v
`

func (p *PostgresProvider) ResolveVenue(ctx context.Context, id string) (Venue, error) {
	row := p.DB.QueryRow(ctx, venueColumns+` where v.id = $1 and v.is_active = true`, id)
	venue, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Venue{}, fmt.Errorf("%w: %s", ErrVenueNotFound, id)
		}
		return Venue{}, err
	}
	if err := p.loadVenueDetails(ctx, &venue); err != nil {
		return Venue{}, err
	}
	return venue, nil
}

func (p *PostgresProvider) ResolveTableByCode(ctx context.Context, venueID, code string) (Table, error) {
	var t Table
	var tableType string
	err := p.DB.QueryRow(ctx, `
		select id, number, seats, qr_code, table_type, is_available, is_locked
		from venue_tables
		where venue_id = $1 and qr_code = $2
	`, venueID, code).Scan(&t.ID, &t.Number, &t.Seats, &t.QRCode, &tableType, &t.IsAvailable, &t.IsLocked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Table{}, fmt.Errorf("%w: %s", ErrTableNotFound, code)
		}
		return Table{}, err
	}
	t.Type = TableType(tableType)
	return t, nil
}

func (p *PostgresProvider) ListVenues(ctx context.Context) ([]Venue, error) {
	rows, err := p.DB.Query(ctx, venueColumns+` where v.is_active = true order by v.name asc`)
	if err != nil {
		return nil, err
	}
	venues := make([]Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		venues = append(venues, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range venues {
		if err := p.loadVenueDetails(ctx, &venues[i]); err != nil {
			return nil, err
		}
	}
	return venues, nil
}

func scanVenue(row pgx.Row) (Venue, error) {
	var (
		v           Venue
		description pgtype.Text
		logo        pgtype.Text
		venueType   string
		country     pgtype.Text
		state       pgtype.Text
		city        pgtype.Text
		address     pgtype.Text
		lat         pgtype.Numeric
		lng         pgtype.Numeric
		openTime    pgtype.Text
		closeTime   pgtype.Text
		timezone    pgtype.Text
		stallID     pgtype.Text
	)
	if err := row.Scan(
		&v.ID, &v.Name, &description, &logo, &venueType,
		&country, &state, &city, &address, &lat, &lng,
		&openTime, &closeTime, &timezone, &stallID,
	); err != nil {
		return Venue{}, err
	}

	v.Description = description.String
	v.Logo = logo.String
	v.VenueType = VenueType(venueType)
	v.Timezone = timezone.String
	v.CurrentStallID = stallID.String
	if address.Valid {
		v.Location = &Location{
			Country: country.String,
			State:   state.String,
			City:    city.String,
			Address: address.String,
			Coordinates: Coordinates{
				Lat: utils.NumericToFloat64(lat),
				Lng: utils.NumericToFloat64(lng),
			},
		}
	}
	if openTime.Valid && closeTime.Valid {
		v.Hours = &Hours{Open: openTime.String, Close: closeTime.String}
	}
	return v, nil
}

func (p *PostgresProvider) loadVenueDetails(ctx context.Context, v *Venue) error {
	tables, err := p.loadTables(ctx, v.ID)
	if err != nil {
		return err
	}
	v.Tables = tables

	items, err := p.loadMenuItems(ctx, v.ID)
	if err != nil {
		return err
	}

	v.Menu = make([]MenuItem, 0)
	stallMenus := make(map[string][]MenuItem)
	for _, it := range items {
		if it.stallID == "" {
			v.Menu = append(v.Menu, it.item)
			continue
		}
		stallMenus[it.stallID] = append(stallMenus[it.stallID], it.item)
	}

	if !v.IsFoodCourt() {
		return nil
	}
	stalls, err := p.loadStalls(ctx, v.ID)
	if err != nil {
		return err
	}
	for i := range stalls {
		stalls[i].Menu = stallMenus[stalls[i].ID]
		if stalls[i].Menu == nil {
			stalls[i].Menu = make([]MenuItem, 0)
		}
	}
	v.Stalls = stalls
	if v.CurrentStallID == "" && len(stalls) > 0 {
		v.CurrentStallID = stalls[0].ID
	}
	return nil
}

func (p *PostgresProvider) loadTables(ctx context.Context, venueID string) ([]Table, error) {
	rows, err := p.DB.Query(ctx, `
		select id, number, seats, qr_code, table_type, is_available, is_locked
		from venue_tables
		where venue_id = $1
		order by number asc
	`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]Table, 0)
	for rows.Next() {
		var t Table
		var tableType string
		if err := rows.Scan(&t.ID, &t.Number, &t.Seats, &t.QRCode, &tableType, &t.IsAvailable, &t.IsLocked); err != nil {
			return nil, err
		}
		t.Type = TableType(tableType)
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (p *PostgresProvider) loadStalls(ctx context.Context, venueID string) ([]Stall, error) {
	rows, err := p.DB.Query(ctx, `
		select id, name, description, logo_url, cuisine
		from stalls
		where venue_id = $1 and is_active = true
		order by sort_order asc, name asc
	`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stalls := make([]Stall, 0)
	for rows.Next() {
		var (
			s           Stall
			description pgtype.Text
			logo        pgtype.Text
			cuisine     pgtype.Text
		)
		if err := rows.Scan(&s.ID, &s.Name, &description, &logo, &cuisine); err != nil {
			return nil, err
		}
		s.Description = description.String
		s.Logo = logo.String
		s.Cuisine = cuisine.String
		stalls = append(stalls, s)
	}
	return stalls, rows.Err()
}

type stallMenuItem struct {
	stallID string
	item    MenuItem
}

func (p *PostgresProvider) loadMenuItems(ctx context.Context, venueID string) ([]stallMenuItem, error) {
	rows, err := p.DB.Query(ctx, `
		select id, stall_id, name, description, price, category, sub_category, image_url,
		       is_available, preparation_minutes, is_featured, tags, rating, rating_count,
		       ingredients, calories, protein, carbs, fat
		from menu_items
		where venue_id = $1 and deleted_at is null
		order by sort_order asc, name asc
	`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]stallMenuItem, 0)
	for rows.Next() {
		var (
			m           MenuItem
			stallID     pgtype.Text
			description pgtype.Text
			price       pgtype.Numeric
			category    string
			subCategory pgtype.Text
			image       pgtype.Text
			tags        []string
			rating      pgtype.Numeric
			ratingCount pgtype.Int4
			ingredients []string
			calories    pgtype.Int4
			protein     pgtype.Numeric
			carbs       pgtype.Numeric
			fat         pgtype.Numeric
		)
		if err := rows.Scan(
			&m.ID, &stallID, &m.Name, &description, &price, &category, &subCategory, &image,
			&m.Available, &m.PreparationTime, &m.Featured, &tags, &rating, &ratingCount,
			&ingredients, &calories, &protein, &carbs, &fat,
		); err != nil {
			return nil, err
		}
		m.Description = description.String
		m.Price = utils.NumericToFloat64(price)
		m.Category = Category(category)
		m.SubCategory = subCategory.String
		m.Image = image.String
		m.Tags = tags
		m.Ingredients = ingredients
		if rating.Valid {
			value := utils.NumericToFloat64(rating)
			m.Rating = &value
		}
		if ratingCount.Valid {
			value := int(ratingCount.Int32)
			m.RatingCount = &value
		}
		if calories.Valid {
			m.Nutrition = &Nutrition{
				Calories: int(calories.Int32),
				Protein:  utils.NumericToFloat64(protein),
				Carbs:    utils.NumericToFloat64(carbs),
				Fat:      utils.NumericToFloat64(fat),
			}
		}
		items = append(items, stallMenuItem{stallID: stallID.String, item: m})
	}
	return items, rows.Err()
}

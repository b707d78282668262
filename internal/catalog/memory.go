package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed/catalog.yaml
var seedCatalog []byte

type seedFile struct {
	Venues []Venue `yaml:"venues"`
}

// MemoryProvider serves a fixed set of venues. An optional latency simulates
// a remote lookup and is cut short when the context is cancelled.
type MemoryProvider struct {
	venues  []Venue
	byID    map[string]int
	latency time.Duration
}

func NewMemoryProvider(venues []Venue, latency time.Duration) *MemoryProvider {
	p := &MemoryProvider{
		venues:  make([]Venue, 0, len(venues)),
		byID:    make(map[string]int, len(venues)),
		latency: latency,
	}
	for _, v := range venues {
		p.byID[v.ID] = len(p.venues)
		p.venues = append(p.venues, v.Clone())
	}
	return p
}

// LoadSeed parses the embedded demo catalog.
func LoadSeed() ([]Venue, error) {
	return ParseCatalogYAML(seedCatalog)
}

func ParseCatalogYAML(data []byte) ([]Venue, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, v := range file.Venues {
		if strings.TrimSpace(v.ID) == "" {
			return nil, fmt.Errorf("parse catalog: venue %d has no id", i)
		}
		if v.VenueType == "" {
			file.Venues[i].VenueType = VenueRestaurant
		}
		if v.IsFoodCourt() && v.CurrentStallID == "" && len(v.Stalls) > 0 {
			file.Venues[i].CurrentStallID = v.Stalls[0].ID
		}
	}
	return file.Venues, nil
}

func (p *MemoryProvider) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *MemoryProvider) ResolveVenue(ctx context.Context, id string) (Venue, error) {
	if err := p.wait(ctx, p.latency); err != nil {
		return Venue{}, err
	}
	idx, ok := p.byID[strings.TrimSpace(id)]
	if !ok {
		return Venue{}, fmt.Errorf("%w: %s", ErrVenueNotFound, id)
	}
	return p.venues[idx].Clone(), nil
}

func (p *MemoryProvider) ResolveTableByCode(ctx context.Context, venueID, code string) (Table, error) {
	if err := p.wait(ctx, p.latency/2); err != nil {
		return Table{}, err
	}
	idx, ok := p.byID[strings.TrimSpace(venueID)]
	if !ok {
		return Table{}, fmt.Errorf("%w: %s", ErrVenueNotFound, venueID)
	}
	code = strings.TrimSpace(code)
	for _, t := range p.venues[idx].Tables {
		if t.QRCode == code {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("%w: %s", ErrTableNotFound, code)
}

func (p *MemoryProvider) ListVenues(ctx context.Context) ([]Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Venue, 0, len(p.venues))
	for _, v := range p.venues {
		out = append(out, v.Clone())
	}
	return out, nil
}

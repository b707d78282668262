package catalog

import (
	"time"

	"qrdine-order-service/internal/utils"
)

type VenueType string

const (
	VenueRestaurant VenueType = "restaurant"
	VenueFoodCourt  VenueType = "foodCourt"
)

type TableType string

const (
	TablePrivate TableType = "private"
	TableShared  TableType = "shared"
)

type Category string

const (
	CategoryVeg    Category = "Veg"
	CategoryNonVeg Category = "NonVeg"
	CategoryDrink  Category = "Drink"
)

// Categories lists menu categories in display order.
var Categories = []Category{CategoryVeg, CategoryNonVeg, CategoryDrink}

type DietaryFilter string

const (
	DietAll    DietaryFilter = "all"
	DietVeg    DietaryFilter = "veg"
	DietNonVeg DietaryFilter = "nonveg"
)

func (f DietaryFilter) Valid() bool {
	switch f {
	case DietAll, DietVeg, DietNonVeg:
		return true
	}
	return false
}

type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

type Location struct {
	Country     string      `json:"country,omitempty" yaml:"country"`
	State       string      `json:"state,omitempty" yaml:"state"`
	City        string      `json:"city,omitempty" yaml:"city"`
	Address     string      `json:"address" yaml:"address"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
}

type Hours struct {
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

type Review struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"userId" yaml:"userId"`
	UserName  string    `json:"userName" yaml:"userName"`
	Rating    int       `json:"rating" yaml:"rating"`
	Comment   string    `json:"comment" yaml:"comment"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

type Nutrition struct {
	Calories int     `json:"calories" yaml:"calories"`
	Protein  float64 `json:"protein" yaml:"protein"`
	Carbs    float64 `json:"carbs" yaml:"carbs"`
	Fat      float64 `json:"fat" yaml:"fat"`
}

type MenuItem struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Description     string     `json:"description" yaml:"description"`
	Price           float64    `json:"price" yaml:"price"`
	Category        Category   `json:"category" yaml:"category"`
	SubCategory     string     `json:"subCategory" yaml:"subCategory"`
	Image           string     `json:"image,omitempty" yaml:"image"`
	Available       bool       `json:"available" yaml:"available"`
	PreparationTime int        `json:"preparationTime" yaml:"preparationTime"`
	Featured        bool       `json:"featured,omitempty" yaml:"featured"`
	Tags            []string   `json:"tags,omitempty" yaml:"tags"`
	Rating          *float64   `json:"rating,omitempty" yaml:"rating"`
	RatingCount     *int       `json:"ratingCount,omitempty" yaml:"ratingCount"`
	Reviews         []Review   `json:"reviews,omitempty" yaml:"reviews"`
	Ingredients     []string   `json:"ingredients,omitempty" yaml:"ingredients"`
	Nutrition       *Nutrition `json:"nutritionInfo,omitempty" yaml:"nutritionInfo"`
}

type Stall struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Logo        string     `json:"logo,omitempty" yaml:"logo"`
	Cuisine     string     `json:"cuisine" yaml:"cuisine"`
	Menu        []MenuItem `json:"menu" yaml:"menu"`
}

type Table struct {
	ID          string    `json:"id" yaml:"id"`
	Number      int       `json:"number" yaml:"number"`
	Seats       int       `json:"seats" yaml:"seats"`
	QRCode      string    `json:"qrCode" yaml:"qrCode"`
	Type        TableType `json:"type" yaml:"type"`
	IsAvailable bool      `json:"isAvailable" yaml:"isAvailable"`
	IsLocked    bool      `json:"isLocked" yaml:"isLocked"`
}

// Selectable reports whether a guest may be seated at the table. Shared
// tables ignore the lock flag.
func (t Table) Selectable() bool {
	return t.IsAvailable && (!t.IsLocked || t.Type == TableShared)
}

type Venue struct {
	ID             string     `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	Description    string     `json:"description,omitempty" yaml:"description"`
	Logo           string     `json:"logo,omitempty" yaml:"logo"`
	VenueType      VenueType  `json:"venueType" yaml:"venueType"`
	Location       *Location  `json:"location,omitempty" yaml:"location"`
	Hours          *Hours     `json:"hours,omitempty" yaml:"hours"`
	Timezone       string     `json:"timezone,omitempty" yaml:"timezone"`
	Tables         []Table    `json:"tables" yaml:"tables"`
	Menu           []MenuItem `json:"menu" yaml:"menu"`
	Stalls         []Stall    `json:"stalls,omitempty" yaml:"stalls"`
	CurrentStallID string     `json:"currentStallId,omitempty" yaml:"currentStallId"`
}

func (v Venue) IsFoodCourt() bool {
	return v.VenueType == VenueFoodCourt
}

// Stall returns the stall with the given id.
func (v Venue) Stall(id string) (Stall, bool) {
	for _, s := range v.Stalls {
		if s.ID == id {
			return s, true
		}
	}
	return Stall{}, false
}

// Clone returns a copy that shares no mutable slices with v. Menu items are
// treated as immutable and are copied shallowly.
func (v Venue) Clone() Venue {
	out := v
	out.Tables = append([]Table(nil), v.Tables...)
	out.Menu = append([]MenuItem(nil), v.Menu...)
	if v.Stalls != nil {
		out.Stalls = make([]Stall, len(v.Stalls))
		for i, s := range v.Stalls {
			s.Menu = append([]MenuItem(nil), s.Menu...)
			out.Stalls[i] = s
		}
	}
	if v.Location != nil {
		loc := *v.Location
		out.Location = &loc
	}
	if v.Hours != nil {
		h := *v.Hours
		out.Hours = &h
	}
	return out
}

// Summary is the venue header without tables and menus.
type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	VenueType   VenueType `json:"venueType"`
	Location    *Location `json:"location,omitempty"`
	Hours       *Hours    `json:"hours,omitempty"`
	IsOpen      bool      `json:"isOpen"`
	StallCount  int       `json:"stallCount,omitempty"`
	TableCount  int       `json:"tableCount"`
}

// Summary builds the venue header; now decides the open flag.
func (v Venue) Summary(now time.Time) Summary {
	return Summary{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Logo:        v.Logo,
		VenueType:   v.VenueType,
		Location:    v.Location,
		Hours:       v.Hours,
		IsOpen:      v.IsOpenAt(now),
		StallCount:  len(v.Stalls),
		TableCount:  len(v.Tables),
	}
}

func (v Venue) IsOpenAt(now time.Time) bool {
	if v.Hours == nil {
		return true
	}
	tz := v.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return utils.IsWithinHours(v.Hours.Open, v.Hours.Close, utils.CurrentTimeInTimezone(tz, now))
}

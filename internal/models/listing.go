package models

import (
	"strings"
	"time"

	"wanderlink/internal/geo"
)

// ListingType distinguishes events from hubs.
type ListingType string

const (
	ListingTypeEvent ListingType = "event"
	ListingTypeHub   ListingType = "hub"
)

// Valid reports whether t is a known listing type.
func (t ListingType) Valid() bool {
	return t == ListingTypeEvent || t == ListingTypeHub
}

// VerifyStatus is the moderation state of a listing.
type VerifyStatus string

const (
	VerifyPending  VerifyStatus = "pending"
	VerifyVerified VerifyStatus = "verified"
	VerifyRejected VerifyStatus = "rejected"
)

// Valid reports whether s is a known moderation state.
func (s VerifyStatus) Valid() bool {
	switch s {
	case VerifyPending, VerifyVerified, VerifyRejected:
		return true
	}
	return false
}

// DateLayout is the wire and storage format for listing dates.
const DateLayout = "2006-01-02"

// ParseDate accepts either a bare date or an RFC 3339 timestamp and returns midnight UTC of that day.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DateLayout) {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			y, m, d := ts.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Parse(DateLayout, raw)
}

// Location places a listing on the map. Coordinates are optional.
type Location struct {
	City    string   `json:"city"`
	Region  string   `json:"region"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// Point returns the coordinates when both are present.
func (l Location) Point() (geo.Point, bool) {
	if l.Lat == nil || l.Lng == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *l.Lat, Lng: *l.Lng}, true
}

// Listing is an event or hub shown on the map, calendar and list views.
type Listing struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	LType       ListingType `json:"ltype"`
	StartDate   *string     `json:"start_date"`
	EndDate     *string     `json:"end_date"`
	IsPermanent bool        `json:"is_permanent"`
	Location

	Price     *float64 `json:"price"`
	Website   string   `json:"website,omitempty"`
	Facebook  string   `json:"facebook,omitempty"`
	Instagram string   `json:"instagram,omitempty"`
	OtherLink string   `json:"other_link,omitempty"`

	OrganiserName  string `json:"organiser_name,omitempty"`
	OrganiserEmail string `json:"organiser_email,omitempty"`
	OrganiserPhone string `json:"organiser_phone,omitempty"`
	OrganiserAbout string `json:"organiser_about,omitempty"`

	AgeMin   *int `json:"age_min,omitempty"`
	AgeMax   *int `json:"age_max,omitempty"`
	Capacity *int `json:"capacity,omitempty"`

	PhotoURLs      []string     `json:"photo_urls"`
	VerifiedIntent bool         `json:"verified_intent"`
	Verify         VerifyStatus `json:"verify"`
	CreatedBy      string       `json:"created_by"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.StartDate = cloneString(l.StartDate)
	c.EndDate = cloneString(l.EndDate)
	c.Lat = cloneFloat(l.Lat)
	c.Lng = cloneFloat(l.Lng)
	c.Price = cloneFloat(l.Price)
	c.AgeMin = cloneInt(l.AgeMin)
	c.AgeMax = cloneInt(l.AgeMax)
	c.Capacity = cloneInt(l.Capacity)
	if l.PhotoURLs != nil {
		c.PhotoURLs = append([]string(nil), l.PhotoURLs...)
	}
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

package listings

import (
	"strings"
	"time"

	"wanderlink/internal/geo"
	"wanderlink/internal/models"
)

// Query selects listings. Nil and empty fields do not restrict the result.
type Query struct {
	LType    *models.ListingType
	From     *time.Time
	To       *time.Time
	Verified *bool
	Location string
	Near     *geo.Point
	RadiusKm *float64
}

// Apply returns the listings matching every predicate in q, in input order.
func Apply(listings []*models.Listing, q Query) []*models.Listing {
	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if q.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

// Matches evaluates the query against a single listing: verification, then
// type, then location or radius, then dates.
func (q Query) Matches(l *models.Listing) bool {
	if l == nil {
		return false
	}
	if q.Verified != nil {
		want := models.VerifyPending
		if *q.Verified {
			want = models.VerifyVerified
		}
		if l.Verify != want {
			return false
		}
	}
	if q.LType != nil && l.LType != *q.LType {
		return false
	}
	if !q.matchesPlace(l) {
		return false
	}
	return q.matchesDates(l)
}

func (q Query) matchesPlace(l *models.Listing) bool {
	if q.Near != nil && q.RadiusKm != nil {
		p, ok := l.Location.Point()
		if !ok {
			return false
		}
		return geo.WithinRadius(*q.Near, p, *q.RadiusKm)
	}

	needle := strings.ToLower(strings.TrimSpace(q.Location))
	if needle == "" {
		return true
	}
	for _, field := range []string{l.City, l.Region, l.Country} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// matchesDates never excludes permanent listings or listings missing the
// compared date.
func (q Query) matchesDates(l *models.Listing) bool {
	if l.IsPermanent {
		return true
	}
	if q.From != nil && l.StartDate != nil {
		if start, err := models.ParseDate(*l.StartDate); err == nil && start.Before(*q.From) {
			return false
		}
	}
	if q.To != nil && l.EndDate != nil {
		if end, err := models.ParseDate(*l.EndDate); err == nil && end.After(*q.To) {
			return false
		}
	}
	return true
}

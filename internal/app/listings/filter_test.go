package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"wanderlink/internal/geo"
	"wanderlink/internal/models"
)

func ptr[T any](v T) *T { return &v }

func date(s string) *time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func listing(id string, opts ...func(*models.Listing)) *models.Listing {
	l := &models.Listing{
		ID:     id,
		Title:  "Listing " + id,
		LType:  models.ListingTypeEvent,
		Verify: models.VerifyPending,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func at(lat, lng float64) func(*models.Listing) {
	return func(l *models.Listing) { l.Lat, l.Lng = ptr(lat), ptr(lng) }
}

func in(city, region, country string) func(*models.Listing) {
	return func(l *models.Listing) { l.City, l.Region, l.Country = city, region, country }
}

func dates(start, end string) func(*models.Listing) {
	return func(l *models.Listing) {
		if start != "" {
			l.StartDate = ptr(start)
		}
		if end != "" {
			l.EndDate = ptr(end)
		}
	}
}

func status(s models.VerifyStatus) func(*models.Listing) {
	return func(l *models.Listing) { l.Verify = s }
}

func ids(listings []*models.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestPermanentListingsSurviveDateFilters(t *testing.T) {
	hub := listing("hub", dates("2020-01-01", "2020-02-01"), func(l *models.Listing) {
		l.LType = models.ListingTypeHub
		l.IsPermanent = true
	})
	past := listing("past", dates("2020-01-01", "2020-02-01"))

	for _, q := range []Query{
		{From: date("2030-01-01")},
		{To: date("2000-01-01")},
		{From: date("2030-01-01"), To: date("2000-01-01")},
	} {
		got := Apply([]*models.Listing{hub, past}, q)
		assert.Equal(t, []string{"hub"}, ids(got))
	}
}

func TestDateRange(t *testing.T) {
	early := listing("early", dates("2025-05-01", "2025-05-03"))
	inside := listing("inside", dates("2025-06-10", "2025-06-12"))
	late := listing("late", dates("2025-06-25", "2025-07-02"))
	undated := listing("undated")

	all := []*models.Listing{early, inside, late, undated}
	got := Apply(all, Query{From: date("2025-06-01"), To: date("2025-06-30")})
	assert.Equal(t, []string{"inside", "undated"}, ids(got))

	sameDay := Apply(all, Query{From: date("2025-06-10")})
	assert.Equal(t, []string{"inside", "late", "undated"}, ids(sameDay))
}

func TestVerifiedTriState(t *testing.T) {
	all := []*models.Listing{
		listing("p"),
		listing("v", status(models.VerifyVerified)),
		listing("r", status(models.VerifyRejected)),
	}

	assert.Equal(t, []string{"v"}, ids(Apply(all, Query{Verified: ptr(true)})))
	assert.Equal(t, []string{"p"}, ids(Apply(all, Query{Verified: ptr(false)})))
	assert.Equal(t, []string{"p", "v", "r"}, ids(Apply(all, Query{})))
}

func TestRadiusFilter(t *testing.T) {
	far := listing("far", at(0.5, 0.5))
	near := listing("near", at(0.001, 0.001))
	nowhere := listing("nowhere")

	q := Query{Near: &geo.Point{Lat: 0, Lng: 0}, RadiusKm: ptr(1.0)}
	assert.Equal(t, []string{"near"}, ids(Apply([]*models.Listing{far, near, nowhere}, q)))
}

func TestRadiusTakesPrecedenceOverLocationText(t *testing.T) {
	near := listing("near", at(0.001, 0.001), in("Nowhere", "", ""))
	q := Query{Near: &geo.Point{}, RadiusKm: ptr(1.0), Location: "Paris"}
	assert.Equal(t, []string{"near"}, ids(Apply([]*models.Listing{near}, q)))
}

func TestLocationSubstring(t *testing.T) {
	all := []*models.Listing{
		listing("paris", in("Paris", "Île-de-France", "France")),
		listing("london", in("London", "England", "United Kingdom")),
		listing("lyon", in("Lyon", "Auvergne", "france")),
	}

	assert.Equal(t, []string{"paris"}, ids(Apply(all, Query{Location: "Paris"})))
	assert.Equal(t, []string{"paris", "lyon"}, ids(Apply(all, Query{Location: "FRANCE"})))
	assert.Equal(t, []string{"london"}, ids(Apply(all, Query{Location: "england"})))
}

func TestTypeAndCombinedPredicates(t *testing.T) {
	hub := listing("hub", status(models.VerifyVerified), in("Ubud", "Bali", "Indonesia"), func(l *models.Listing) {
		l.LType = models.ListingTypeHub
	})
	event := listing("event", status(models.VerifyVerified), in("Ubud", "Bali", "Indonesia"), dates("2025-06-01", ""))

	all := []*models.Listing{hub, event}
	hubType := models.ListingTypeHub
	assert.Equal(t, []string{"hub"}, ids(Apply(all, Query{LType: &hubType, Verified: ptr(true), Location: "bali"})))
	assert.Empty(t, Apply(all, Query{LType: &hubType, Verified: ptr(false)}))
}

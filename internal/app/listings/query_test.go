package listings

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wanderlink/internal/store"
)

func TestParseQuery(t *testing.T) {
	values := url.Values{}
	values.Set("ltype", "Hub")
	values.Set("from", "2025-06-01")
	values.Set("to", "2025-06-30T00:00:00Z")
	values.Set("verified", "true")
	values.Set("near", "2.35,48.85")
	values.Set("radiusKm", "25")
	values.Set("location", " Paris ")

	q, err := ParseQuery(values)
	require.NoError(t, err)
	require.NotNil(t, q.LType)
	assert.EqualValues(t, "hub", *q.LType)
	require.NotNil(t, q.Verified)
	assert.True(t, *q.Verified)
	require.NotNil(t, q.Near)
	assert.InDelta(t, 48.85, q.Near.Lat, 1e-9)
	assert.InDelta(t, 2.35, q.Near.Lng, 1e-9)
	require.NotNil(t, q.RadiusKm)
	assert.Equal(t, 25.0, *q.RadiusKm)
	assert.Equal(t, "Paris", q.Location)
	assert.Equal(t, "2025-06-30", q.To.Format("2006-01-02"))
}

func TestParseQueryNearWithoutRadiusIsIgnored(t *testing.T) {
	q, err := ParseQuery(url.Values{"near": {"2.35,48.85"}})
	require.NoError(t, err)
	assert.Nil(t, q.Near)
	assert.Nil(t, q.RadiusKm)
}

func TestParseQueryErrors(t *testing.T) {
	cases := map[string]struct {
		values url.Values
		field  string
	}{
		"unknown type":      {url.Values{"ltype": {"party"}}, "ltype"},
		"bad from":          {url.Values{"from": {"June"}}, "from"},
		"bad to":            {url.Values{"to": {"2025-13-40"}}, "to"},
		"bad verified":      {url.Values{"verified": {"maybe"}}, "verified"},
		"near one number":   {url.Values{"near": {"2.35"}, "radiusKm": {"5"}}, "near"},
		"near out of range": {url.Values{"near": {"200,10"}, "radiusKm": {"5"}}, "near"},
		"negative radius":   {url.Values{"near": {"0,0"}, "radiusKm": {"-1"}}, "radiusKm"},
		"text radius":       {url.Values{"near": {"0,0"}, "radiusKm": {"far"}}, "radiusKm"},
		"radius alone":      {url.Values{"radiusKm": {"5"}}, "radiusKm"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuery(tc.values)
			var verr *store.ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

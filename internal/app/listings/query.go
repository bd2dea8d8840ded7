package listings

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"wanderlink/internal/geo"
	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

// ParseQuery reads search parameters from a URL query string. The near
// parameter is "lng,lat". A near point without radiusKm is ignored.
func ParseQuery(values url.Values) (Query, error) {
	var q Query
	fields := map[string]string{}

	if raw := strings.TrimSpace(values.Get("ltype")); raw != "" {
		t := models.ListingType(strings.ToLower(raw))
		if !t.Valid() {
			fields["ltype"] = "ltype must be event or hub"
		} else {
			q.LType = &t
		}
	}

	for _, name := range []string{"from", "to"} {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			fields[name] = name + " must be a date (YYYY-MM-DD)"
			continue
		}
		if name == "from" {
			q.From = &d
		} else {
			q.To = &d
		}
	}

	if raw := strings.TrimSpace(values.Get("verified")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fields["verified"] = "verified must be true or false"
		} else {
			q.Verified = &v
		}
	}

	q.Location = strings.TrimSpace(values.Get("location"))

	var near *geo.Point
	if raw := strings.TrimSpace(values.Get("near")); raw != "" {
		p, ok := parseNear(raw)
		switch {
		case !ok:
			fields["near"] = "near must be two numbers: lng,lat"
		case !p.Valid():
			fields["near"] = "near coordinates are out of range"
		default:
			near = &p
		}
	}

	if raw := strings.TrimSpace(values.Get("radiusKm")); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		switch {
		case err != nil || math.IsNaN(r) || math.IsInf(r, 0):
			fields["radiusKm"] = "radiusKm must be a number"
		case r < 0:
			fields["radiusKm"] = "radiusKm must not be negative"
		case strings.TrimSpace(values.Get("near")) == "":
			fields["radiusKm"] = "radiusKm requires near"
		default:
			q.RadiusKm = &r
		}
	}
	if q.RadiusKm != nil {
		q.Near = near
	}

	if len(fields) > 0 {
		return Query{}, store.NewValidationError(fields)
	}
	return q, nil
}

func parseNear(raw string) (geo.Point, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return geo.Point{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lng: lng}, true
}

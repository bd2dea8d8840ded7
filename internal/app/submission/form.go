// Package submission validates the two-stage listing submission form and maps
// it onto a listing.
package submission

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

// Stage names reported on validation errors.
const (
	StageBasics  = "basics"
	StageDetails = "details"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Form mirrors the submission form as the client sends it.
type Form struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	IsPermanent bool     `json:"isPermanent"`
	Location    string   `json:"location"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Price       *float64 `json:"price"`

	Website   string `json:"website"`
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	OtherLink string `json:"otherLink"`

	OrganiserName  string `json:"organiserName"`
	ContactEmail   string `json:"contactEmail"`
	ContactPhone   string `json:"contactPhone"`
	OrganiserAbout string `json:"organiserAbout"`

	AgeMin   *int `json:"ageMin"`
	AgeMax   *int `json:"ageMax"`
	Capacity *int `json:"capacity"`

	Photos         []string `json:"photos"`
	VerifiedIntent bool     `json:"verifiedIntent"`
}

func (f *Form) permanent() bool {
	return f.IsPermanent && models.ListingType(f.Type) == models.ListingTypeHub
}

// ValidateBasics runs the first stage and returns field messages, empty when valid.
func ValidateBasics(f *Form) map[string]string {
	fields := map[string]string{}
	if utf8.RuneCountInString(strings.TrimSpace(f.Title)) < 3 {
		fields["title"] = "Title must be at least 3 characters"
	}
	if strings.TrimSpace(f.Type) == "" {
		fields["type"] = "Please choose a listing type"
	} else if !models.ListingType(f.Type).Valid() {
		fields["type"] = "Type must be event or hub"
	}

	if !f.permanent() {
		start := strings.TrimSpace(f.StartDate)
		end := strings.TrimSpace(f.EndDate)
		var s, e time.Time
		var errS, errE error
		if start == "" {
			fields["startDate"] = "Start date is required"
		} else if s, errS = models.ParseDate(start); errS != nil {
			fields["startDate"] = "Start date is not a valid date"
		}
		if end != "" {
			if e, errE = models.ParseDate(end); errE != nil {
				fields["endDate"] = "End date is not a valid date"
			}
		}
		if start != "" && end != "" && errS == nil && errE == nil && e.Before(s) {
			fields["endDate"] = "End date must be on or after the start date"
		}
	}

	if strings.TrimSpace(f.Location) == "" {
		fields["location"] = "Location is required"
	}
	desc := strings.TrimSpace(f.Description)
	switch {
	case desc == "":
		fields["description"] = "Description is required"
	case utf8.RuneCountInString(desc) > 600:
		fields["description"] = "Description must be 600 characters or fewer"
	}
	return fields
}

// ValidateDetails runs the second stage and returns field messages, empty when valid.
func ValidateDetails(f *Form) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(f.OrganiserName) == "" {
		fields["organiserName"] = "Organiser name is required"
	}
	email := strings.TrimSpace(f.ContactEmail)
	switch {
	case email == "":
		fields["contactEmail"] = "Contact email is required"
	case !emailPattern.MatchString(email):
		fields["contactEmail"] = "Please enter a valid email address"
	}
	if utf8.RuneCountInString(f.OrganiserAbout) > 200 {
		fields["organiserAbout"] = "About must be 200 characters or fewer"
	}
	if models.ListingType(f.Type) == models.ListingTypeHub && len(nonEmpty(f.Photos)) == 0 {
		fields["photos"] = "Hubs need at least one photo"
	}
	if !f.VerifiedIntent {
		fields["verifiedIntent"] = "Please confirm the listing details are accurate"
	}
	if len(nonEmpty([]string{f.Website, f.Facebook, f.Instagram, f.OtherLink})) == 0 {
		fields["links"] = "Add at least one website or social link"
	}
	return fields
}

// Validate runs both stages in order. The second stage is skipped when the
// first fails.
func Validate(f *Form) error {
	if fields := ValidateBasics(f); len(fields) > 0 {
		return &store.ValidationError{Stage: StageBasics, Fields: fields}
	}
	if fields := ValidateDetails(f); len(fields) > 0 {
		return &store.ValidationError{Stage: StageDetails, Fields: fields}
	}
	return nil
}

// SplitLocation splits "city, region, country". One part is a city, two are
// city and country, and anything past the second part belongs to the country.
func SplitLocation(raw string) (city, region, country string) {
	parts := nonEmpty(strings.Split(raw, ","))
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	}
	return parts[0], parts[1], strings.Join(parts[2:], ", ")
}

// ToListing maps a validated form onto a listing payload.
func ToListing(f *Form) *models.Listing {
	city, region, country := SplitLocation(f.Location)
	l := &models.Listing{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		LType:       models.ListingType(f.Type),
		IsPermanent: f.permanent(),
		Location: models.Location{
			City:    city,
			Region:  region,
			Country: country,
			Lat:     f.Lat,
			Lng:     f.Lng,
		},
		Price:          f.Price,
		Website:        strings.TrimSpace(f.Website),
		Facebook:       strings.TrimSpace(f.Facebook),
		Instagram:      strings.TrimSpace(f.Instagram),
		OtherLink:      strings.TrimSpace(f.OtherLink),
		OrganiserName:  strings.TrimSpace(f.OrganiserName),
		OrganiserEmail: strings.TrimSpace(f.ContactEmail),
		OrganiserPhone: strings.TrimSpace(f.ContactPhone),
		OrganiserAbout: strings.TrimSpace(f.OrganiserAbout),
		AgeMin:         f.AgeMin,
		AgeMax:         f.AgeMax,
		Capacity:       f.Capacity,
		PhotoURLs:      nonEmpty(f.Photos),
		VerifiedIntent: f.VerifiedIntent,
		Verify:         models.VerifyPending,
	}
	if !l.IsPermanent {
		if start := strings.TrimSpace(f.StartDate); start != "" {
			l.StartDate = &start
		}
		if end := strings.TrimSpace(f.EndDate); end != "" {
			l.EndDate = &end
		}
	}
	return l
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

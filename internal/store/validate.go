package store

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"wanderlink/internal/models"
)

const (
	minTitleLength       = 3
	maxDescriptionLength = 600
	maxOrganiserAbout    = 200
	maxReviewComment     = 2000
)

// ValidateListing checks a listing payload before it is persisted.
func ValidateListing(l *models.Listing) error {
	fields := map[string]string{}

	if utf8.RuneCountInString(strings.TrimSpace(l.Title)) < minTitleLength {
		fields["title"] = "title must be at least 3 characters"
	}
	if !l.LType.Valid() {
		fields["ltype"] = "ltype must be 'event' or 'hub'"
	}
	if utf8.RuneCountInString(l.Description) > maxDescriptionLength {
		fields["description"] = "description must be 600 characters or fewer"
	}
	if utf8.RuneCountInString(l.OrganiserAbout) > maxOrganiserAbout {
		fields["organiser_about"] = "organiser about must be 200 characters or fewer"
	}
	if l.IsPermanent && l.LType == models.ListingTypeEvent {
		fields["is_permanent"] = "only hubs can be permanent"
	}

	validateDates(l, fields, !l.IsPermanent)

	if (l.Lat == nil) != (l.Lng == nil) {
		fields["location"] = "lat and lng must be supplied together"
	} else if p, ok := l.Point(); ok && !p.Valid() {
		fields["location"] = "coordinates are out of range"
	}

	if l.Price != nil && *l.Price < 0 {
		fields["price"] = "price must not be negative"
	}
	if l.Capacity != nil && *l.Capacity < 0 {
		fields["capacity"] = "capacity must not be negative"
	}
	if l.AgeMin != nil && l.AgeMax != nil && *l.AgeMin > *l.AgeMax {
		fields["age_range"] = "minimum age must not exceed maximum age"
	}
	if l.OrganiserEmail != "" {
		if _, err := mail.ParseAddress(l.OrganiserEmail); err != nil {
			fields["organiser_email"] = "organiser email is not valid"
		}
	}

	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// validateDates checks date formats and ordering. Permanent listings may omit
// dates entirely, but anything supplied must still parse.
func validateDates(l *models.Listing, fields map[string]string, required bool) {
	hasStart := l.StartDate != nil && strings.TrimSpace(*l.StartDate) != ""
	hasEnd := l.EndDate != nil && strings.TrimSpace(*l.EndDate) != ""

	if !hasStart && required {
		fields["start_date"] = "start date is required unless the listing is permanent"
	}

	var start, end time.Time
	var err error
	if hasStart {
		if start, err = models.ParseDate(*l.StartDate); err != nil {
			fields["start_date"] = "start date must be YYYY-MM-DD"
			hasStart = false
		}
	}
	if hasEnd {
		if end, err = models.ParseDate(*l.EndDate); err != nil {
			fields["end_date"] = "end date must be YYYY-MM-DD"
			hasEnd = false
		}
	}
	if hasStart && hasEnd && end.Before(start) {
		fields["end_date"] = "end date must not be before start date"
	}
}

// ValidateReview checks a review payload before it is persisted.
func ValidateReview(r *models.Review) error {
	fields := map[string]string{}
	if r.ListingID == "" {
		fields["listing_id"] = "listing_id is required"
	}
	if r.Rating < 1 || r.Rating > 5 {
		fields["rating"] = "rating must be between 1 and 5"
	}
	if utf8.RuneCountInString(r.Comment) > maxReviewComment {
		fields["comment"] = "comment must be 2000 characters or fewer"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// NormalizeDates rewrites listing dates to DateLayout.
func NormalizeDates(l *models.Listing) {
	l.StartDate = normalizeDate(l.StartDate)
	l.EndDate = normalizeDate(l.EndDate)
}

func normalizeDate(raw *string) *string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := models.ParseDate(*raw)
	if err != nil {
		return raw
	}
	s := t.Format(models.DateLayout)
	return &s
}

const (
	maxDisplayName = 80
	maxBio         = 500
	maxInterests   = 20
	maxInterestLen = 40
)

// ValidateProfileUpdate checks the client-editable profile fields.
func ValidateProfileUpdate(u models.ProfileUpdate) error {
	fields := map[string]string{}
	if u.DisplayName != nil && utf8.RuneCountInString(strings.TrimSpace(*u.DisplayName)) > maxDisplayName {
		fields["display_name"] = "display name must be 80 characters or fewer"
	}
	if u.Bio != nil && utf8.RuneCountInString(*u.Bio) > maxBio {
		fields["bio"] = "bio must be 500 characters or fewer"
	}
	if u.Interests != nil {
		if len(*u.Interests) > maxInterests {
			fields["interests"] = "at most 20 interests are allowed"
		}
		for _, interest := range *u.Interests {
			if strings.TrimSpace(interest) == "" || utf8.RuneCountInString(interest) > maxInterestLen {
				fields["interests"] = "interests must be non-empty and 40 characters or fewer"
				break
			}
		}
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

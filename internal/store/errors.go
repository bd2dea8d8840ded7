package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrListingNotFound indicates the referenced listing does not exist.
	ErrListingNotFound = errors.New("listing not found")
	// ErrNotOwner indicates the caller may not mutate the listing.
	ErrNotOwner = errors.New("only the creator may modify this listing")
	// ErrProfileNotFound indicates no profile row exists for the user.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileExists is returned when a profile is created twice.
	ErrProfileExists = errors.New("profile already exists")
	// ErrFavouriteExists signals a duplicate (user, listing) favourite.
	ErrFavouriteExists = errors.New("listing already in favourites")
	// ErrFavouriteNotFound indicates there was nothing to remove.
	ErrFavouriteNotFound = errors.New("favourite not found")
)

// ValidationError reports field-level problems with a request payload.
type ValidationError struct {
	Stage  string            `json:"stage,omitempty"`
	Fields map[string]string `json:"fields"`
}

// NewValidationError builds a ValidationError from field messages.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	prefix := "validation failed"
	if e.Stage != "" {
		prefix = e.Stage + " validation failed"
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

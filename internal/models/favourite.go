package models

import "time"

// Favourite marks a listing as saved by a user. Unique per (user, listing).
type Favourite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// Review is a rating with an optional comment left on a listing.
type Review struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"` // 1–5
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

const demoOwner = "demo-organiser"

// bootstrapDemoData seeds a handful of verified listings into an empty store.
func bootstrapDemoData(ctx context.Context, repo store.Repository) error {
	existing, err := repo.ListListings(ctx, store.ListingFilter{})
	if err != nil {
		return fmt.Errorf("check existing listings: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	str := func(s string) *string { return &s }
	num := func(f float64) *float64 { return &f }

	seeds := []*models.Listing{
		{
			Title:       "Lisbon Worldschool Hub",
			Description: "Co-working for parents and project-based classes for kids, open all year.",
			LType:       models.ListingTypeHub,
			IsPermanent: true,
			Location:    models.Location{City: "Lisbon", Country: "Portugal", Lat: num(38.7223), Lng: num(-9.1393)},
			Website:     "https://example.com/lisbon-hub",
			PhotoURLs:   []string{"https://images.example.com/lisbon.jpg"},
		},
		{
			Title:       "Paris Museum Week",
			Description: "Five days of guided museum visits for worldschooling families.",
			LType:       models.ListingTypeEvent,
			StartDate:   str("2027-04-05"),
			EndDate:     str("2027-04-09"),
			Location:    models.Location{City: "Paris", Region: "Île-de-France", Country: "France", Lat: num(48.8566), Lng: num(2.3522)},
			Price:       num(120),
			Website:     "https://example.com/paris-week",
		},
		{
			Title:       "Chiang Mai Family Gathering",
			Description: "A month-long meetup with language exchange and nature trips.",
			LType:       models.ListingTypeEvent,
			StartDate:   str("2027-01-10"),
			EndDate:     str("2027-02-10"),
			Location:    models.Location{City: "Chiang Mai", Country: "Thailand", Lat: num(18.7883), Lng: num(98.9853)},
			Instagram:   "https://instagram.com/example",
		},
	}

	for _, seed := range seeds {
		seed.CreatedBy = demoOwner
		created, err := repo.CreateListing(ctx, seed)
		if err != nil {
			return fmt.Errorf("seed %q: %w", seed.Title, err)
		}
		if _, err := repo.SetVerifyStatus(ctx, created.ID, models.VerifyVerified); err != nil {
			return fmt.Errorf("verify %q: %w", seed.Title, err)
		}
	}
	log.Info().Int("listings", len(seeds)).Msg("seeded demo listings")
	return nil
}

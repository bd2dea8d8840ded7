package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"wanderlink/internal/app/billing"
	"wanderlink/internal/app/favorites"
	"wanderlink/internal/app/listings"
	"wanderlink/internal/app/moderation"
	"wanderlink/internal/app/profiles"
	"wanderlink/internal/app/reviews"
	"wanderlink/internal/app/submission"
	"wanderlink/internal/auth"
	"wanderlink/internal/cache"
	"wanderlink/internal/config"
	"wanderlink/internal/http/middleware"
	"wanderlink/internal/httpapi"
	"wanderlink/internal/metrics"
	"wanderlink/internal/storage"
	"wanderlink/internal/store"
)

func newHTTPHandler(ctx context.Context, cfg *config.Config, repo store.Repository) (http.Handler, error) {
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		repo = cache.NewListingCache(repo, client, cfg.Redis.TTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("listing cache enabled")
	}

	policy := moderation.Permissive
	if cfg.Moderation.Strict {
		policy = moderation.Strict
	}

	var gateway billing.Gateway
	if cfg.Stripe.SecretKey != "" {
		gateway = billing.NewStripeGateway(billing.StripeConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			PriceID:       cfg.Stripe.PriceID,
			SuccessURL:    cfg.Stripe.SuccessURL,
			CancelURL:     cfg.Stripe.CancelURL,
		})
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, billing disabled")
	}

	var uploads httpapi.PhotoUploader
	if cfg.Storage.Endpoint != "" {
		photos, err := storage.NewMinIO(ctx, storage.Config{
			Endpoint:      cfg.Storage.Endpoint,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			Bucket:        cfg.Storage.Bucket,
			UseSSL:        cfg.Storage.UseSSL,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("photo storage: %w", err)
		}
		uploads = photos
	} else {
		log.Warn().Msg("S3_ENDPOINT not set, photo uploads disabled")
	}

	listingSvc := listings.New(repo)
	m := metrics.New()

	api := httpapi.New(httpapi.Services{
		Verifier:    auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.AdminRole),
		Listings:    listingSvc,
		Reviews:     reviews.New(repo),
		Submissions: submission.New(listingSvc),
		Profiles:    profiles.New(repo),
		Favourites:  favorites.New(repo),
		Moderation:  moderation.New(repo, policy),
		Billing:     billing.New(repo, gateway),
		Uploads:     uploads,
		Metrics:     m,
	})

	var handler http.Handler = api.Routes()
	handler = middleware.Metrics(m)(handler)
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.Recovery()(handler)
	handler = middleware.RequestLogging()(handler)
	return handler, nil
}

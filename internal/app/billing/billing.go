// Package billing runs the supporter subscription lifecycle: checkout,
// cancellation and the provider webhooks that drive profile state.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"wanderlink/internal/app/profiles"
	"wanderlink/internal/auth"
	"wanderlink/internal/logging"
	"wanderlink/internal/models"
	"wanderlink/internal/store"
)

var (
	// ErrNoSubscription is returned when cancelling without a saved subscription.
	ErrNoSubscription = errors.New("no subscription to cancel")
	// ErrInvalidSignature indicates the webhook payload failed verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrNotConfigured is returned when no payment gateway is wired.
	ErrNotConfigured = errors.New("payments are not configured")
)

// Webhook event types acted upon.
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// CheckoutSession is returned to the client to redirect into checkout.
type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// SubscriptionState is the provider's view of a subscription after a change.
type SubscriptionState struct {
	Status    string
	PeriodEnd *time.Time
}

// Event is a verified webhook event reduced to the fields billing needs.
type Event struct {
	ID             string
	Type           string
	UserID         string
	CustomerID     string
	SubscriptionID string
	Status         string
	PeriodEnd      *time.Time
}

// Gateway abstracts the payment provider.
type Gateway interface {
	CreateCustomer(ctx context.Context, userID, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, userID string) (*CheckoutSession, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*SubscriptionState, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// Store defines the persistence hooks for billing.
type Store interface {
	profiles.Store
	ProfileByCustomerID(ctx context.Context, customerID string) (*models.Profile, error)
	ApplySubscriptionChange(ctx context.Context, userID string, change models.SubscriptionChange) (*models.Profile, error)
}

// Service exposes the billing operations.
type Service interface {
	CreateCheckout(ctx context.Context, identity *auth.Identity) (*CheckoutSession, error)
	CancelSubscription(ctx context.Context, identity *auth.Identity) (*models.Profile, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type service struct {
	store   Store
	gateway Gateway
}

// New constructs a billing Service. A nil gateway yields ErrNotConfigured.
func New(store Store, gateway Gateway) Service {
	return &service{store: store, gateway: gateway}
}

func (s *service) CreateCheckout(ctx context.Context, identity *auth.Identity) (*CheckoutSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	if s.gateway == nil {
		return nil, ErrNotConfigured
	}

	profile, err := profiles.Ensure(ctx, s.store, identity.UserID)
	if err != nil {
		return nil, err
	}

	customerID := profile.StripeCustomerID
	if customerID == "" {
		customerID, err = s.gateway.CreateCustomer(ctx, identity.UserID, identity.Email)
		if err != nil {
			return nil, err
		}
		if _, err := s.store.ApplySubscriptionChange(ctx, identity.UserID, models.SubscriptionChange{CustomerID: &customerID}); err != nil {
			return nil, fmt.Errorf("save customer id: %w", err)
		}
	}

	return s.gateway.CreateCheckoutSession(ctx, customerID, identity.UserID)
}

func (s *service) CancelSubscription(ctx context.Context, identity *auth.Identity) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}
	if s.gateway == nil {
		return nil, ErrNotConfigured
	}

	profile, err := profiles.Ensure(ctx, s.store, identity.UserID)
	if err != nil {
		return nil, err
	}
	if profile.StripeSubscriptionID == "" {
		return nil, ErrNoSubscription
	}

	state, err := s.gateway.CancelAtPeriodEnd(ctx, profile.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}
	return s.store.ApplySubscriptionChange(ctx, identity.UserID, models.SubscriptionChange{
		Status:    &state.Status,
		PeriodEnd: state.PeriodEnd,
	})
}

// HandleWebhook verifies and applies a provider event. Unknown event types
// and unknown customers are acknowledged without error.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrNotConfigured
	}
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx).With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()

	change, ok := changeFor(event)
	if !ok {
		logger.Debug().Msg("ignoring webhook event")
		return nil
	}

	userID, err := s.resolveUser(ctx, event)
	if errors.Is(err, store.ErrProfileNotFound) {
		logger.Warn().Str("customer_id", event.CustomerID).Msg("webhook for unknown customer")
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.store.ApplySubscriptionChange(ctx, userID, change); err != nil {
		return fmt.Errorf("apply %s: %w", event.Type, err)
	}
	logEvent(&logger, userID, change)
	return nil
}

func (s *service) resolveUser(ctx context.Context, event *Event) (string, error) {
	if event.Type == EventCheckoutCompleted && event.UserID != "" {
		profile, err := profiles.Ensure(ctx, s.store, event.UserID)
		if err != nil {
			return "", err
		}
		return profile.UserID, nil
	}
	profile, err := s.store.ProfileByCustomerID(ctx, event.CustomerID)
	if err != nil {
		return "", err
	}
	return profile.UserID, nil
}

func changeFor(event *Event) (models.SubscriptionChange, bool) {
	var change models.SubscriptionChange
	switch event.Type {
	case EventCheckoutCompleted:
		change.IsSupporter = boolPtr(true)
		change.Status = strPtr(models.SubscriptionActive)
		change.ClearPeriodEnd = true
		if event.CustomerID != "" {
			change.CustomerID = strPtr(event.CustomerID)
		}
		if event.SubscriptionID != "" {
			change.SubscriptionID = strPtr(event.SubscriptionID)
		}
	case EventSubscriptionUpdated:
		active := event.Status == models.SubscriptionActive || event.Status == models.SubscriptionTrialing
		change.IsSupporter = boolPtr(active)
		change.Status = strPtr(event.Status)
		change.PeriodEnd = event.PeriodEnd
		if event.SubscriptionID != "" {
			change.SubscriptionID = strPtr(event.SubscriptionID)
		}
	case EventSubscriptionDeleted:
		change.IsSupporter = boolPtr(false)
		change.Status = strPtr(models.SubscriptionCanceled)
	case EventInvoicePaymentFailed:
		change.IsSupporter = boolPtr(false)
		change.Status = strPtr(models.SubscriptionPastDue)
	default:
		return change, false
	}
	return change, true
}

func logEvent(logger *zerolog.Logger, userID string, change models.SubscriptionChange) {
	e := logger.Info().Str("user_id", userID)
	if change.IsSupporter != nil {
		e = e.Bool("is_supporter", *change.IsSupporter)
	}
	if change.Status != nil {
		e = e.Str("status", *change.Status)
	}
	e.Msg("subscription updated")
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

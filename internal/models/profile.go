package models

import "time"

// Subscription statuses mirrored from the payment provider. Any provider
// status string may be stored; these are the ones the service reasons about.
const (
	SubscriptionNone     = "none"
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Profile holds per-user settings and supporter state.
type Profile struct {
	UserID                string     `json:"id"`
	DisplayName           string     `json:"display_name"`
	Bio                   string     `json:"bio"`
	Interests             []string   `json:"interests"`
	ProfilePictureURL     string     `json:"profile_picture_url"`
	IsSupporter           bool       `json:"is_supporter"`
	SubscriptionStatus    string     `json:"subscription_status"`
	SubscriptionPeriodEnd *time.Time `json:"subscription_period_end,omitempty"`
	StripeCustomerID      string     `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID  string     `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// ActiveSupporter reports whether the profile may use supporter-only features.
func (p *Profile) ActiveSupporter() bool {
	return p != nil && p.IsSupporter && p.SubscriptionStatus != SubscriptionCanceled
}

// ProfileUpdate carries the client-editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName       *string   `json:"display_name"`
	Bio               *string   `json:"bio"`
	Interests         *[]string `json:"interests"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
}

// SubscriptionChange is applied to a profile when the payment provider reports
// a lifecycle event. Nil fields are left unchanged.
type SubscriptionChange struct {
	IsSupporter    *bool
	Status         *string
	PeriodEnd      *time.Time
	CustomerID     *string
	SubscriptionID *string

	// ClearPeriodEnd drops a stored period end when PeriodEnd is nil. A new
	// checkout starts a subscription whose end is not yet known.
	ClearPeriodEnd bool
}

// Apply copies the non-nil fields of c onto p.
func (c SubscriptionChange) Apply(p *Profile) {
	if c.IsSupporter != nil {
		p.IsSupporter = *c.IsSupporter
	}
	if c.Status != nil {
		p.SubscriptionStatus = *c.Status
	}
	if c.PeriodEnd != nil {
		end := *c.PeriodEnd
		p.SubscriptionPeriodEnd = &end
	} else if c.ClearPeriodEnd {
		p.SubscriptionPeriodEnd = nil
	}
	if c.CustomerID != nil {
		p.StripeCustomerID = *c.CustomerID
	}
	if c.SubscriptionID != nil {
		p.StripeSubscriptionID = *c.SubscriptionID
	}
}

// Apply copies the non-nil fields of u onto p.
func (u ProfileUpdate) Apply(p *Profile) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Interests != nil {
		p.Interests = append([]string(nil), (*u.Interests)...)
	}
	if u.ProfilePictureURL != nil {
		p.ProfilePictureURL = *u.ProfilePictureURL
	}
}

package models

import "time"

const (
	SubscriptionActive    = "active"
	SubscriptionInactive  = "inactive"
	SubscriptionCancelled = "cancelled"
)

// Subscription mirrors the payment gateway's view of a user's premium plan.
// One row per user, written only by the webhook handler.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               string     `gorm:"size:36;not null;uniqueIndex" json:"user_id"`
	Status               string     `gorm:"size:20;not null;default:'inactive';index" json:"status"`
	StripeCustomerID     string     `gorm:"size:191" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"size:191;index" json:"stripe_subscription_id"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActiveAt reports whether the subscription entitles its user at t.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s.Status == SubscriptionActive && s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.After(t)
}

package models

import "time"

// SubscriptionStatus is the lifecycle state of a subscription row.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// Billing providers.
const (
	ProviderManual = "manual"
	ProviderStripe = "stripe"
)

// PaymentStatus is the outcome of a charge.
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Subscription is one billing period grant for a user.
type Subscription struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	UserID             uint               `gorm:"not null;index" json:"user_id"`
	Tier               SubscriptionTier   `gorm:"type:varchar(20);not null" json:"tier"`
	Status             SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Provider           string             `gorm:"size:20;not null;default:'manual'" json:"provider"`
	ProviderRef        string             `gorm:"size:255" json:"provider_ref,omitempty"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `gorm:"index" json:"current_period_end"`
	CancelAtPeriodEnd  bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Subscription) TableName() string {
	return "subscriptions"
}

// Payment is a ledger entry.
type Payment struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"not null;index" json:"user_id"`
	SubscriptionID *uint         `gorm:"index" json:"subscription_id,omitempty"`
	AmountCents    int64         `gorm:"not null" json:"amount_cents"`
	Currency       string        `gorm:"size:3;not null;default:'usd'" json:"currency"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	Provider       string        `gorm:"size:20;not null;default:'manual'" json:"provider"`
	ProviderRef    string        `gorm:"size:255" json:"provider_ref,omitempty"`
	PaidAt         time.Time     `json:"paid_at"`
	CreatedAt      time.Time     `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Payment) TableName() string {
	return "payments"
}

// SubscriptionSummary is what an owner sees on the billing page.
type SubscriptionSummary struct {
	Tier            SubscriptionTier `json:"tier"`
	Limits          TierLimits       `json:"limits"`
	RestaurantsUsed int64            `json:"restaurants_used"`
	CanCreate       bool             `json:"can_create_restaurant"`
	Active          *Subscription    `json:"active_subscription"`
}

// AdminStats is the admin dashboard counter set.
type AdminStats struct {
	Users           int64 `json:"users"`
	PremiumUsers    int64 `json:"premium_users"`
	Restaurants     int64 `json:"restaurants"`
	MenuItems       int64 `json:"menu_items"`
	ViewsLast7Days  int64 `json:"views_last_7_days"`
	PendingFeedback int64 `json:"pending_feedback"`
}

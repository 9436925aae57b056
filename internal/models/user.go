// Package models contains data structures for the application's domain models.
package models

import "time"

// SubscriptionTier is the billing level of an account.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// ParseTier normalizes a tier string. Unknown values fall back to free.
func ParseTier(s string) SubscriptionTier {
	if SubscriptionTier(s) == TierPremium {
		return TierPremium
	}
	return TierFree
}

// User represents a restaurant owner or administrator account.
type User struct {
	ID                   uint             `gorm:"primaryKey" json:"id"`
	Username             string           `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email                string           `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password             string           `gorm:"not null" json:"-"`
	FullName             string           `gorm:"size:120" json:"full_name"`
	Phone                string           `gorm:"size:32;index" json:"phone,omitempty"`
	IsAdmin              bool             `gorm:"not null;default:false" json:"is_admin"`
	SubscriptionTier     SubscriptionTier `gorm:"type:varchar(20);not null;default:'free'" json:"subscription_tier"`
	StripeCustomerID     string           `gorm:"size:255" json:"-"`
	StripeSubscriptionID string           `gorm:"size:255" json:"-"`
	ResetToken           string           `gorm:"size:64;index" json:"-"`
	ResetTokenExpiry     *time.Time       `json:"-"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// IsPremium reports whether the account is on the paid tier.
func (u *User) IsPremium() bool {
	return u.SubscriptionTier == TierPremium
}

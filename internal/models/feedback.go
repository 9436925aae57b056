package models

import "time"

// FeedbackStatus is the moderation state of a feedback entry.
type FeedbackStatus string

const (
	// FeedbackPending is awaiting owner moderation.
	FeedbackPending FeedbackStatus = "pending"
	// FeedbackApproved is shown publicly.
	FeedbackApproved FeedbackStatus = "approved"
	// FeedbackRejected is hidden.
	FeedbackRejected FeedbackStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackPending, FeedbackApproved, FeedbackRejected:
		return true
	}
	return false
}

// Feedback is a diner rating for a restaurant or one of its items.
type Feedback struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	RestaurantID  uint           `gorm:"not null;index" json:"restaurant_id"`
	MenuItemID    *uint          `gorm:"index" json:"menu_item_id,omitempty"`
	Rating        int            `gorm:"not null" json:"rating"`
	Comment       string         `gorm:"type:text" json:"comment,omitempty"`
	CustomerName  string         `gorm:"size:100" json:"customer_name,omitempty"`
	CustomerEmail string         `gorm:"size:254" json:"customer_email,omitempty"`
	Status        FeedbackStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Feedback) TableName() string {
	return "feedback"
}

// PublicFeedback is the approved feedback list with its average rating.
type PublicFeedback struct {
	Items         []Feedback `json:"items"`
	AverageRating float64    `json:"average_rating"`
	Count         int        `json:"count"`
}

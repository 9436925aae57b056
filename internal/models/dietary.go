package models

import (
	"time"

	"gorm.io/datatypes"
)

// DietaryPreference belongs either to a user or to an anonymous session.
// Exactly one of UserID and SessionID is set.
type DietaryPreference struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	UserID      *uint                       `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionID   *string                     `gorm:"size:36;uniqueIndex" json:"session_id,omitempty"`
	Preferences DietaryFlags                `json:"preferences"`
	Allergies   datatypes.JSONSlice[string] `gorm:"not null;default:'[]'" json:"allergies"`
	CalorieGoal *int                        `json:"calorie_goal"`
	IsActive    bool                        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (DietaryPreference) TableName() string {
	return "dietary_preferences"
}

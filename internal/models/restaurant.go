package models

import (
	"time"

	"gorm.io/datatypes"
)

// DayHours is the opening window for a single weekday.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// OpeningHours is keyed by lower-case weekday name ("monday" … "sunday").
type OpeningHours map[string]DayHours

// Restaurant is a tenant venue owned by a single user.
type Restaurant struct {
	ID               uint                              `gorm:"primaryKey" json:"id"`
	UserID           uint                              `gorm:"not null;index" json:"user_id"`
	Name             string                            `gorm:"size:120;not null" json:"name"`
	Slug             string                            `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description      string                            `gorm:"type:text" json:"description"`
	Cuisine          string                            `gorm:"size:80" json:"cuisine"`
	Address          string                            `gorm:"size:255" json:"address"`
	Phone            string                            `gorm:"size:32" json:"phone"`
	Website          string                            `gorm:"size:255" json:"website"`
	LogoURL          string                            `gorm:"type:text" json:"logo_url"`
	BannerURL        string                            `gorm:"type:text" json:"banner_url"`
	BannerURLs       datatypes.JSONSlice[string]       `gorm:"not null;default:'[]'" json:"banner_urls"`
	ThemeSettings    datatypes.JSONMap                 `json:"theme_settings"`
	HoursOfOperation datatypes.JSONType[OpeningHours] `gorm:"not null;default:'{}'" json:"hours_of_operation"`
	Tags             datatypes.JSONSlice[string]       `gorm:"not null;default:'[]'" json:"tags"`
	IsPublished      bool                              `gorm:"not null;default:true" json:"is_published"`
	CreatedAt        time.Time                         `json:"created_at"`
	UpdatedAt        time.Time                         `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Restaurant) TableName() string {
	return "restaurants"
}

// PublicMenu is the diner-facing view of a restaurant with its menu tree.
type PublicMenu struct {
	Restaurant Restaurant     `json:"restaurant"`
	Categories []MenuCategory `json:"categories"`
}

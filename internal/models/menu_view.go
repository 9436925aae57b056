package models

import "time"

// ViewSource records how a diner reached the menu.
type ViewSource string

const (
	// ViewSourceQR is a scan of the printed QR code.
	ViewSourceQR ViewSource = "qr"
	// ViewSourceLink is any direct link visit.
	ViewSourceLink ViewSource = "link"
)

// Valid reports whether s is a known view source.
func (s ViewSource) Valid() bool {
	return s == ViewSourceQR || s == ViewSourceLink
}

// MenuView is an append-only analytics event.
type MenuView struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"not null;index:idx_menu_views_restaurant_time,priority:1" json:"restaurant_id"`
	Source       ViewSource `gorm:"type:varchar(10);not null;default:'link'" json:"source"`
	ViewedAt     time.Time  `gorm:"not null;index:idx_menu_views_restaurant_time,priority:2" json:"viewed_at"`
}

// TableName specifies the table name for GORM.
func (MenuView) TableName() string {
	return "menu_views"
}

// DailyViews is a per-day count in an analytics window.
type DailyViews struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// ViewAnalytics summarises menu views for one restaurant.
type ViewAnalytics struct {
	RestaurantID uint                 `json:"restaurant_id"`
	Days         int                  `json:"days"`
	Total        int64                `json:"total"`
	BySource     map[ViewSource]int64 `json:"by_source"`
	Daily        []DailyViews         `json:"daily"`
}

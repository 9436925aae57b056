package models

import "time"

// MenuCategory groups menu items within a restaurant.
type MenuCategory struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"not null;index" json:"restaurant_id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	DisplayOrder int        `gorm:"not null;default:0" json:"display_order"`
	Items        []MenuItem `gorm:"foreignKey:CategoryID" json:"items,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (MenuCategory) TableName() string {
	return "menu_categories"
}

// MenuItem is a single dish or drink. Price is kept as a decimal string.
// Allergens, DietaryInfo and Calories are nullable; nil means unknown.
type MenuItem struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CategoryID   uint         `gorm:"not null;index" json:"category_id"`
	Name         string       `gorm:"size:120;not null" json:"name"`
	Description  string       `gorm:"type:text" json:"description"`
	Price        string       `gorm:"size:20;not null" json:"price"`
	ImageURL     string       `gorm:"type:text" json:"image_url"`
	Tags         StringList   `json:"tags"`
	Allergens    StringList   `json:"allergens"`
	DietaryInfo  DietaryFlags `json:"dietary_info"`
	Calories     *int         `json:"calories"`
	IsAvailable  bool         `gorm:"not null;default:true" json:"is_available"`
	DisplayOrder int          `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (MenuItem) TableName() string {
	return "menu_items"
}

package database

import "vividplate/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Restaurant{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.MenuView{},
		&models.DietaryPreference{},
		&models.Feedback{},
		&models.Subscription{},
		&models.Payment{},
	}
}

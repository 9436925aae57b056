package seed

import (
	"errors"
	"fmt"

	"vividplate/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Demo restaurant identity. The demo owner has a random password and is
// only reachable through a password reset.
const (
	DemoSlug       = "vividplate-demo"
	DemoOwnerEmail = "demo@vividplate.local"
)

// DemoItem is one dish of the built-in demo menu.
type DemoItem struct {
	Name        string
	Description string
	Price       string
	Calories    int
	Allergens   []string
	Dietary     map[string]bool
}

// DemoCategory groups demo dishes.
type DemoCategory struct {
	Name  string
	Items []DemoItem
}

// DemoMenu is the fixed menu of the demo restaurant.
var DemoMenu = []DemoCategory{
	{Name: "Starters", Items: []DemoItem{
		{Name: "Roasted Tomato Soup", Description: "Slow-roasted tomatoes, basil oil.", Price: "6.50", Calories: 210,
			Dietary: map[string]bool{"vegetarian": true, "vegan": true, "gluten_free": true, "dairy_free": true}},
		{Name: "Burrata", Description: "Heirloom tomatoes, sourdough crisps.", Price: "9.00", Calories: 430,
			Allergens: []string{"Dairy", "Gluten"}, Dietary: map[string]bool{"vegetarian": true}},
	}},
	{Name: "Mains", Items: []DemoItem{
		{Name: "Buddha Bowl", Description: "Quinoa, roasted squash, tahini.", Price: "13.50", Calories: 540,
			Allergens: []string{"Sesame"}, Dietary: map[string]bool{"vegetarian": true, "vegan": true, "gluten_free": true, "dairy_free": true}},
		{Name: "Steak Frites", Description: "Flat iron steak, herb butter, fries.", Price: "21.00", Calories: 980,
			Allergens: []string{"Dairy"}, Dietary: map[string]bool{"gluten_free": true}},
		{Name: "Pad Thai", Description: "Rice noodles, tamarind, peanuts.", Price: "14.00", Calories: 720,
			Allergens: []string{"Nuts", "Eggs", "Soy"}, Dietary: map[string]bool{"dairy_free": true}},
	}},
	{Name: "Desserts", Items: []DemoItem{
		{Name: "Dark Chocolate Torte", Description: "Flourless, with crème fraîche.", Price: "7.50", Calories: 460,
			Allergens: []string{"Dairy", "Eggs"}, Dietary: map[string]bool{"vegetarian": true, "gluten_free": true}},
		{Name: "Mango Sorbet", Description: "Alphonso mango.", Price: "5.00", Calories: 180,
			Dietary: map[string]bool{"vegetarian": true, "vegan": true, "gluten_free": true, "dairy_free": true}},
	}},
}

// Demo seeds the demo owner and restaurant. It is idempotent: an existing
// demo restaurant keeps its menu untouched.
func Demo(db *gorm.DB) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		owner, err := ensureDemoOwner(tx)
		if err != nil {
			return err
		}

		r := models.Restaurant{
			UserID:      owner.ID,
			Name:        "VividPlate Demo Kitchen",
			Slug:        DemoSlug,
			Description: "A sample menu showing every VividPlate feature.",
			Cuisine:     "Modern European",
			BannerURLs:  datatypes.JSONSlice[string]{},
			HoursOfOperation: datatypes.NewJSONType(models.OpeningHours{
				"monday": {Closed: true},
				"friday": {Open: "12:00", Close: "23:00"},
			}),
			Tags:        datatypes.JSONSlice[string]{"demo"},
			IsPublished: true,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "updated_at"}),
		}).Create(&r).Error; err != nil {
			return err
		}
		if r.ID == 0 {
			if err := tx.Where("slug = ?", DemoSlug).First(&r).Error; err != nil {
				return err
			}
		}

		var categories int64
		if err := tx.Model(&models.MenuCategory{}).Where("restaurant_id = ?", r.ID).Count(&categories).Error; err != nil {
			return err
		}
		if categories > 0 {
			return nil
		}

		for order, dc := range DemoMenu {
			cat := models.MenuCategory{RestaurantID: r.ID, Name: dc.Name, DisplayOrder: order}
			if err := tx.Create(&cat).Error; err != nil {
				return err
			}
			items := make([]models.MenuItem, 0, len(dc.Items))
			for i, di := range dc.Items {
				kcal := di.Calories
				items = append(items, models.MenuItem{
					CategoryID:   cat.ID,
					Name:         di.Name,
					Description:  di.Description,
					Price:        di.Price,
					Allergens:    models.StringList(di.Allergens),
					DietaryInfo:  models.DietaryFlags(di.Dietary),
					Calories:     &kcal,
					IsAvailable:  true,
					DisplayOrder: i,
				})
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed demo restaurant: %w", err)
	}
	return nil
}

func ensureDemoOwner(tx *gorm.DB) (*models.User, error) {
	var owner models.User
	err := tx.Where("email = ?", DemoOwnerEmail).First(&owner).Error
	switch {
	case err == nil:
		return &owner, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	owner = models.User{
		Username:         "vividplate_demo",
		Email:            DemoOwnerEmail,
		Password:         string(hash),
		FullName:         "Demo Owner",
		SubscriptionTier: models.TierPremium,
	}
	if err := tx.Create(&owner).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

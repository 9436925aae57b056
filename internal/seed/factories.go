// Package seed provides helpers to create demo data for development
// databases. They are not used on production request paths.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"vividplate/internal/models"
	"vividplate/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated owner.
const DefaultPassword = "Passw0rd!demo"

var (
	categoryNames = []string{"Starters", "Mains", "Desserts", "Drinks", "Sides", "Specials"}
	cuisines      = []string{"Italian", "Japanese", "Mexican", "Indian", "Lebanese", "Thai", "Modern European", "Vegan"}
	venueWords    = []string{"Kitchen", "Bistro", "Cafe", "Grill", "Eatery", "Canteen"}
	allergenPool  = []string{"Gluten", "Dairy", "Nuts", "Eggs", "Soy", "Shellfish", "Sesame"}
	dietaryKeys   = []string{"vegetarian", "vegan", "gluten_free", "dairy_free", "keto"}
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	rng   *rand.Rand

	hash   string
	nextID uint
}

// NewFactory creates a Factory bound to db. A zero opts.RandomSeed seeds
// from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(seed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rng:    rand.New(rand.NewSource(seed)),
		nextID: 1000,
	}
}

func (f *Factory) passwordHash() string {
	if f.hash != "" {
		return f.hash
	}
	if f.opts.SkipBcrypt {
		f.hash = DefaultPassword
		return f.hash
	}
	// MinCost keeps large seeds fast; these accounts are throwaway.
	h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		log.Printf("seed: hash password: %v", err)
		return DefaultPassword
	}
	f.hash = string(h)
	return f.hash
}

func (f *Factory) create(kind string, v any) error {
	if f.opts.DryRun {
		return nil
	}
	if err := f.db.Create(v).Error; err != nil {
		return fmt.Errorf("create %s: %w", kind, err)
	}
	return nil
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

// CreateOwner persists a restaurant owner. Overrides run before saving.
func (f *Factory) CreateOwner(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	handle := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, f.faker.Number(10, 9999)))
	handle = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return -1
	}, handle)

	user := &models.User{
		Username:         truncate(handle, 30),
		Email:            handle + "@example.com",
		Password:         f.passwordHash(),
		FullName:         first + " " + last,
		Phone:            f.faker.Phone(),
		SubscriptionTier: models.TierFree,
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.syntheticID()
		return user, nil
	}
	return user, f.create("owner", user)
}

// CreateRestaurant persists a published restaurant for owner.
func (f *Factory) CreateRestaurant(owner *models.User, overrides ...func(*models.Restaurant)) (*models.Restaurant, error) {
	name := fmt.Sprintf("%s %s", f.faker.LastName(), f.faker.RandomString(venueWords))
	slug := strings.Trim(validation.Slugify(name), "-") + "-" + strings.ReplaceAll(f.faker.UUID(), "-", "")[:6]

	r := &models.Restaurant{
		UserID:           owner.ID,
		Name:             name,
		Slug:             slug,
		Description:      f.faker.Sentence(14),
		Cuisine:          f.faker.RandomString(cuisines),
		Address:          f.faker.Address().Address,
		Phone:            f.faker.Phone(),
		Website:          f.faker.URL(),
		BannerURLs:       datatypes.JSONSlice[string]{},
		ThemeSettings:    datatypes.JSONMap{"primary_color": f.faker.HexColor(), "font": "Inter"},
		HoursOfOperation: datatypes.NewJSONType(f.openingHours()),
		Tags:             datatypes.JSONSlice[string]{strings.ToLower(f.faker.RandomString(cuisines))},
		IsPublished:      true,
	}
	for _, override := range overrides {
		override(r)
	}

	if f.opts.DryRun {
		r.ID = f.syntheticID()
		return r, nil
	}
	return r, f.create("restaurant", r)
}

func (f *Factory) openingHours() models.OpeningHours {
	hours := models.OpeningHours{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		if day == "monday" && f.faker.Bool() {
			hours[day] = models.DayHours{Closed: true}
			continue
		}
		hours[day] = models.DayHours{
			Open:  fmt.Sprintf("%02d:00", 7+f.rng.Intn(5)),
			Close: fmt.Sprintf("%02d:30", 20+f.rng.Intn(3)),
		}
	}
	return hours
}

// CreateCategory persists a category at position order.
func (f *Factory) CreateCategory(r *models.Restaurant, name string, order int) (*models.MenuCategory, error) {
	cat := &models.MenuCategory{
		RestaurantID: r.ID,
		Name:         name,
		Description:  f.faker.Sentence(8),
		DisplayOrder: order,
	}
	if f.opts.DryRun {
		cat.ID = f.syntheticID()
		return cat, nil
	}
	return cat, f.create("category", cat)
}

// BuildItem constructs a menu item for cat without persisting it.
func (f *Factory) BuildItem(cat *models.MenuCategory, order int) *models.MenuItem {
	item := &models.MenuItem{
		CategoryID:   cat.ID,
		Name:         truncate(f.dishName(cat.Name), 120),
		Description:  f.faker.Sentence(12),
		Price:        fmt.Sprintf("%.2f", f.faker.Price(3, 42)),
		ImageURL:     fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID()),
		Tags:         models.StringList{strings.ToLower(cat.Name)},
		Allergens:    f.allergens(),
		DietaryInfo:  f.dietaryFlags(),
		IsAvailable:  f.rng.Intn(10) > 0,
		DisplayOrder: order,
	}
	// Roughly one in five dishes has no nutrition data.
	if f.rng.Intn(5) > 0 {
		kcal := 120 + f.rng.Intn(1080)
		item.Calories = &kcal
	}
	return item
}

func (f *Factory) dishName(category string) string {
	switch category {
	case "Starters", "Sides":
		return f.faker.Snack()
	case "Desserts":
		return f.faker.Dessert()
	case "Drinks":
		return f.faker.Drink()
	case "Specials":
		return f.faker.Breakfast()
	default:
		if f.faker.Bool() {
			return f.faker.Lunch()
		}
		return f.faker.Dinner()
	}
}

func (f *Factory) allergens() models.StringList {
	n := f.rng.Intn(3)
	out := make(models.StringList, 0, n)
	for _, idx := range f.rng.Perm(len(allergenPool))[:n] {
		out = append(out, allergenPool[idx])
	}
	return out
}

// dietaryFlags leaves some dishes without dietary data so recommendations
// see unknown items too.
func (f *Factory) dietaryFlags() models.DietaryFlags {
	if f.rng.Intn(5) == 0 {
		return nil
	}
	flags := models.DietaryFlags{}
	for _, key := range dietaryKeys {
		flags[key] = f.rng.Intn(3) == 0
	}
	if flags["vegan"] {
		flags["vegetarian"] = true
		flags["dairy_free"] = true
	}
	return flags
}

// CreateItemsBatch persists items in a single insert.
func (f *Factory) CreateItemsBatch(items []*models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, it := range items {
			it.ID = f.syntheticID()
		}
		return nil
	}
	return f.create("menu items", &items)
}

// CreateViews records n views spread over the last MaxDays days.
func (f *Factory) CreateViews(r *models.Restaurant, n int) ([]models.MenuView, error) {
	if n <= 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	views := make([]models.MenuView, 0, n)
	for i := 0; i < n; i++ {
		source := models.ViewSourceLink
		if f.rng.Intn(3) > 0 {
			source = models.ViewSourceQR
		}
		back := time.Duration(f.rng.Int63n(int64(f.maxDays()) * int64(24*time.Hour)))
		views = append(views, models.MenuView{
			RestaurantID: r.ID,
			Source:       source,
			ViewedAt:     now.Add(-back),
		})
	}
	return views, f.create("menu views", &views)
}

// CreateFeedback persists n feedback entries, some tied to items.
func (f *Factory) CreateFeedback(r *models.Restaurant, items []*models.MenuItem, n int) ([]models.Feedback, error) {
	if n <= 0 {
		return nil, nil
	}
	statuses := []models.FeedbackStatus{models.FeedbackPending, models.FeedbackApproved, models.FeedbackApproved, models.FeedbackRejected}
	entries := make([]models.Feedback, 0, n)
	for i := 0; i < n; i++ {
		fb := models.Feedback{
			RestaurantID: r.ID,
			// Skewed towards good reviews.
			Rating:       []int{1, 2, 3, 4, 4, 5, 5, 5}[f.rng.Intn(8)],
			Comment:      f.faker.Sentence(f.rng.Intn(20) + 3),
			CustomerName: truncate(f.faker.Name(), 100),
			Status:       statuses[f.rng.Intn(len(statuses))],
		}
		if f.faker.Bool() {
			fb.CustomerEmail = f.faker.Email()
		}
		if len(items) > 0 && f.faker.Bool() {
			id := items[f.rng.Intn(len(items))].ID
			fb.MenuItemID = &id
		}
		entries = append(entries, fb)
	}
	return entries, f.create("feedback", &entries)
}

func (f *Factory) maxDays() int {
	if f.opts.MaxDays <= 0 {
		return 30
	}
	return f.opts.MaxDays
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

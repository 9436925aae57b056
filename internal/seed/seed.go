package seed

import (
	"fmt"
	"log"
	"strings"

	"vividplate/internal/database"
	"vividplate/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Owners                  int
	RestaurantsPerOwner     int
	CategoriesPerRestaurant int
	ItemsPerCategory        int
	ViewsPerRestaurant      int
	FeedbackPerRestaurant   int
	// PremiumEvery makes every Nth owner premium; 0 keeps everyone free.
	PremiumEvery int
	MaxDays      int
	RandomSeed   int64
	Clean        bool
	DryRun       bool
	SkipBcrypt   bool
}

// DefaultOptions is a small but complete data set.
func DefaultOptions() Options {
	return Options{
		Owners:                  5,
		RestaurantsPerOwner:     2,
		CategoriesPerRestaurant: 4,
		ItemsPerCategory:        6,
		ViewsPerRestaurant:      120,
		FeedbackPerRestaurant:   8,
		PremiumEvery:            2,
		MaxDays:                 30,
		Clean:                   true,
	}
}

// Summary counts what a run created.
type Summary struct {
	Owners      int
	Restaurants int
	Categories  int
	Items       int
	Views       int
	Feedback    int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d owners, %d restaurants, %d categories, %d items, %d views, %d feedback",
		s.Owners, s.Restaurants, s.Categories, s.Items, s.Views, s.Feedback)
}

// Seed populates db with owners and fully built menus. Owners never get
// more restaurants than their tier allows.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	log.Printf("🌱 Seeding %d owners...", opts.Owners)

	if opts.Clean && !opts.DryRun {
		if err := ClearAll(db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f := NewFactory(db, opts)
	sum := &Summary{}

	for i := 0; i < opts.Owners; i++ {
		tier := models.TierFree
		if opts.PremiumEvery > 0 && i%opts.PremiumEvery == 0 {
			tier = models.TierPremium
		}
		owner, err := f.CreateOwner(func(u *models.User) { u.SubscriptionTier = tier })
		if err != nil {
			return sum, err
		}
		sum.Owners++

		count := min(opts.RestaurantsPerOwner, models.MaxRestaurantsForTier(tier))
		for j := 0; j < count; j++ {
			if err := seedRestaurant(f, owner, opts, sum); err != nil {
				return sum, err
			}
		}
	}

	log.Printf("🎉 Seeded %s", sum)
	return sum, nil
}

func seedRestaurant(f *Factory, owner *models.User, opts Options, sum *Summary) error {
	r, err := f.CreateRestaurant(owner)
	if err != nil {
		return err
	}
	sum.Restaurants++

	var all []*models.MenuItem
	for c := 0; c < min(opts.CategoriesPerRestaurant, len(categoryNames)); c++ {
		cat, err := f.CreateCategory(r, categoryNames[c], c)
		if err != nil {
			return err
		}
		sum.Categories++

		items := make([]*models.MenuItem, 0, opts.ItemsPerCategory)
		for k := 0; k < opts.ItemsPerCategory; k++ {
			items = append(items, f.BuildItem(cat, k))
		}
		if err := f.CreateItemsBatch(items); err != nil {
			return err
		}
		sum.Items += len(items)
		all = append(all, items...)
	}

	views, err := f.CreateViews(r, opts.ViewsPerRestaurant)
	if err != nil {
		return err
	}
	sum.Views += len(views)

	feedback, err := f.CreateFeedback(r, all, opts.FeedbackPerRestaurant)
	if err != nil {
		return err
	}
	sum.Feedback += len(feedback)
	return nil
}

// ClearAll removes every row from the application tables.
func ClearAll(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	persistent := database.PersistentModels()

	if db.Dialector.Name() == "postgres" {
		tables := make([]string, 0, len(persistent))
		for _, m := range persistent {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(m); err != nil {
				return err
			}
			tables = append(tables, stmt.Schema.Table)
		}
		return db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))).Error
	}

	// Children first.
	for i := len(persistent) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(persistent[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Command main runs the database seeder for VividPlate.
package main

import (
	"flag"
	"log"

	"vividplate/internal/config"
	"vividplate/internal/database"
	"vividplate/internal/middleware"
	"vividplate/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	owners := flag.Int("owners", defaults.Owners, "Number of restaurant owners to create")
	restaurants := flag.Int("restaurants", defaults.RestaurantsPerOwner, "Restaurants per owner (capped by tier)")
	categories := flag.Int("categories", defaults.CategoriesPerRestaurant, "Categories per restaurant")
	items := flag.Int("items", defaults.ItemsPerCategory, "Items per category")
	views := flag.Int("views", defaults.ViewsPerRestaurant, "Menu views per restaurant")
	feedback := flag.Int("feedback", defaults.FeedbackPerRestaurant, "Feedback entries per restaurant")
	premiumEvery := flag.Int("premium-every", defaults.PremiumEvery, "Make every Nth owner premium (0 = none)")
	days := flag.Int("days", defaults.MaxDays, "Spread views over this many days")
	shouldClean := flag.Bool("clean", defaults.Clean, "Clean database before seeding")
	demoOnly := flag.Bool("demo", false, "Only seed the built-in demo restaurant")
	dryRun := flag.Bool("dry-run", false, "Build entities without writing to the database")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	middleware.Configure(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *demoOnly {
		if err := seed.Demo(db); err != nil {
			log.Fatalf("❌ Demo seeding failed: %v", err)
		}
		log.Printf("✨ Demo restaurant ready at /api/public/restaurants/%s", seed.DemoSlug)
		return
	}

	sum, err := seed.Seed(db, seed.Options{
		Owners:                  *owners,
		RestaurantsPerOwner:     *restaurants,
		CategoriesPerRestaurant: *categories,
		ItemsPerCategory:        *items,
		ViewsPerRestaurant:      *views,
		FeedbackPerRestaurant:   *feedback,
		PremiumEvery:            *premiumEvery,
		MaxDays:                 *days,
		Clean:                   *shouldClean,
		DryRun:                  *dryRun,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	if !*dryRun {
		if err := seed.Demo(db); err != nil {
			log.Fatalf("❌ Demo seeding failed: %v", err)
		}
	}

	log.Printf("✨ All done! %s", sum)
	log.Printf("📧 All seeded owners have the password: %s", seed.DefaultPassword)
}

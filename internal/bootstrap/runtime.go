// Package bootstrap prepares the runtime backends shared by the server and
// the maintenance commands.
package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"vividplate/internal/cache"
	"vividplate/internal/config"
	"vividplate/internal/database"
	"vividplate/internal/middleware"
	"vividplate/internal/models"
	"vividplate/internal/seed"
	"vividplate/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds the demo
// restaurant. The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureDevAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	if opts.SeedDemo {
		if err := seed.Demo(db); err != nil {
			return nil, nil, err
		}
	}

	return db, r, nil
}

// EnsureDevAdmin creates or promotes the DEV_ADMIN_EMAIL account when
// DEV_BOOTSTRAP_ADMIN is set in development.
func EnsureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@vividplate.local"
	}
	if cfg.DevAdminPassword == "" {
		return errors.New("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}
	if err := validation.ValidatePassword(cfg.DevAdminPassword); err != nil {
		return fmt.Errorf("DEV_ADMIN_PASSWORD: %w", err)
	}

	var admin models.User
	findErr := db.Where("email = ?", email).First(&admin).Error
	switch {
	case findErr == nil:
		if admin.IsAdmin {
			return nil
		}
		if err := db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error; err != nil {
			return err
		}
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin = models.User{
			Username: adminUsername(email),
			Email:    email,
			Password: string(hashed),
			FullName: "Development Admin",
			IsAdmin:  true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
	default:
		return findErr
	}

	middleware.Logger.Info("development admin ensured", "email", email, "user_id", admin.ID)
	return nil
}

func adminUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return '_'
	}, local)
	if len(local) < 3 {
		local = "admin"
	}
	if len(local) > 30 {
		local = local[:30]
	}
	return local
}

// Package server contains the HTTP handlers and routing for the VividPlate API.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "vividplate/docs" // swagger docs
	"vividplate/internal/bootstrap"
	"vividplate/internal/config"
	"vividplate/internal/featureflags"
	"vividplate/internal/mailer"
	"vividplate/internal/middleware"
	"vividplate/internal/models"
	"vividplate/internal/repository"
	"vividplate/internal/scheduler"
	"vividplate/internal/service"
	"vividplate/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// globalRateLimit is the per-IP request budget per minute.
const globalRateLimit = 300

// Deps are the already-initialized backends a Server runs on.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Store  storage.Store
	Mailer mailer.Mailer
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	userRepo repository.UserRepository

	authService         *service.AuthService
	userService         *service.UserService
	resetService        *service.PasswordResetService
	restaurantService   *service.RestaurantService
	menuService         *service.MenuService
	analyticsService    *service.AnalyticsService
	dietaryService      *service.DietaryService
	feedbackService     *service.FeedbackService
	subscriptionService *service.SubscriptionService
	adminService        *service.AdminService
	imageService        *service.ImageService
}

// NewServer connects the database, Redis, storage and mailer from cfg and
// builds the server on top of them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemo: cfg.SeedDemoData})
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return NewServerWithDeps(cfg, Deps{
		DB:     db,
		Redis:  rdb,
		Store:  store,
		Mailer: mailer.New(cfg),
	})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with SQLite, miniredis and an in-memory store.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if deps.Mailer == nil {
		deps.Mailer = &mailer.LogMailer{}
	}

	userRepo := repository.NewUserRepository(deps.DB)
	restaurantRepo := repository.NewRestaurantRepository(deps.DB)
	menuRepo := repository.NewMenuRepository(deps.DB)
	viewRepo := repository.NewMenuViewRepository(deps.DB)
	prefRepo := repository.NewDietaryPreferenceRepository(deps.DB)
	feedbackRepo := repository.NewFeedbackRepository(deps.DB)
	subRepo := repository.NewSubscriptionRepository(deps.DB)

	flags := featureflags.NewManager(cfg.FeatureFlags)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		store:          deps.Store,
		promMiddleware: middleware.InitMetrics("vividplate-api"),
		featureFlags:   flags,
		userRepo:       userRepo,

		authService:  service.NewAuthService(userRepo),
		userService:  service.NewUserService(userRepo),
		resetService: service.NewPasswordResetService(userRepo, deps.Mailer,
			time.Duration(cfg.ResetTokenTTLMinutes)*time.Minute, cfg.PublicBaseURL),
		restaurantService:   service.NewRestaurantService(restaurantRepo, menuRepo, userRepo, flags),
		menuService:         service.NewMenuService(restaurantRepo, menuRepo),
		analyticsService:    service.NewAnalyticsService(restaurantRepo, viewRepo),
		dietaryService:      service.NewDietaryService(prefRepo, restaurantRepo, menuRepo, flags),
		feedbackService:     service.NewFeedbackService(feedbackRepo, restaurantRepo, menuRepo, flags),
		subscriptionService: service.NewSubscriptionService(subRepo, userRepo, restaurantRepo),
		adminService:        service.NewAdminService(userRepo, restaurantRepo, menuRepo, viewRepo, feedbackRepo),
		imageService:        service.NewImageService(deps.Store, cfg.ImageMaxUploadSizeMB),
	}
	return s, nil
}

// RegisterJobs adds the background jobs to sch.
func (s *Server) RegisterJobs(sch *scheduler.Scheduler) error {
	if err := sch.Add(scheduler.JobResetTokenPurge, scheduler.ResetTokenPurgeSpec, s.resetService.PurgeExpired); err != nil {
		return err
	}
	return sch.Add(scheduler.JobSubscriptionExpiry, scheduler.SubscriptionExpirySpec, s.subscriptionService.ExpireDue)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Session-Id",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global per-IP budget. Preflights and probes are never counted.
	app.Use(limiter.New(limiter.Config{
		Max:        globalRateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(
				models.NewErrorResponse(models.CodeRateLimited, "Too many requests, slow down"))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/media/*", s.ServeMedia)

	api := app.Group("/api")
	api.Get("/", s.ReadinessCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "VividPlate API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/admin-login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "admin_login"), s.AdminLogin)
	auth.Post("/forgot-password", middleware.RateLimit(s.redis, 3, 15*time.Minute, "forgot_password"), s.ForgotPassword)
	auth.Post("/reset-password", middleware.RateLimit(s.redis, 10, 15*time.Minute, "reset_password"), s.ResetPassword)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.GetMe)

	// Diner-facing routes
	api.Get("/public/restaurants/:slug", s.GetPublicMenuBySlug)
	api.Get("/restaurants/:id/menu", s.GetPublicMenu)
	api.Post("/restaurants/:id/views", middleware.RateLimit(s.redis, 30, time.Minute, "menu_view"), s.RecordView)
	api.Post("/restaurants/:id/feedback", middleware.RateLimit(s.redis, 5, 10*time.Minute, "feedback"), s.SubmitFeedback)
	api.Get("/restaurants/:id/feedback/public", s.GetPublicFeedback)

	// Preferences belong to the signed-in user when a token is sent,
	// otherwise to the X-Session-Id session.
	optional := s.OptionalAuth()
	api.Get("/dietary-preferences", optional, s.GetDietaryPreference)
	api.Post("/dietary-preferences", optional, s.UpsertDietaryPreference)
	api.Delete("/dietary-preferences", optional, s.DeleteDietaryPreference)
	api.Get("/menu-recommendations/:restaurantId", optional, s.GetRecommendations)

	protected := api.Group("", s.AuthRequired())

	users := protected.Group("/users")
	users.Get("/me", s.GetMe)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/password", s.ChangeMyPassword)

	restaurants := protected.Group("/restaurants")
	restaurants.Get("/", s.ListMyRestaurants)
	restaurants.Post("/", s.CreateRestaurant)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	restaurants.Post("/:id/logo", s.UploadLogo)
	restaurants.Post("/:id/banner", s.UploadBanner)
	restaurants.Get("/:id/categories", s.ListCategories)
	restaurants.Post("/:id/categories", s.CreateCategory)
	restaurants.Put("/:id/categories/reorder", s.ReorderCategories)
	restaurants.Get("/:id/analytics", s.GetAnalytics)
	restaurants.Get("/:id/feedback", s.ListRestaurantFeedback)
	restaurants.Get("/:id", s.GetRestaurant)
	restaurants.Put("/:id", s.UpdateRestaurant)
	restaurants.Delete("/:id", s.DeleteRestaurant)

	categories := protected.Group("/categories")
	categories.Get("/:id/items", s.ListItems)
	categories.Post("/:id/items", s.CreateItem)
	categories.Put("/:id", s.UpdateCategory)
	categories.Delete("/:id", s.DeleteCategory)

	items := protected.Group("/items")
	items.Patch("/:id/availability", s.SetItemAvailability)
	items.Post("/:id/image", s.UploadItemImage)
	items.Put("/:id", s.UpdateItem)
	items.Delete("/:id", s.DeleteItem)

	protected.Patch("/feedback/:id/status", s.SetFeedbackStatus)

	subscription := protected.Group("/subscription")
	subscription.Get("/", s.GetSubscription)
	subscription.Get("/payments", s.GetPayments)
	subscription.Post("/cancel", s.CancelSubscription)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/stats", s.GetAdminStats)
	admin.Get("/users", s.ListUsers)
	admin.Post("/users/:id/promote-admin", s.PromoteToAdmin)
	admin.Post("/users/:id/demote-admin", s.DemoteFromAdmin)
	admin.Put("/users/:id/subscription", s.SetUserSubscription)
	admin.Get("/restaurants", s.ListAllRestaurants)
	admin.Get("/feedback", s.ListFeedbackQueue)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "VividPlate API",
		BodyLimit: int(s.imageService.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.NewErrorResponse("", fe.Message))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: when
// it is down the service is degraded but still ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "vividplate-api",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  s.store.Backend(),
		},
		"time": time.Now(),
	})
}

// AuthRequired rejects requests without a valid, unrevoked bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := middleware.Authenticate(c, s.config.JWTSecret, s.redis); err != nil {
			msg := "Invalid or expired token"
			switch err {
			case middleware.ErrMissingToken:
				msg = "Authorization required"
			case middleware.ErrRevokedToken:
				msg = "Token has been revoked"
			case middleware.ErrInvalidIssuer:
				msg = "Invalid token issuer"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(msg))
		}
		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is sent.
func (s *Server) OptionalAuth() fiber.Handler {
	return middleware.OptionalAuth(s.config.JWTSecret, s.redis)
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		act, err := s.actor(c)
		if err != nil {
			return models.RespondWithError(c, mapServiceError(err), err)
		}
		if !act.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"vividplate/internal/cache"
	"vividplate/internal/featureflags"
	"vividplate/internal/models"
	"vividplate/internal/observability"
	"vividplate/internal/repository"
	"vividplate/internal/validation"

	"gorm.io/datatypes"
)

const maxSlugAttempts = 50

var (
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	weekdays   = map[string]struct{}{
		"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
		"friday": {}, "saturday": {}, "sunday": {},
	}
)

type RestaurantService struct {
	restaurants repository.RestaurantRepository
	menus       repository.MenuRepository
	users       repository.UserRepository
	flags       *featureflags.Manager
}

func NewRestaurantService(
	restaurants repository.RestaurantRepository,
	menus repository.MenuRepository,
	users repository.UserRepository,
	flags *featureflags.Manager,
) *RestaurantService {
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &RestaurantService{restaurants: restaurants, menus: menus, users: users, flags: flags}
}

// RestaurantInput carries create and update fields. Nil pointers are left
// untouched on update.
type RestaurantInput struct {
	Name             *string
	Slug             *string
	Description      *string
	Cuisine          *string
	Address          *string
	Phone            *string
	Website          *string
	ThemeSettings    map[string]any
	HoursOfOperation models.OpeningHours
	Tags             []string
	IsPublished      *bool
}

func (s *RestaurantService) ListMine(ctx context.Context, userID uint) ([]models.Restaurant, error) {
	return s.restaurants.ListByOwner(ctx, userID)
}

func (s *RestaurantService) ListAll(ctx context.Context, page repository.Page) ([]models.Restaurant, int64, error) {
	return s.restaurants.List(ctx, page)
}

// Get returns a restaurant the actor manages.
func (s *RestaurantService) Get(ctx context.Context, actor Actor, id uint) (*models.Restaurant, error) {
	r, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireManage(actor, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Create enforces the owner's tier limit before inserting.
func (s *RestaurantService) Create(ctx context.Context, actor Actor, in RestaurantInput) (*models.Restaurant, error) {
	owner, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	count, err := s.restaurants.CountByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	limit := models.MaxRestaurantsForTier(owner.SubscriptionTier)
	if count >= int64(limit) {
		return nil, models.NewLimitError(fmt.Sprintf(
			"Your %s plan allows %d restaurant(s). Upgrade to add more.", owner.SubscriptionTier, limit))
	}

	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, models.NewValidationError("Name is required")
	}
	r := &models.Restaurant{UserID: owner.ID, IsPublished: true}
	if err := applyRestaurantInput(r, in); err != nil {
		return nil, err
	}

	base := r.Slug
	if in.Slug == nil || strings.TrimSpace(*in.Slug) == "" {
		base = validation.Slugify(r.Name)
	}
	slug, err := s.uniqueSlug(ctx, base)
	if err != nil {
		return nil, err
	}
	r.Slug = slug

	if err := s.restaurants.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RestaurantService) Update(ctx context.Context, actor Actor, id uint, in RestaurantInput) (*models.Restaurant, error) {
	r, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	previousSlug := r.Slug
	if err := applyRestaurantInput(r, in); err != nil {
		return nil, err
	}
	if r.Slug != previousSlug {
		taken, err := s.restaurants.SlugExists(ctx, r.Slug)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("Slug already in use")
		}
	}
	if err := s.restaurants.Update(ctx, r, previousSlug); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RestaurantService) Delete(ctx context.Context, actor Actor, id uint) error {
	r, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.restaurants.Delete(ctx, r)
}

// SetLogo stores the uploaded logo URL.
func (s *RestaurantService) SetLogo(ctx context.Context, actor Actor, id uint, url string) (*models.Restaurant, error) {
	r, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	r.LogoURL = url
	if err := s.restaurants.Update(ctx, r, r.Slug); err != nil {
		return nil, err
	}
	return r, nil
}

// AddBanner appends a slideshow image, bounded by the owner's tier.
func (s *RestaurantService) AddBanner(ctx context.Context, actor Actor, id uint, url string) (*models.Restaurant, error) {
	r, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, r.UserID)
	if err != nil {
		return nil, err
	}
	limit := models.MaxImagesPerItemForTier(owner.SubscriptionTier)
	if len(r.BannerURLs) >= limit {
		return nil, models.NewLimitError(fmt.Sprintf("Your %s plan allows %d banner image(s)", owner.SubscriptionTier, limit))
	}
	r.BannerURLs = append(r.BannerURLs, url)
	if r.BannerURL == "" {
		r.BannerURL = url
	}
	if err := s.restaurants.Update(ctx, r, r.Slug); err != nil {
		return nil, err
	}
	return r, nil
}

// PublicMenuBySlug serves the diner-facing menu of a published restaurant.
func (s *RestaurantService) PublicMenuBySlug(ctx context.Context, slug string) (_ *models.PublicMenu, err error) {
	ctx, span := observability.StartSpan(ctx, "RestaurantService.PublicMenuBySlug")
	defer observability.EndSpan(span, &err)

	var menu models.PublicMenu
	load := func() error {
		r, err := s.restaurants.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		return s.fillMenu(ctx, r, &menu)
	}
	if err = s.cached(ctx, cache.PublicMenuKey(slug), &menu, load); err != nil {
		return nil, err
	}
	span.SetAttributes(observability.RestaurantID(menu.Restaurant.ID))
	return &menu, nil
}

// PublicMenuByID is the same view addressed by id.
func (s *RestaurantService) PublicMenuByID(ctx context.Context, id uint) (*models.PublicMenu, error) {
	var menu models.PublicMenu
	load := func() error {
		r, err := s.restaurants.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return s.fillMenu(ctx, r, &menu)
	}
	if err := s.cached(ctx, cache.MenuKey(id), &menu, load); err != nil {
		return nil, err
	}
	return &menu, nil
}

func (s *RestaurantService) cached(ctx context.Context, key string, dest *models.PublicMenu, load func() error) error {
	if !s.flags.Enabled(featureflags.MenuCache, 0) {
		return load()
	}
	return cache.Aside(ctx, key, dest, cache.MenuTTL, load)
}

func (s *RestaurantService) fillMenu(ctx context.Context, r *models.Restaurant, menu *models.PublicMenu) error {
	if !r.IsPublished {
		return models.NewNotFoundError("Restaurant", r.Slug)
	}
	categories, err := s.menus.PublicMenu(ctx, r.ID)
	if err != nil {
		return err
	}
	menu.Restaurant = *r
	menu.Categories = categories
	return nil
}

// uniqueSlug returns base, or base-2, base-3 … when taken.
func (s *RestaurantService) uniqueSlug(ctx context.Context, base string) (string, error) {
	if err := validation.ValidateSlug(base); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := s.restaurants.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", models.NewConflictError("Could not find a free slug; choose one explicitly")
}

func applyRestaurantInput(r *models.Restaurant, in RestaurantInput) error {
	const (
		maxName        = 120
		maxDescription = 2000
		maxTags        = 20
	)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > maxName {
			return models.NewValidationError("Name must be 1-120 characters")
		}
		r.Name = name
	}
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
		slug := strings.ToLower(strings.TrimSpace(*in.Slug))
		if err := validation.ValidateSlug(slug); err != nil {
			return models.NewValidationError(err.Error())
		}
		r.Slug = slug
	}
	if in.Description != nil {
		if len(*in.Description) > maxDescription {
			return models.NewValidationError("Description too long (max 2000 characters)")
		}
		r.Description = strings.TrimSpace(*in.Description)
	}
	setTrimmed(&r.Cuisine, in.Cuisine)
	setTrimmed(&r.Address, in.Address)
	setTrimmed(&r.Phone, in.Phone)
	setTrimmed(&r.Website, in.Website)
	if in.ThemeSettings != nil {
		r.ThemeSettings = datatypes.JSONMap(in.ThemeSettings)
	}
	if in.HoursOfOperation != nil {
		if err := validateHours(in.HoursOfOperation); err != nil {
			return err
		}
		r.HoursOfOperation = datatypes.NewJSONType(in.HoursOfOperation)
	}
	if in.Tags != nil {
		if len(in.Tags) > maxTags {
			return models.NewValidationError("Too many tags (max 20)")
		}
		tags := make([]string, 0, len(in.Tags))
		for _, t := range in.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		r.Tags = tags
	}
	if in.IsPublished != nil {
		r.IsPublished = *in.IsPublished
	}
	return nil
}

func validateHours(hours models.OpeningHours) error {
	for day, h := range hours {
		if _, ok := weekdays[day]; !ok {
			return models.NewValidationError(fmt.Sprintf("Unknown weekday %q", day))
		}
		if h.Closed {
			continue
		}
		if !clockRegex.MatchString(h.Open) || !clockRegex.MatchString(h.Close) {
			return models.NewValidationError(fmt.Sprintf("Hours for %s must be HH:MM", day))
		}
	}
	return nil
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

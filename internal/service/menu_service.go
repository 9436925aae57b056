package service

import (
	"context"
	"strings"

	"vividplate/internal/cache"
	"vividplate/internal/models"
	"vividplate/internal/repository"
	"vividplate/internal/validation"
)

// MenuService manages categories and items. Every mutation drops the
// cached public menu of the owning restaurant.
type MenuService struct {
	restaurants repository.RestaurantRepository
	menus       repository.MenuRepository
}

func NewMenuService(restaurants repository.RestaurantRepository, menus repository.MenuRepository) *MenuService {
	return &MenuService{restaurants: restaurants, menus: menus}
}

type CategoryInput struct {
	Name         *string
	Description  *string
	DisplayOrder *int
}

// ItemInput fields left nil are not changed on update.
type ItemInput struct {
	CategoryID   *uint
	Name         *string
	Description  *string
	Price        *string
	ImageURL     *string
	Tags         *[]string
	Allergens    *[]string
	DietaryInfo  *map[string]bool
	Calories     *int
	IsAvailable  *bool
	DisplayOrder *int
}

func (s *MenuService) managedRestaurant(ctx context.Context, actor Actor, restaurantID uint) (*models.Restaurant, error) {
	r, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(actor, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *MenuService) managedCategory(ctx context.Context, actor Actor, categoryID uint) (*models.MenuCategory, *models.Restaurant, error) {
	c, err := s.menus.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.managedRestaurant(ctx, actor, c.RestaurantID)
	if err != nil {
		return nil, nil, err
	}
	return c, r, nil
}

func (s *MenuService) managedItem(ctx context.Context, actor Actor, itemID uint) (*models.MenuItem, *models.Restaurant, error) {
	item, err := s.menus.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	_, r, err := s.managedCategory(ctx, actor, item.CategoryID)
	if err != nil {
		return nil, nil, err
	}
	return item, r, nil
}

func invalidate(ctx context.Context, r *models.Restaurant) {
	cache.InvalidateMenu(ctx, r.ID, r.Slug)
}

func (s *MenuService) ListCategories(ctx context.Context, actor Actor, restaurantID uint) ([]models.MenuCategory, error) {
	if _, err := s.managedRestaurant(ctx, actor, restaurantID); err != nil {
		return nil, err
	}
	return s.menus.ListCategories(ctx, restaurantID)
}

// CreateCategory appends at the end unless DisplayOrder is given.
func (s *MenuService) CreateCategory(ctx context.Context, actor Actor, restaurantID uint, in CategoryInput) (*models.MenuCategory, error) {
	r, err := s.managedRestaurant(ctx, actor, restaurantID)
	if err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, models.NewValidationError("Name is required")
	}
	c := &models.MenuCategory{RestaurantID: restaurantID}
	if err := applyCategoryInput(c, in); err != nil {
		return nil, err
	}
	if in.DisplayOrder == nil {
		n, err := s.menus.CountCategories(ctx, restaurantID)
		if err != nil {
			return nil, err
		}
		c.DisplayOrder = int(n)
	}
	if err := s.menus.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	invalidate(ctx, r)
	return c, nil
}

func (s *MenuService) UpdateCategory(ctx context.Context, actor Actor, categoryID uint, in CategoryInput) (*models.MenuCategory, error) {
	c, r, err := s.managedCategory(ctx, actor, categoryID)
	if err != nil {
		return nil, err
	}
	if err := applyCategoryInput(c, in); err != nil {
		return nil, err
	}
	if err := s.menus.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	invalidate(ctx, r)
	return c, nil
}

func (s *MenuService) DeleteCategory(ctx context.Context, actor Actor, categoryID uint) error {
	_, r, err := s.managedCategory(ctx, actor, categoryID)
	if err != nil {
		return err
	}
	if err := s.menus.DeleteCategory(ctx, categoryID); err != nil {
		return err
	}
	invalidate(ctx, r)
	return nil
}

// ReorderCategories requires every category of the restaurant exactly once.
func (s *MenuService) ReorderCategories(ctx context.Context, actor Actor, restaurantID uint, ids []uint) ([]models.MenuCategory, error) {
	r, err := s.managedRestaurant(ctx, actor, restaurantID)
	if err != nil {
		return nil, err
	}
	n, err := s.menus.CountCategories(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, models.NewValidationError("Duplicate category id in order")
		}
		seen[id] = struct{}{}
	}
	if int64(len(ids)) != n {
		return nil, models.NewValidationError("Order must list every category exactly once")
	}
	if err := s.menus.ReorderCategories(ctx, restaurantID, ids); err != nil {
		return nil, err
	}
	invalidate(ctx, r)
	return s.menus.ListCategories(ctx, restaurantID)
}

func (s *MenuService) ListItems(ctx context.Context, actor Actor, categoryID uint) ([]models.MenuItem, error) {
	if _, _, err := s.managedCategory(ctx, actor, categoryID); err != nil {
		return nil, err
	}
	return s.menus.ListItems(ctx, categoryID)
}

func (s *MenuService) CreateItem(ctx context.Context, actor Actor, categoryID uint, in ItemInput) (*models.MenuItem, error) {
	_, r, err := s.managedCategory(ctx, actor, categoryID)
	if err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if in.Price == nil {
		return nil, models.NewValidationError("Price is required")
	}
	item := &models.MenuItem{CategoryID: categoryID, IsAvailable: true}
	in.CategoryID = nil
	if err := applyItemInput(item, in); err != nil {
		return nil, err
	}
	if in.DisplayOrder == nil {
		n, err := s.menus.CountItems(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		item.DisplayOrder = int(n)
	}
	if err := s.menus.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	invalidate(ctx, r)
	return item, nil
}

// UpdateItem may move the item to another category of the same restaurant.
func (s *MenuService) UpdateItem(ctx context.Context, actor Actor, itemID uint, in ItemInput) (*models.MenuItem, error) {
	item, r, err := s.managedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil && *in.CategoryID != item.CategoryID {
		target, err := s.menus.GetCategory(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		if target.RestaurantID != r.ID {
			return nil, models.NewValidationError("Category belongs to another restaurant")
		}
	}
	if err := applyItemInput(item, in); err != nil {
		return nil, err
	}
	if err := s.menus.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	invalidate(ctx, r)
	return item, nil
}

func (s *MenuService) SetAvailability(ctx context.Context, actor Actor, itemID uint, available bool) (*models.MenuItem, error) {
	item, r, err := s.managedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.menus.SetItemAvailability(ctx, itemID, available); err != nil {
		return nil, err
	}
	item.IsAvailable = available
	invalidate(ctx, r)
	return item, nil
}

func (s *MenuService) SetItemImage(ctx context.Context, actor Actor, itemID uint, url string) (*models.MenuItem, error) {
	return s.UpdateItem(ctx, actor, itemID, ItemInput{ImageURL: &url})
}

func (s *MenuService) DeleteItem(ctx context.Context, actor Actor, itemID uint) error {
	_, r, err := s.managedItem(ctx, actor, itemID)
	if err != nil {
		return err
	}
	if err := s.menus.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	invalidate(ctx, r)
	return nil
}

func applyCategoryInput(c *models.MenuCategory, in CategoryInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 100 {
			return models.NewValidationError("Name must be 1-100 characters")
		}
		c.Name = name
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.DisplayOrder != nil {
		if *in.DisplayOrder < 0 {
			return models.NewValidationError("Display order must not be negative")
		}
		c.DisplayOrder = *in.DisplayOrder
	}
	return nil
}

func applyItemInput(item *models.MenuItem, in ItemInput) error {
	if in.CategoryID != nil {
		item.CategoryID = *in.CategoryID
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 120 {
			return models.NewValidationError("Name must be 1-120 characters")
		}
		item.Name = name
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		price := strings.TrimSpace(*in.Price)
		if !validation.ValidPrice(price) {
			return models.NewValidationError("Price must be a decimal amount with at most two decimals")
		}
		item.Price = price
	}
	if in.ImageURL != nil {
		item.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Tags != nil {
		item.Tags = cleanList(*in.Tags)
	}
	if in.Allergens != nil {
		item.Allergens = cleanList(*in.Allergens)
	}
	if in.DietaryInfo != nil {
		item.DietaryInfo = models.DietaryFlags(*in.DietaryInfo)
	}
	if in.Calories != nil {
		if *in.Calories < 0 {
			return models.NewValidationError("Calories must not be negative")
		}
		c := *in.Calories
		item.Calories = &c
	}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}
	if in.DisplayOrder != nil {
		if *in.DisplayOrder < 0 {
			return models.NewValidationError("Display order must not be negative")
		}
		item.DisplayOrder = *in.DisplayOrder
	}
	return nil
}

// cleanList trims entries and drops blanks. The result is never nil.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

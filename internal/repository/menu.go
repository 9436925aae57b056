package repository

import (
	"context"
	"errors"

	"vividplate/internal/models"

	"gorm.io/gorm"
)

// MenuRepository persists categories and items.
type MenuRepository interface {
	ListCategories(ctx context.Context, restaurantID uint) ([]models.MenuCategory, error)
	GetCategory(ctx context.Context, id uint) (*models.MenuCategory, error)
	CountCategories(ctx context.Context, restaurantID uint) (int64, error)
	CreateCategory(ctx context.Context, category *models.MenuCategory) error
	UpdateCategory(ctx context.Context, category *models.MenuCategory) error
	DeleteCategory(ctx context.Context, id uint) error
	ReorderCategories(ctx context.Context, restaurantID uint, ids []uint) error

	ListItems(ctx context.Context, categoryID uint) ([]models.MenuItem, error)
	ListItemsByRestaurant(ctx context.Context, restaurantID uint) ([]models.MenuItem, error)
	GetItem(ctx context.Context, id uint) (*models.MenuItem, error)
	CountItems(ctx context.Context, categoryID uint) (int64, error)
	CountAllItems(ctx context.Context) (int64, error)
	CreateItem(ctx context.Context, item *models.MenuItem) error
	UpdateItem(ctx context.Context, item *models.MenuItem) error
	SetItemAvailability(ctx context.Context, id uint, available bool) error
	DeleteItem(ctx context.Context, id uint) error
	ItemRestaurantID(ctx context.Context, itemID uint) (uint, error)

	PublicMenu(ctx context.Context, restaurantID uint) ([]models.MenuCategory, error)
}

type menuRepository struct {
	db *gorm.DB
}

// NewMenuRepository returns the GORM-backed MenuRepository.
func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) ListCategories(ctx context.Context, restaurantID uint) ([]models.MenuCategory, error) {
	categories := []models.MenuCategory{}
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("display_order ASC, id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

func (r *menuRepository) GetCategory(ctx context.Context, id uint) (*models.MenuCategory, error) {
	var category models.MenuCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFoundOr(err, "Category", id)
	}
	return &category, nil
}

func (r *menuRepository) CountCategories(ctx context.Context, restaurantID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.MenuCategory{}).Where("restaurant_id = ?", restaurantID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *menuRepository) CreateCategory(ctx context.Context, category *models.MenuCategory) error {
	if err := r.db.WithContext(ctx).Omit("Items").Create(category).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *menuRepository) UpdateCategory(ctx context.Context, category *models.MenuCategory) error {
	if err := r.db.WithContext(ctx).Omit("Items").Save(category).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteCategory removes the category's items first, then the category.
func (r *menuRepository) DeleteCategory(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.MenuItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.MenuCategory{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "Category", id)
	}
	return nil
}

// ReorderCategories assigns display_order by position in ids. Every id must
// belong to the restaurant.
func (r *menuRepository) ReorderCategories(ctx context.Context, restaurantID uint, ids []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for pos, id := range ids {
			res := tx.Model(&models.MenuCategory{}).
				Where("id = ? AND restaurant_id = ?", id, restaurantID).
				Update("display_order", pos)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewValidationError("category does not belong to restaurant")
			}
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *menuRepository) ListItems(ctx context.Context, categoryID uint) ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("display_order ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

// ListItemsByRestaurant returns every item across the restaurant's
// categories in menu order, available or not.
func (r *menuRepository) ListItemsByRestaurant(ctx context.Context, restaurantID uint) ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN menu_categories ON menu_categories.id = menu_items.category_id").
		Where("menu_categories.restaurant_id = ?", restaurantID).
		Order("menu_categories.display_order ASC, menu_items.display_order ASC, menu_items.id ASC").
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *menuRepository) GetItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFoundOr(err, "Menu item", id)
	}
	return &item, nil
}

func (r *menuRepository) CountItems(ctx context.Context, categoryID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("category_id = ?", categoryID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *menuRepository) CountAllItems(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.MenuItem{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *menuRepository) CreateItem(ctx context.Context, item *models.MenuItem) error {
	available := item.IsAvailable
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		if !available {
			item.IsAvailable = false
			return tx.Model(item).Update("is_available", false).Error
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *menuRepository) UpdateItem(ctx context.Context, item *models.MenuItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *menuRepository) SetItemAvailability(ctx context.Context, id uint, available bool) error {
	res := r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Update("is_available", available)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Menu item", id)
	}
	return nil
}

func (r *menuRepository) DeleteItem(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Menu item", id)
	}
	return nil
}

// ItemRestaurantID resolves item → category → restaurant.
func (r *menuRepository) ItemRestaurantID(ctx context.Context, itemID uint) (uint, error) {
	var restaurantIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Joins("JOIN menu_categories ON menu_categories.id = menu_items.category_id").
		Where("menu_items.id = ?", itemID).
		Pluck("menu_categories.restaurant_id", &restaurantIDs).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	if len(restaurantIDs) == 0 {
		return 0, models.NewNotFoundError("Menu item", itemID)
	}
	return restaurantIDs[0], nil
}

// PublicMenu loads categories in order with their available items.
func (r *menuRepository) PublicMenu(ctx context.Context, restaurantID uint) ([]models.MenuCategory, error) {
	categories := []models.MenuCategory{}
	err := readDB(r.db).WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_available = ?", true).Order("display_order ASC, id ASC")
		}).
		Where("restaurant_id = ?", restaurantID).
		Order("display_order ASC, id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range categories {
		if categories[i].Items == nil {
			categories[i].Items = []models.MenuItem{}
		}
	}
	return categories, nil
}

package repository

import (
	"context"

	"vividplate/internal/cache"
	"vividplate/internal/models"

	"gorm.io/gorm"
)

// RestaurantRepository defines persistence operations for restaurants.
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *models.Restaurant) error
	GetByID(ctx context.Context, id uint) (*models.Restaurant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Restaurant, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListByOwner(ctx context.Context, userID uint) ([]models.Restaurant, error)
	CountByOwner(ctx context.Context, userID uint) (int64, error)
	List(ctx context.Context, page Page) ([]models.Restaurant, int64, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, restaurant *models.Restaurant, previousSlug string) error
	Delete(ctx context.Context, restaurant *models.Restaurant) error
}

type restaurantRepository struct {
	db *gorm.DB
}

// NewRestaurantRepository returns the GORM-backed RestaurantRepository.
func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	published := restaurant.IsPublished
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(restaurant).Error; err != nil {
			return err
		}
		// Zero-value bools are skipped on insert in favour of the column default.
		if !published {
			restaurant.IsPublished = false
			return tx.Model(restaurant).Update("is_published", false).Error
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Slug already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *restaurantRepository) GetByID(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, id).Error; err != nil {
		return nil, notFoundOr(err, "Restaurant", id)
	}
	return &restaurant, nil
}

func (r *restaurantRepository) GetBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := readDB(r.db).WithContext(ctx).Where("slug = ?", slug).First(&restaurant).Error; err != nil {
		return nil, notFoundOr(err, "Restaurant", slug)
	}
	return &restaurant, nil
}

func (r *restaurantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Restaurant{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *restaurantRepository) ListByOwner(ctx context.Context, userID uint) ([]models.Restaurant, error) {
	restaurants := []models.Restaurant{}
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&restaurants).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return restaurants, nil
}

func (r *restaurantRepository) CountByOwner(ctx context.Context, userID uint) (int64, error) {
	var n int64
	// Always on the primary: the count gates creation.
	if err := r.db.WithContext(ctx).Model(&models.Restaurant{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *restaurantRepository) List(ctx context.Context, page Page) ([]models.Restaurant, int64, error) {
	page = page.normalized()
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Restaurant{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	restaurants := []models.Restaurant{}
	if err := db.Order("id").Limit(page.Limit).Offset(page.Offset).Find(&restaurants).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return restaurants, total, nil
}

func (r *restaurantRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Restaurant{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// Update saves the restaurant and drops the cached menu under both the old
// and the new slug.
func (r *restaurantRepository) Update(ctx context.Context, restaurant *models.Restaurant, previousSlug string) error {
	if err := r.db.WithContext(ctx).Save(restaurant).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Slug already in use")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateMenu(ctx, restaurant.ID, restaurant.Slug)
	if previousSlug != "" && previousSlug != restaurant.Slug {
		cache.Invalidate(ctx, cache.PublicMenuKey(previousSlug))
	}
	return nil
}

// Delete removes the restaurant with its items, categories, views and
// feedback in one transaction.
func (r *restaurantRepository) Delete(ctx context.Context, restaurant *models.Restaurant) error {
	id := restaurant.ID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryIDs := tx.Model(&models.MenuCategory{}).Select("id").Where("restaurant_id = ?", id)
		if err := tx.Where("category_id IN (?)", categoryIDs).Delete(&models.MenuItem{}).Error; err != nil {
			return err
		}
		steps := []struct {
			model any
			where string
		}{
			{&models.MenuCategory{}, "restaurant_id = ?"},
			{&models.MenuView{}, "restaurant_id = ?"},
			{&models.Feedback{}, "restaurant_id = ?"},
		}
		for _, s := range steps {
			if err := tx.Where(s.where, id).Delete(s.model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Restaurant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "Restaurant", id)
	}
	cache.InvalidateMenu(ctx, id, restaurant.Slug)
	return nil
}

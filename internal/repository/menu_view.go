package repository

import (
	"context"
	"time"

	"vividplate/internal/models"

	"gorm.io/gorm"
)

// MenuViewRepository records and aggregates menu views.
type MenuViewRepository interface {
	Record(ctx context.Context, view *models.MenuView) error
	CountBySource(ctx context.Context, restaurantID uint, since time.Time) (map[models.ViewSource]int64, error)
	DailyCounts(ctx context.Context, restaurantID uint, since time.Time) ([]models.DailyViews, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type menuViewRepository struct {
	db *gorm.DB
}

// NewMenuViewRepository returns the GORM-backed MenuViewRepository.
func NewMenuViewRepository(db *gorm.DB) MenuViewRepository {
	return &menuViewRepository{db: db}
}

func (r *menuViewRepository) Record(ctx context.Context, view *models.MenuView) error {
	if view.ViewedAt.IsZero() {
		view.ViewedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(view).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *menuViewRepository) CountBySource(ctx context.Context, restaurantID uint, since time.Time) (map[models.ViewSource]int64, error) {
	var rows []struct {
		Source models.ViewSource
		Count  int64
	}
	err := readDB(r.db).WithContext(ctx).
		Model(&models.MenuView{}).
		Select("source, COUNT(*) AS count").
		Where("restaurant_id = ? AND viewed_at >= ?", restaurantID, since).
		Group("source").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := map[models.ViewSource]int64{models.ViewSourceQR: 0, models.ViewSourceLink: 0}
	for _, row := range rows {
		out[row.Source] = row.Count
	}
	return out, nil
}

// DailyCounts groups views by UTC calendar day, oldest first. Days without
// views are absent.
func (r *menuViewRepository) DailyCounts(ctx context.Context, restaurantID uint, since time.Time) ([]models.DailyViews, error) {
	rows := []models.DailyViews{}
	err := readDB(r.db).WithContext(ctx).
		Model(&models.MenuView{}).
		Select("CAST(DATE(viewed_at) AS TEXT) AS day, COUNT(*) AS count").
		Where("restaurant_id = ? AND viewed_at >= ?", restaurantID, since).
		Group("DATE(viewed_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *menuViewRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.MenuView{}).Where("viewed_at >= ?", since).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

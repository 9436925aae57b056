package repository

import (
	"context"

	"vividplate/internal/models"

	"gorm.io/gorm"
)

// FeedbackRepository persists diner feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	GetByID(ctx context.Context, id uint) (*models.Feedback, error)
	ListByRestaurant(ctx context.Context, restaurantID uint, status models.FeedbackStatus) ([]models.Feedback, error)
	ListByStatus(ctx context.Context, status models.FeedbackStatus, page Page) ([]models.Feedback, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.FeedbackStatus) error
	ApprovedStats(ctx context.Context, restaurantID uint) (avg float64, count int64, err error)
	CountByStatus(ctx context.Context, status models.FeedbackStatus) (int64, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository returns the GORM-backed FeedbackRepository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.Status == "" {
		fb.Status = models.FeedbackPending
	}
	if err := r.db.WithContext(ctx).Create(fb).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *feedbackRepository) GetByID(ctx context.Context, id uint) (*models.Feedback, error) {
	var fb models.Feedback
	if err := r.db.WithContext(ctx).First(&fb, id).Error; err != nil {
		return nil, notFoundOr(err, "Feedback", id)
	}
	return &fb, nil
}

// ListByRestaurant returns newest first. An empty status lists all.
func (r *feedbackRepository) ListByRestaurant(ctx context.Context, restaurantID uint, status models.FeedbackStatus) ([]models.Feedback, error) {
	q := readDB(r.db).WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	items := []models.Feedback{}
	if err := q.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *feedbackRepository) ListByStatus(ctx context.Context, status models.FeedbackStatus, page Page) ([]models.Feedback, int64, error) {
	page = page.normalized()
	q := readDB(r.db).WithContext(ctx).Model(&models.Feedback{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	items := []models.Feedback{}
	if err := q.Order("created_at DESC, id DESC").Limit(page.Limit).Offset(page.Offset).Find(&items).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return items, total, nil
}

func (r *feedbackRepository) UpdateStatus(ctx context.Context, id uint, status models.FeedbackStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Feedback{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Feedback", id)
	}
	return nil
}

// ApprovedStats returns the mean rating and count of approved feedback.
func (r *feedbackRepository) ApprovedStats(ctx context.Context, restaurantID uint) (float64, int64, error) {
	var row struct {
		Avg   *float64
		Count int64
	}
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Feedback{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("restaurant_id = ? AND status = ?", restaurantID, models.FeedbackApproved).
		Scan(&row).Error
	if err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	if row.Avg == nil {
		return 0, row.Count, nil
	}
	return *row.Avg, row.Count, nil
}

func (r *feedbackRepository) CountByStatus(ctx context.Context, status models.FeedbackStatus) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Feedback{}).Where("status = ?", status).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

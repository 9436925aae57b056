package repository

import (
	"context"

	"vividplate/internal/models"

	"gorm.io/gorm"
)

// DietaryPreferenceRepository stores preferences keyed by user or session.
type DietaryPreferenceRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.DietaryPreference, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.DietaryPreference, error)
	Save(ctx context.Context, pref *models.DietaryPreference) error
	Delete(ctx context.Context, id uint) error
}

type dietaryPreferenceRepository struct {
	db *gorm.DB
}

// NewDietaryPreferenceRepository returns the GORM-backed repository.
func NewDietaryPreferenceRepository(db *gorm.DB) DietaryPreferenceRepository {
	return &dietaryPreferenceRepository{db: db}
}

func (r *dietaryPreferenceRepository) GetByUserID(ctx context.Context, userID uint) (*models.DietaryPreference, error) {
	var pref models.DietaryPreference
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error; err != nil {
		return nil, notFoundOr(err, "Dietary preference", userID)
	}
	return &pref, nil
}

func (r *dietaryPreferenceRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.DietaryPreference, error) {
	var pref models.DietaryPreference
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&pref).Error; err != nil {
		return nil, notFoundOr(err, "Dietary preference", sessionID)
	}
	return &pref, nil
}

// Save inserts a new record or overwrites an existing one. A concurrent
// insert for the same key surfaces as CONFLICT.
func (r *dietaryPreferenceRepository) Save(ctx context.Context, pref *models.DietaryPreference) error {
	db := r.db.WithContext(ctx)
	var err error
	if pref.ID == 0 {
		err = db.Create(pref).Error
	} else {
		err = db.Save(pref).Error
	}
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Dietary preference already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *dietaryPreferenceRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.DietaryPreference{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Dietary preference", id)
	}
	return nil
}

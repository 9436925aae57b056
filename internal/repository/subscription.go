package repository

import (
	"context"
	"errors"
	"time"

	"vividplate/internal/cache"
	"vividplate/internal/models"

	"gorm.io/gorm"
)

// ManualGrant describes an admin-issued tier change.
type ManualGrant struct {
	UserID      uint
	Tier        models.SubscriptionTier
	PeriodStart time.Time
	PeriodEnd   time.Time
	AmountCents int64
	Currency    string
}

// SubscriptionRepository persists subscriptions and the payment ledger.
type SubscriptionRepository interface {
	ActiveForUser(ctx context.Context, userID uint) (*models.Subscription, error)
	ListPayments(ctx context.Context, userID uint) ([]models.Payment, error)
	SetCancelAtPeriodEnd(ctx context.Context, id uint, cancel bool) error
	Grant(ctx context.Context, grant ManualGrant) (*models.Subscription, error)
	Revoke(ctx context.Context, userID uint) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository returns the GORM-backed SubscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// ActiveForUser returns the latest active subscription, or nil.
func (r *subscriptionRepository) ActiveForUser(ctx context.Context, userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Order("current_period_end DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListPayments(ctx context.Context, userID uint) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("paid_at DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return payments, nil
}

func (r *subscriptionRepository) SetCancelAtPeriodEnd(ctx context.Context, id uint, cancel bool) error {
	res := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", id).Update("cancel_at_period_end", cancel)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Subscription", id)
	}
	return nil
}

// Grant cancels any active subscription, writes the new one with an
// optional payment row and moves the user to the granted tier.
func (r *subscriptionRepository) Grant(ctx context.Context, g ManualGrant) (*models.Subscription, error) {
	sub := &models.Subscription{
		UserID:             g.UserID,
		Tier:               g.Tier,
		Status:             models.SubscriptionActive,
		Provider:           models.ProviderManual,
		CurrentPeriodStart: g.PeriodStart,
		CurrentPeriodEnd:   g.PeriodEnd,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cancelActive(tx, g.UserID); err != nil {
			return err
		}
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		if g.AmountCents > 0 {
			currency := g.Currency
			if currency == "" {
				currency = "usd"
			}
			payment := &models.Payment{
				UserID:         g.UserID,
				SubscriptionID: &sub.ID,
				AmountCents:    g.AmountCents,
				Currency:       currency,
				Status:         models.PaymentSucceeded,
				Provider:       models.ProviderManual,
				PaidAt:         g.PeriodStart,
			}
			if err := tx.Create(payment).Error; err != nil {
				return err
			}
		}
		return setUserTier(tx, g.UserID, g.Tier)
	})
	if err != nil {
		return nil, notFoundOr(err, "User", g.UserID)
	}
	cache.InvalidateUser(ctx, g.UserID)
	return sub, nil
}

// Revoke cancels active subscriptions and drops the user to free.
func (r *subscriptionRepository) Revoke(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cancelActive(tx, userID); err != nil {
			return err
		}
		return setUserTier(tx, userID, models.TierFree)
	})
	if err != nil {
		return notFoundOr(err, "User", userID)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// ExpireDue marks active subscriptions past their period end as expired and
// downgrades users left without an active subscription. It returns the
// number of subscriptions expired.
func (r *subscriptionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	var userIDs []uint
	var expired int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Subscription{}).
			Where("status = ? AND current_period_end < ?", models.SubscriptionActive, now).
			Distinct().Pluck("user_id", &userIDs).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		res := tx.Model(&models.Subscription{}).
			Where("status = ? AND current_period_end < ?", models.SubscriptionActive, now).
			Update("status", models.SubscriptionExpired)
		if res.Error != nil {
			return res.Error
		}
		expired = res.RowsAffected

		stillActive := tx.Model(&models.Subscription{}).Select("user_id").
			Where("status = ?", models.SubscriptionActive)
		return tx.Model(&models.User{}).
			Where("id IN ? AND id NOT IN (?)", userIDs, stillActive).
			Update("subscription_tier", models.TierFree).Error
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	for _, id := range userIDs {
		cache.InvalidateUser(ctx, id)
	}
	return expired, nil
}

func cancelActive(tx *gorm.DB, userID uint) error {
	return tx.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Update("status", models.SubscriptionCanceled).Error
}

func setUserTier(tx *gorm.DB, userID uint, tier models.SubscriptionTier) error {
	res := tx.Model(&models.User{}).Where("id = ?", userID).Update("subscription_tier", tier)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package service

import (
	"context"
	"time"

	"vividplate/internal/models"
	"vividplate/internal/repository"
)

const maxGrantMonths = 36

type SubscriptionService struct {
	subs        repository.SubscriptionRepository
	users       repository.UserRepository
	restaurants repository.RestaurantRepository
	now         func() time.Time
}

func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	restaurants repository.RestaurantRepository,
) *SubscriptionService {
	return &SubscriptionService{subs: subs, users: users, restaurants: restaurants, now: time.Now}
}

// Summary reports the user's tier, its limits and current usage.
func (s *SubscriptionService) Summary(ctx context.Context, userID uint) (*models.SubscriptionSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	used, err := s.restaurants.CountByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.subs.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits := models.LimitsForTier(user.SubscriptionTier)
	return &models.SubscriptionSummary{
		Tier:            user.SubscriptionTier,
		Limits:          limits,
		RestaurantsUsed: used,
		CanCreate:       used < int64(limits.MaxRestaurants),
		Active:          active,
	}, nil
}

func (s *SubscriptionService) Payments(ctx context.Context, userID uint) ([]models.Payment, error) {
	return s.subs.ListPayments(ctx, userID)
}

// Cancel stops renewal; the tier stays until the period ends.
func (s *SubscriptionService) Cancel(ctx context.Context, userID uint) (*models.Subscription, error) {
	active, err := s.subs.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, models.NewNotFoundError("Active subscription", userID)
	}
	if err := s.subs.SetCancelAtPeriodEnd(ctx, active.ID, true); err != nil {
		return nil, err
	}
	active.CancelAtPeriodEnd = true
	return active, nil
}

type SetTierInput struct {
	UserID      uint
	Tier        string
	Months      int
	AmountCents int64
}

// AdminSetTier grants premium for Months (default 1) or revokes to free.
func (s *SubscriptionService) AdminSetTier(ctx context.Context, in SetTierInput) (*models.SubscriptionSummary, error) {
	switch models.SubscriptionTier(in.Tier) {
	case models.TierPremium:
		months := in.Months
		if months == 0 {
			months = 1
		}
		if months < 0 || months > maxGrantMonths {
			return nil, models.NewValidationError("Months must be between 1 and 36")
		}
		if in.AmountCents < 0 {
			return nil, models.NewValidationError("Amount must not be negative")
		}
		start := s.now().UTC()
		if _, err := s.subs.Grant(ctx, repository.ManualGrant{
			UserID:      in.UserID,
			Tier:        models.TierPremium,
			PeriodStart: start,
			PeriodEnd:   start.AddDate(0, months, 0),
			AmountCents: in.AmountCents,
		}); err != nil {
			return nil, err
		}
	case models.TierFree:
		if err := s.subs.Revoke(ctx, in.UserID); err != nil {
			return nil, err
		}
	default:
		return nil, models.NewValidationError("Tier must be free or premium")
	}
	return s.Summary(ctx, in.UserID)
}

// ExpireDue is the subscription-expiry job body.
func (s *SubscriptionService) ExpireDue(ctx context.Context) (int64, error) {
	return s.subs.ExpireDue(ctx, s.now().UTC())
}

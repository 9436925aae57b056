package service

import (
	"context"
	"time"

	"vividplate/internal/models"
	"vividplate/internal/repository"
)

type AdminService struct {
	users       repository.UserRepository
	restaurants repository.RestaurantRepository
	menus       repository.MenuRepository
	views       repository.MenuViewRepository
	feedback    repository.FeedbackRepository
	now         func() time.Time
}

func NewAdminService(
	users repository.UserRepository,
	restaurants repository.RestaurantRepository,
	menus repository.MenuRepository,
	views repository.MenuViewRepository,
	feedback repository.FeedbackRepository,
) *AdminService {
	return &AdminService{users: users, restaurants: restaurants, menus: menus, views: views, feedback: feedback, now: time.Now}
}

// Stats collects the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats
	var err error

	if stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.PremiumUsers, err = s.users.CountByTier(ctx, models.TierPremium); err != nil {
		return nil, err
	}
	if stats.Restaurants, err = s.restaurants.Count(ctx); err != nil {
		return nil, err
	}
	if stats.MenuItems, err = s.menus.CountAllItems(ctx); err != nil {
		return nil, err
	}
	if stats.ViewsLast7Days, err = s.views.CountSince(ctx, s.now().UTC().AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if stats.PendingFeedback, err = s.feedback.CountByStatus(ctx, models.FeedbackPending); err != nil {
		return nil, err
	}
	return &stats, nil
}

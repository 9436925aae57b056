package service

import (
	"context"
	"time"

	"vividplate/internal/models"
	"vividplate/internal/observability"
	"vividplate/internal/repository"
)

const (
	DefaultAnalyticsDays = 30
	MaxAnalyticsDays     = 365
)

type AnalyticsService struct {
	restaurants repository.RestaurantRepository
	views       repository.MenuViewRepository
	now         func() time.Time
}

func NewAnalyticsService(restaurants repository.RestaurantRepository, views repository.MenuViewRepository) *AnalyticsService {
	return &AnalyticsService{restaurants: restaurants, views: views, now: time.Now}
}

// RecordView appends a view event. An empty source counts as a link visit.
func (s *AnalyticsService) RecordView(ctx context.Context, restaurantID uint, source models.ViewSource) error {
	if source == "" {
		source = models.ViewSourceLink
	}
	if !source.Valid() {
		return models.NewValidationError("Source must be qr or link")
	}
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		return err
	}
	if err := s.views.Record(ctx, &models.MenuView{
		RestaurantID: restaurantID,
		Source:       source,
		ViewedAt:     s.now().UTC(),
	}); err != nil {
		return err
	}
	observability.MenuViews.WithLabelValues(string(source)).Inc()
	return nil
}

// Summary reports views over the trailing window of days.
func (s *AnalyticsService) Summary(ctx context.Context, actor Actor, restaurantID uint, days int) (*models.ViewAnalytics, error) {
	r, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(actor, r); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultAnalyticsDays
	}
	if days > MaxAnalyticsDays {
		days = MaxAnalyticsDays
	}

	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := midnight.AddDate(0, 0, -(days - 1))

	bySource, err := s.views.CountBySource(ctx, restaurantID, since)
	if err != nil {
		return nil, err
	}
	daily, err := s.views.DailyCounts(ctx, restaurantID, since)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range bySource {
		total += n
	}
	return &models.ViewAnalytics{
		RestaurantID: restaurantID,
		Days:         days,
		Total:        total,
		BySource:     bySource,
		Daily:        fillDays(since, days, daily),
	}, nil
}

// fillDays returns one entry per day in the window, zero where absent.
func fillDays(since time.Time, days int, counts []models.DailyViews) []models.DailyViews {
	byDay := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDay[c.Day] = c.Count
	}
	out := make([]models.DailyViews, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format("2006-01-02")
		out = append(out, models.DailyViews{Day: day, Count: byDay[day]})
	}
	return out
}

package repository

import (
	"context"
	"testing"
	"time"

	"vividplate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuViewRepository_Aggregates(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewMenuViewRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "owner")
	r := seedRestaurant(t, db, owner.ID, "bistro")

	day1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	views := []models.MenuView{
		{RestaurantID: r.ID, Source: models.ViewSourceQR, ViewedAt: day1},
		{RestaurantID: r.ID, Source: models.ViewSourceQR, ViewedAt: day1.Add(time.Hour)},
		{RestaurantID: r.ID, Source: models.ViewSourceLink, ViewedAt: day2},
		{RestaurantID: r.ID, Source: models.ViewSourceLink, ViewedAt: day1.Add(-30 * 24 * time.Hour)},
		{RestaurantID: r.ID + 1, Source: models.ViewSourceQR, ViewedAt: day1},
	}
	for i := range views {
		require.NoError(t, repo.Record(ctx, &views[i]))
	}

	since := day1.Add(-time.Hour)
	bySource, err := repo.CountBySource(ctx, r.ID, since)
	require.NoError(t, err)
	assert.Equal(t, map[models.ViewSource]int64{models.ViewSourceQR: 2, models.ViewSourceLink: 1}, bySource)

	daily, err := repo.DailyCounts(ctx, r.ID, since)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyViews{{Day: "2026-03-01", Count: 2}, {Day: "2026-03-02", Count: 1}}, daily)

	total, err := repo.CountSince(ctx, since)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}

func TestMenuViewRepository_RecordDefaultsTime(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewMenuViewRepository(db)

	v := &models.MenuView{RestaurantID: 1, Source: models.ViewSourceLink}
	require.NoError(t, repo.Record(context.Background(), v))
	assert.WithinDuration(t, time.Now(), v.ViewedAt, time.Minute)
}

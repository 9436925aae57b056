package repository

import (
	"context"
	"testing"

	"vividplate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewFeedbackRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "owner")
	r := seedRestaurant(t, db, owner.ID, "bistro")

	ratings := []int{5, 4, 2}
	var ids []uint
	for _, rating := range ratings {
		fb := &models.Feedback{RestaurantID: r.ID, Rating: rating}
		require.NoError(t, repo.Create(ctx, fb))
		assert.Equal(t, models.FeedbackPending, fb.Status)
		ids = append(ids, fb.ID)
	}

	avg, count, err := repo.ApprovedStats(ctx, r.ID)
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, count)

	require.NoError(t, repo.UpdateStatus(ctx, ids[0], models.FeedbackApproved))
	require.NoError(t, repo.UpdateStatus(ctx, ids[1], models.FeedbackApproved))
	require.NoError(t, repo.UpdateStatus(ctx, ids[2], models.FeedbackRejected))
	assert.True(t, models.IsNotFound(repo.UpdateStatus(ctx, 999, models.FeedbackApproved)))

	avg, count, err = repo.ApprovedStats(ctx, r.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 0.001)
	assert.EqualValues(t, 2, count)

	approved, err := repo.ListByRestaurant(ctx, r.ID, models.FeedbackApproved)
	require.NoError(t, err)
	assert.Len(t, approved, 2)

	all, err := repo.ListByRestaurant(ctx, r.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	rejected, total, err := repo.ListByStatus(ctx, models.FeedbackRejected, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, ids[2], rejected[0].ID)

	pending, err := repo.CountByStatus(ctx, models.FeedbackPending)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

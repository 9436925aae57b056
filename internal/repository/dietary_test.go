package repository

import (
	"context"
	"testing"

	"vividplate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDietaryPreferenceRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewDietaryPreferenceRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "diner")

	uid := owner.ID
	byUser := &models.DietaryPreference{UserID: &uid, Preferences: models.DietaryFlags{"vegan": true}, IsActive: true}
	require.NoError(t, repo.Save(ctx, byUser))

	session := "4f6b1c8e-2f7a-4f0e-9a55-0d1c6f3e8b21"
	bySession := &models.DietaryPreference{SessionID: &session, Allergies: []string{"nuts"}, IsActive: true}
	require.NoError(t, repo.Save(ctx, bySession))

	dup := &models.DietaryPreference{SessionID: &session, IsActive: true}
	assert.Equal(t, models.CodeConflict, models.ErrorCode(repo.Save(ctx, dup)))

	got, err := repo.GetByUserID(ctx, uid)
	require.NoError(t, err)
	assert.True(t, got.Preferences["vegan"])
	assert.Empty(t, got.Allergies)

	got.CalorieGoal = intPtr(600)
	require.NoError(t, repo.Save(ctx, got))

	fromSession, err := repo.GetBySessionID(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, []string{"nuts"}, []string(fromSession.Allergies))
	assert.Nil(t, fromSession.Preferences)

	_, err = repo.GetBySessionID(ctx, "missing")
	assert.True(t, models.IsNotFound(err))

	require.NoError(t, repo.Delete(ctx, fromSession.ID))
	assert.True(t, models.IsNotFound(repo.Delete(ctx, fromSession.ID)))
}

package repository

import (
	"context"
	"testing"
	"time"

	"vividplate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurantRepository_CreateAndLookup(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewRestaurantRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "owner")

	r := &models.Restaurant{UserID: owner.ID, Name: "Blue Door", Slug: "blue-door", Tags: []string{"brunch"}}
	require.NoError(t, repo.Create(ctx, r))
	assert.False(t, r.IsPublished, "explicit false must survive the column default")

	dup := &models.Restaurant{UserID: owner.ID, Name: "Other", Slug: "blue-door", IsPublished: true}
	assert.Equal(t, models.CodeConflict, models.ErrorCode(repo.Create(ctx, dup)))

	got, err := repo.GetBySlug(ctx, "blue-door")
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, []string{"brunch"}, []string(got.Tags))
	assert.False(t, got.IsPublished)

	exists, err := repo.SlugExists(ctx, "blue-door")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByID(ctx, 404)
	assert.True(t, models.IsNotFound(err))

	n, err := repo.CountByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := repo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRestaurantRepository_Update(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewRestaurantRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "owner")
	a := seedRestaurant(t, db, owner.ID, "alpha")
	seedRestaurant(t, db, owner.ID, "beta")

	a.Name = "Alpha Bistro"
	a.Slug = "alpha-bistro"
	require.NoError(t, repo.Update(ctx, a, "alpha"))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha-bistro", got.Slug)

	a.Slug = "beta"
	assert.Equal(t, models.CodeConflict, models.ErrorCode(repo.Update(ctx, a, "alpha-bistro")))
}

func TestRestaurantRepository_DeleteCascades(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewRestaurantRepository(db)
	menus := NewMenuRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "owner")
	r := seedRestaurant(t, db, owner.ID, "doomed")
	keep := seedRestaurant(t, db, owner.ID, "kept")

	for _, rid := range []uint{r.ID, keep.ID} {
		cat := &models.MenuCategory{RestaurantID: rid, Name: "Mains"}
		require.NoError(t, menus.CreateCategory(ctx, cat))
		require.NoError(t, menus.CreateItem(ctx, &models.MenuItem{CategoryID: cat.ID, Name: "Soup", Price: "5.00", IsAvailable: true}))
		require.NoError(t, db.Create(&models.MenuView{RestaurantID: rid, Source: models.ViewSourceQR, ViewedAt: time.Now()}).Error)
		require.NoError(t, db.Create(&models.Feedback{RestaurantID: rid, Rating: 4}).Error)
	}

	require.NoError(t, repo.Delete(ctx, r))

	for model, want := range map[any]int64{
		&models.Restaurant{}:   1,
		&models.MenuCategory{}: 1,
		&models.MenuItem{}:     1,
		&models.MenuView{}:     1,
		&models.Feedback{}:     1,
	} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Equal(t, want, n, "%T", model)
	}

	assert.True(t, models.IsNotFound(repo.Delete(ctx, r)))
}

func TestRestaurantRepository_ListPaged(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewRestaurantRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "owner")
	for _, slug := range []string{"one", "two", "three"} {
		seedRestaurant(t, db, owner.ID, slug)
	}

	page, total, err := repo.List(ctx, Page{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)

	rest, _, err := repo.List(ctx, Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "three", rest[0].Slug)
}

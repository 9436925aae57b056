package service

import (
	"context"
	"strings"
	"testing"

	"vividplate/internal/featureflags"
	"vividplate/internal/models"
	"vividplate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackService_Submit(t *testing.T) {
	r := newRepos(t)
	svc := NewFeedbackService(r.feedback, r.restaurants, r.menus, nil)
	menus := NewMenuService(r.restaurants, r.menus)
	ctx := context.Background()
	owner := seedUser(t, r, "owner", models.TierPremium)
	actor := Actor{UserID: owner.ID}
	rest := seedRestaurant(t, r, owner, "Rated")
	other := seedRestaurant(t, r, owner, "Elsewhere")

	cat, err := menus.CreateCategory(ctx, actor, rest.ID, CategoryInput{Name: ptr("Mains")})
	require.NoError(t, err)
	item, err := menus.CreateItem(ctx, actor, cat.ID, ItemInput{Name: ptr("Lasagna"), Price: ptr("11")})
	require.NoError(t, err)
	otherCat, err := menus.CreateCategory(ctx, actor, other.ID, CategoryInput{Name: ptr("Other")})
	require.NoError(t, err)
	otherItem, err := menus.CreateItem(ctx, actor, otherCat.ID, ItemInput{Name: ptr("Other dish"), Price: ptr("3")})
	require.NoError(t, err)

	fb, err := svc.Submit(ctx, SubmitFeedbackInput{
		RestaurantID:  rest.ID,
		MenuItemID:    &item.ID,
		Rating:        5,
		Comment:       " Excellent ",
		CustomerEmail: "diner@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackPending, fb.Status)
	assert.Equal(t, "Excellent", fb.Comment)

	tests := []struct {
		name string
		in   SubmitFeedbackInput
		code string
	}{
		{"rating too low", SubmitFeedbackInput{RestaurantID: rest.ID, Rating: 0}, models.CodeValidation},
		{"rating too high", SubmitFeedbackInput{RestaurantID: rest.ID, Rating: 6}, models.CodeValidation},
		{"comment too long", SubmitFeedbackInput{RestaurantID: rest.ID, Rating: 3, Comment: strings.Repeat("a", 2001)}, models.CodeValidation},
		{"bad email", SubmitFeedbackInput{RestaurantID: rest.ID, Rating: 3, CustomerEmail: "nope"}, models.CodeValidation},
		{"foreign item", SubmitFeedbackInput{RestaurantID: rest.ID, Rating: 3, MenuItemID: &otherItem.ID}, models.CodeValidation},
		{"unknown item", SubmitFeedbackInput{RestaurantID: rest.ID, Rating: 3, MenuItemID: ptr(uint(999))}, models.CodeValidation},
		{"unknown restaurant", SubmitFeedbackInput{RestaurantID: 999, Rating: 3}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.in)
			assertCode(t, err, tt.code)
		})
	}
}

func TestFeedbackService_Disabled(t *testing.T) {
	r := newRepos(t)
	svc := NewFeedbackService(r.feedback, r.restaurants, r.menus, featureflags.NewManager("feedback=off"))

	_, err := svc.Submit(context.Background(), SubmitFeedbackInput{RestaurantID: 1, Rating: 4})
	assertCode(t, err, models.CodeFeatureDisabled)
}

func TestFeedbackService_ModerationAndPublic(t *testing.T) {
	r := newRepos(t)
	svc := NewFeedbackService(r.feedback, r.restaurants, r.menus, nil)
	ctx := context.Background()
	owner := seedUser(t, r, "owner", models.TierFree)
	intruder := seedUser(t, r, "intruder", models.TierFree)
	rest := seedRestaurant(t, r, owner, "Moderated")

	var ids []uint
	for _, rating := range []int{5, 2, 4} {
		fb, err := svc.Submit(ctx, SubmitFeedbackInput{RestaurantID: rest.ID, Rating: rating, CustomerEmail: "d@example.com"})
		require.NoError(t, err)
		ids = append(ids, fb.ID)
	}

	_, err := svc.SetStatus(ctx, Actor{UserID: intruder.ID}, ids[0], models.FeedbackApproved)
	assertCode(t, err, models.CodeForbidden)
	_, err = svc.SetStatus(ctx, Actor{UserID: owner.ID}, ids[0], "published")
	assertCode(t, err, models.CodeValidation)

	_, err = svc.SetStatus(ctx, Actor{UserID: owner.ID}, ids[0], models.FeedbackApproved)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, Actor{UserID: intruder.ID, IsAdmin: true}, ids[2], models.FeedbackApproved)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, Actor{UserID: owner.ID}, ids[1], models.FeedbackRejected)
	require.NoError(t, err)

	pub, err := svc.Public(ctx, rest.ID)
	require.NoError(t, err)
	assert.Len(t, pub.Items, 2)
	assert.Equal(t, 2, pub.Count)
	assert.InDelta(t, 4.5, pub.AverageRating, 0.001)
	for _, item := range pub.Items {
		assert.Empty(t, item.CustomerEmail)
	}

	rejected, err := svc.ListForOwner(ctx, Actor{UserID: owner.ID}, rest.ID, models.FeedbackRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, ids[1], rejected[0].ID)

	_, err = svc.ListForOwner(ctx, Actor{UserID: intruder.ID}, rest.ID, "")
	assertCode(t, err, models.CodeForbidden)

	queue, total, err := svc.ListByStatus(ctx, models.FeedbackApproved, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, queue, 2)
	assert.EqualValues(t, 2, total)
}

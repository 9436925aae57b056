package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxRestaurantsForTier(t *testing.T) {
	tests := []struct {
		tier SubscriptionTier
		want int
	}{
		{TierFree, 1},
		{TierPremium, 3},
		{SubscriptionTier("enterprise"), 1},
		{SubscriptionTier(""), 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			assert.Equal(t, tt.want, MaxRestaurantsForTier(tt.tier))
		})
	}
}

func TestMaxImagesPerItemForTier(t *testing.T) {
	assert.Equal(t, 1, MaxImagesPerItemForTier(TierFree))
	assert.Equal(t, 5, MaxImagesPerItemForTier(TierPremium))
	assert.Equal(t, TierLimits{MaxRestaurants: 3, MaxImages: 5}, LimitsForTier(TierPremium))
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierPremium, ParseTier("premium"))
	assert.Equal(t, TierFree, ParseTier("gold"))
}

func TestErrorCode(t *testing.T) {
	err := NewLimitError("limit")
	wrapped := errors.Join(errors.New("ctx"), err)
	assert.Equal(t, CodeLimitReached, ErrorCode(wrapped))
	assert.True(t, IsNotFound(NewNotFoundError("Restaurant", 3)))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.Equal(t, "Restaurant with ID 3 not found", NewNotFoundError("Restaurant", 3).Error())
}

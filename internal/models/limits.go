package models

// MaxRestaurantsForTier is the single source of truth for how many
// restaurants an owner on the given tier may create.
func MaxRestaurantsForTier(tier SubscriptionTier) int {
	switch tier {
	case TierPremium:
		return 3
	default:
		return 1
	}
}

// MaxImagesPerItemForTier bounds banner slideshow and gallery images.
func MaxImagesPerItemForTier(tier SubscriptionTier) int {
	switch tier {
	case TierPremium:
		return 5
	default:
		return 1
	}
}

// TierLimits is the serialisable view of a tier's quotas.
type TierLimits struct {
	MaxRestaurants int `json:"max_restaurants"`
	MaxImages      int `json:"max_images"`
}

// LimitsForTier bundles every per-tier quota.
func LimitsForTier(tier SubscriptionTier) TierLimits {
	return TierLimits{
		MaxRestaurants: MaxRestaurantsForTier(tier),
		MaxImages:      MaxImagesPerItemForTier(tier),
	}
}

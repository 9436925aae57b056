// Package recommend scores menu items against a diner's dietary preference.
package recommend

import (
	"math"
	"sort"
	"strings"

	"vividplate/internal/models"
)

const (
	// AllergenScore is the fixed score of an item containing a declared allergy.
	AllergenScore = -100.0
	// FlagScore is added for every wanted dietary flag the item satisfies.
	FlagScore = 10.0
	// MaxCalorieScore is the bonus for an exact calorie match.
	MaxCalorieScore = 10.0
	// CalorieStep is the calorie distance that costs one point.
	CalorieStep = 100.0
	// CalorieMatchRatio is the relative distance under which an item matches.
	CalorieMatchRatio = 0.2
)

// Preference is the scorer's view of a stored dietary preference.
type Preference struct {
	Flags       map[string]bool
	Allergies   []string
	CalorieGoal *int
}

// FromModel builds a Preference from the stored record.
func FromModel(p *models.DietaryPreference) Preference {
	if p == nil {
		return Preference{}
	}
	return Preference{
		Flags:       map[string]bool(p.Preferences),
		Allergies:   []string(p.Allergies),
		CalorieGoal: p.CalorieGoal,
	}
}

// Recommendation is one ranked menu item.
type Recommendation struct {
	Item  models.MenuItem `json:"item"`
	Score float64         `json:"score"`
	Match bool            `json:"match"`
}

// ScoreItem computes the score and match flag for a single item.
//
// An item listing any of the diner's allergies is pinned to AllergenScore
// and never matches. An item without dietary info scores zero. Otherwise
// each wanted flag the item declares true adds FlagScore, and a calorie
// goal adds up to MaxCalorieScore by proximity.
func ScoreItem(p Preference, item models.MenuItem) (float64, bool) {
	if hasAllergen(p.Allergies, item.Allergens) {
		return AllergenScore, false
	}
	if item.DietaryInfo == nil {
		return 0, false
	}

	score := 0.0
	match := false
	for flag, wanted := range p.Flags {
		if wanted && item.DietaryInfo[flag] {
			score += FlagScore
			match = true
		}
	}

	if p.CalorieGoal != nil && item.Calories != nil {
		goal := *p.CalorieGoal
		score += CalorieScore(goal, *item.Calories)
		if math.Abs(float64(goal-*item.Calories)) < CalorieMatchRatio*float64(goal) {
			match = true
		}
	}
	return score, match
}

// CalorieScore is 10 for an exact hit, losing a point per 100 kcal of
// distance, never below 0.
func CalorieScore(goal, calories int) float64 {
	diff := math.Abs(float64(goal - calories))
	return MaxCalorieScore - math.Min(MaxCalorieScore, diff/CalorieStep)
}

// Rank scores every item and orders the result by score, highest first.
// Items keep their input order on ties and none are dropped.
func Rank(p Preference, items []models.MenuItem) []Recommendation {
	out := make([]Recommendation, 0, len(items))
	for _, item := range items {
		score, match := ScoreItem(p, item)
		out = append(out, Recommendation{Item: item, Score: score, Match: match})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func hasAllergen(allergies, allergens []string) bool {
	if len(allergies) == 0 || len(allergens) == 0 {
		return false
	}
	present := make(map[string]struct{}, len(allergens))
	for _, a := range allergens {
		present[normalize(a)] = struct{}{}
	}
	for _, a := range allergies {
		if _, ok := present[normalize(a)]; ok {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package service

import (
	"context"

	"vividplate/internal/featureflags"
	"vividplate/internal/models"
	"vividplate/internal/observability"
	"vividplate/internal/recommend"
	"vividplate/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const maxAllergies = 50

// DietaryService stores diner preferences and ranks menus against them.
type DietaryService struct {
	prefs       repository.DietaryPreferenceRepository
	restaurants repository.RestaurantRepository
	menus       repository.MenuRepository
	flags       *featureflags.Manager
}

func NewDietaryService(
	prefs repository.DietaryPreferenceRepository,
	restaurants repository.RestaurantRepository,
	menus repository.MenuRepository,
	flags *featureflags.Manager,
) *DietaryService {
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &DietaryService{prefs: prefs, restaurants: restaurants, menus: menus, flags: flags}
}

// Owner identifies whose preference is addressed. UserID wins over
// SessionID when both are set.
type Owner struct {
	UserID    *uint
	SessionID string
}

// UpsertPreferenceInput replaces Preferences and Allergies wholesale when
// they are non-nil; nil keeps the stored value.
type UpsertPreferenceInput struct {
	Owner
	Preferences map[string]bool
	Allergies   []string
	CalorieGoal *int
}

// normalize rejects a session id that is not a UUID and rewrites a valid
// one to its canonical lower-case form, so every spelling of the same id
// addresses one record.
func (o Owner) normalize() (Owner, error) {
	if o.UserID != nil || o.SessionID == "" {
		return o, nil
	}
	id, err := uuid.Parse(o.SessionID)
	if err != nil {
		return o, models.NewValidationError("Session id must be a UUID")
	}
	o.SessionID = id.String()
	return o, nil
}

func (s *DietaryService) find(ctx context.Context, o Owner) (*models.DietaryPreference, error) {
	if o.UserID != nil {
		return s.prefs.GetByUserID(ctx, *o.UserID)
	}
	if o.SessionID == "" {
		return nil, models.NewNotFoundError("Dietary preference", "")
	}
	return s.prefs.GetBySessionID(ctx, o.SessionID)
}

// Upsert creates or merges the caller's preference. Without a user or a
// session id a fresh session id is generated and returned on the record.
func (s *DietaryService) Upsert(ctx context.Context, in UpsertPreferenceInput) (*models.DietaryPreference, error) {
	owner, err := in.Owner.normalize()
	if err != nil {
		return nil, err
	}
	in.Owner = owner
	if len(in.Allergies) > maxAllergies {
		return nil, models.NewValidationError("Too many allergies (max 50)")
	}
	if in.CalorieGoal != nil && *in.CalorieGoal <= 0 {
		return nil, models.NewValidationError("Calorie goal must be positive")
	}

	pref, err := s.find(ctx, in.Owner)
	switch {
	case err == nil:
	case models.IsNotFound(err):
		pref = &models.DietaryPreference{IsActive: true}
		if in.UserID != nil {
			uid := *in.UserID
			pref.UserID = &uid
		} else {
			sid := in.SessionID
			if sid == "" {
				sid = uuid.NewString()
			}
			pref.SessionID = &sid
		}
	default:
		return nil, err
	}

	if in.Preferences != nil {
		pref.Preferences = models.DietaryFlags(in.Preferences)
	}
	if in.Allergies != nil {
		pref.Allergies = cleanList(in.Allergies)
	}
	if in.CalorieGoal != nil {
		goal := *in.CalorieGoal
		pref.CalorieGoal = &goal
	}
	pref.IsActive = true

	if err := s.prefs.Save(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}

func (s *DietaryService) Get(ctx context.Context, o Owner) (*models.DietaryPreference, error) {
	o, err := o.normalize()
	if err != nil {
		return nil, err
	}
	return s.find(ctx, o)
}

func (s *DietaryService) Delete(ctx context.Context, o Owner) error {
	pref, err := s.Get(ctx, o)
	if err != nil {
		return err
	}
	return s.prefs.Delete(ctx, pref.ID)
}

// Recommend ranks every item of the restaurant for the caller. A missing
// preference is NOT_FOUND; an empty menu yields an empty list.
func (s *DietaryService) Recommend(ctx context.Context, restaurantID uint, o Owner) (recs []recommend.Recommendation, err error) {
	ctx, span := observability.StartSpan(ctx, "DietaryService.Recommend", observability.RestaurantID(restaurantID))
	defer observability.EndSpan(span, &err)

	outcome := "ok"
	defer func() {
		observability.Recommendations.WithLabelValues(outcome).Inc()
	}()

	if !s.enabled(o) {
		outcome = "disabled"
		return nil, models.NewFeatureDisabledError(featureflags.Recommendations)
	}

	pref, err := s.Get(ctx, o)
	if err != nil {
		outcome = "no_preference"
		return nil, err
	}
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		outcome = "error"
		return nil, err
	}
	items, err := s.menus.ListItemsByRestaurant(ctx, restaurantID)
	if err != nil {
		outcome = "error"
		return nil, err
	}

	recs = recommend.Rank(recommend.FromModel(pref), items)
	span.SetAttributes(attribute.Int("vividplate.menu_items", len(items)))
	if len(recs) == 0 {
		outcome = "empty"
	}
	return recs, nil
}

func (s *DietaryService) enabled(o Owner) bool {
	if o.UserID != nil {
		return s.flags.Enabled(featureflags.Recommendations, *o.UserID)
	}
	if norm, err := o.normalize(); err == nil {
		o = norm
	}
	return s.flags.EnabledForSession(featureflags.Recommendations, o.SessionID)
}

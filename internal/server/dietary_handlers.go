package server

import (
	"strings"

	"vividplate/internal/middleware"
	"vividplate/internal/recommend"
	"vividplate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// sessionHeader carries the anonymous diner's session id.
const sessionHeader = "X-Session-Id"

// DietaryPreferenceRequest is the body of POST /api/dietary-preferences.
// Omitted preferences or allergies keep their stored value.
type DietaryPreferenceRequest struct {
	SessionID   string          `json:"session_id"`
	Preferences map[string]bool `json:"preferences"`
	Allergies   []string        `json:"allergies" validate:"omitempty,max=50,dive,max=60"`
	CalorieGoal *int            `json:"calorie_goal" validate:"omitempty,gt=0,lte=20000"`
}

// RecommendationsResponse wraps the ranked menu.
type RecommendationsResponse struct {
	RestaurantID    uint                       `json:"restaurant_id"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// owner identifies the diner: the authenticated user when there is one,
// otherwise the session id from the header, the query or the body.
func owner(c *fiber.Ctx, bodySessionID string) service.Owner {
	if userID, ok := middleware.UserID(c); ok {
		return service.Owner{UserID: &userID}
	}
	sid := strings.TrimSpace(c.Get(sessionHeader))
	if sid == "" {
		sid = strings.TrimSpace(c.Query("session_id"))
	}
	if sid == "" {
		sid = strings.TrimSpace(bodySessionID)
	}
	return service.Owner{SessionID: sid}
}

// GetDietaryPreference handles GET /api/dietary-preferences
// @Summary Get the diner's dietary preference
// @Tags dietary
// @Produce json
// @Param X-Session-Id header string false "Anonymous session id"
// @Success 200 {object} models.DietaryPreference
// @Failure 404 {object} models.ErrorResponse
// @Router /dietary-preferences [get]
func (s *Server) GetDietaryPreference(c *fiber.Ctx) error {
	pref, err := s.dietaryService.Get(c.UserContext(), owner(c, ""))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pref)
}

// UpsertDietaryPreference handles POST /api/dietary-preferences
// @Summary Create or merge the diner's dietary preference
// @Description Without a token or session id a new session id is issued and returned.
// @Tags dietary
// @Accept json
// @Produce json
// @Param X-Session-Id header string false "Anonymous session id"
// @Param request body DietaryPreferenceRequest true "Preference"
// @Success 200 {object} models.DietaryPreference
// @Failure 400 {object} models.ErrorResponse
// @Router /dietary-preferences [post]
func (s *Server) UpsertDietaryPreference(c *fiber.Ctx) error {
	var req DietaryPreferenceRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	pref, err := s.dietaryService.Upsert(c.UserContext(), service.UpsertPreferenceInput{
		Owner:       owner(c, req.SessionID),
		Preferences: req.Preferences,
		Allergies:   req.Allergies,
		CalorieGoal: req.CalorieGoal,
	})
	if err != nil {
		return respondError(c, err)
	}
	if pref.SessionID != nil {
		c.Set(sessionHeader, *pref.SessionID)
	}
	return c.JSON(pref)
}

// DeleteDietaryPreference handles DELETE /api/dietary-preferences
// @Summary Clear the diner's dietary preference
// @Tags dietary
// @Param X-Session-Id header string false "Anonymous session id"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /dietary-preferences [delete]
func (s *Server) DeleteDietaryPreference(c *fiber.Ctx) error {
	if err := s.dietaryService.Delete(c.UserContext(), owner(c, "")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetRecommendations handles GET /api/menu-recommendations/:restaurantId
// @Summary Rank a restaurant's menu for the diner
// @Description Items carrying a listed allergen score -100; every item is returned.
// @Tags dietary
// @Produce json
// @Param restaurantId path int true "Restaurant ID"
// @Param X-Session-Id header string false "Anonymous session id"
// @Success 200 {object} RecommendationsResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /menu-recommendations/{restaurantId} [get]
func (s *Server) GetRecommendations(c *fiber.Ctx) error {
	restaurantID, err := s.parseID(c, "restaurantId")
	if err != nil {
		return nil
	}

	recs, err := s.dietaryService.Recommend(c.UserContext(), restaurantID, owner(c, ""))
	if err != nil {
		return respondError(c, err)
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	return c.JSON(RecommendationsResponse{
		RestaurantID:    restaurantID,
		Recommendations: recs,
	})
}

package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"vividplate/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doSession sends a request as an anonymous diner.
func (e *testEnv) doSession(t *testing.T, method, path, sessionID string, body any) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if body != nil {
		req = httptest.NewRequest(method, path, jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// seedRecommendationMenu builds a restaurant with a vegan dish near 500 kcal
// and a nut dessert.
func seedRecommendationMenu(t *testing.T, env *testEnv) models.Restaurant {
	t.Helper()
	token, _ := env.register(t, "greenchef")
	r := env.createRestaurant(t, token, "Green Table")
	cat := env.createCategory(t, token, r.ID, "All")
	env.createItem(t, token, cat.ID, fiber.Map{
		"name": "Buddha Bowl", "price": "12.00",
		"dietary_info": fiber.Map{"vegan": true}, "calories": 520,
	})
	env.createItem(t, token, cat.ID, fiber.Map{
		"name": "Praline Tart", "price": "7.50",
		"allergens": []string{"Nuts"},
	})
	env.createItem(t, token, cat.ID, fiber.Map{"name": "Bread", "price": "2.00"})
	return r
}

func TestDietaryPreference_AnonymousSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doSession(t, http.MethodPost, "/api/dietary-preferences", "", fiber.Map{
		"preferences":  fiber.Map{"vegan": true},
		"allergies":    []string{"nuts"},
		"calorie_goal": 500,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pref := decode[models.DietaryPreference](t, resp)
	require.NotNil(t, pref.SessionID)
	_, err := uuid.Parse(*pref.SessionID)
	require.NoError(t, err)
	assert.Equal(t, *pref.SessionID, resp.Header.Get(sessionHeader))
	sid := *pref.SessionID

	t.Run("merge keeps omitted fields", func(t *testing.T) {
		resp := env.doSession(t, http.MethodPost, "/api/dietary-preferences", sid, fiber.Map{"calorie_goal": 700})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		merged := decode[models.DietaryPreference](t, resp)
		assert.Equal(t, pref.ID, merged.ID)
		assert.Equal(t, []string{"nuts"}, []string(merged.Allergies))
		assert.True(t, merged.Preferences["vegan"])
		require.NotNil(t, merged.CalorieGoal)
		assert.Equal(t, 700, *merged.CalorieGoal)
	})

	t.Run("get via query parameter", func(t *testing.T) {
		resp := env.doSession(t, http.MethodGet, "/api/dietary-preferences?session_id="+sid, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("invalid session id", func(t *testing.T) {
		resp := env.doSession(t, http.MethodGet, "/api/dietary-preferences", "not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp := env.doSession(t, http.MethodDelete, "/api/dietary-preferences", sid, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp = env.doSession(t, http.MethodGet, "/api/dietary-preferences", sid, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDietaryPreference_UserTakesPrecedence(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.register(t, "diner")

	req := httptest.NewRequest(http.MethodPost, "/api/dietary-preferences", jsonBody(t, fiber.Map{
		"preferences": fiber.Map{"gluten_free": true},
	}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(sessionHeader, uuid.NewString())
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	pref := decode[models.DietaryPreference](t, resp)
	require.NotNil(t, pref.UserID)
	assert.Equal(t, userID, *pref.UserID)
	assert.Nil(t, pref.SessionID)

	resp = env.do(t, http.MethodGet, "/api/dietary-preferences", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t)
	r := seedRecommendationMenu(t, env)
	path := fmt.Sprintf("/api/menu-recommendations/%d", r.ID)

	sid := uuid.NewString()
	t.Run("no preference yet", func(t *testing.T) {
		resp := env.doSession(t, http.MethodGet, path, sid, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	resp := env.doSession(t, http.MethodPost, "/api/dietary-preferences", sid, fiber.Map{
		"preferences":  fiber.Map{"vegan": true},
		"allergies":    []string{"nuts"},
		"calorie_goal": 500,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.doSession(t, http.MethodGet, path, sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[RecommendationsResponse](t, resp)
	assert.Equal(t, r.ID, out.RestaurantID)
	require.Len(t, out.Recommendations, 3)

	top := out.Recommendations[0]
	assert.Equal(t, "Buddha Bowl", top.Item.Name)
	assert.InDelta(t, 19.8, top.Score, 1e-9)
	assert.True(t, top.Match)

	assert.Equal(t, "Bread", out.Recommendations[1].Item.Name)
	assert.Equal(t, 0.0, out.Recommendations[1].Score)

	last := out.Recommendations[2]
	assert.Equal(t, "Praline Tart", last.Item.Name)
	assert.Equal(t, -100.0, last.Score)
	assert.False(t, last.Match)

	t.Run("unknown restaurant", func(t *testing.T) {
		resp := env.doSession(t, http.MethodGet, "/api/menu-recommendations/9999", sid, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRecommendations_EmptyMenu(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "emptychef")
	r := env.createRestaurant(t, token, "Bare Shelves")

	resp := env.do(t, http.MethodPost, "/api/dietary-preferences", token, fiber.Map{"preferences": fiber.Map{"vegan": true}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/menu-recommendations/%d", r.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp)
	assert.Equal(t, []any{}, out["recommendations"])
}

func TestRecommendations_FeatureDisabled(t *testing.T) {
	env := newTestEnv(t, withFlags("recommendations=off"))
	r := seedRecommendationMenu(t, env)
	sid := uuid.NewString()

	resp := env.doSession(t, http.MethodPost, "/api/dietary-preferences", sid, fiber.Map{"preferences": fiber.Map{"vegan": true}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.doSession(t, http.MethodGet, fmt.Sprintf("/api/menu-recommendations/%d", r.ID), sid, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeFeatureDisabled, decode[models.ErrorResponse](t, resp).Code)
}

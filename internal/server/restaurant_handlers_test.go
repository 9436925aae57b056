package server

import (
	"fmt"
	"net/http"
	"testing"

	"vividplate/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createRestaurant(t *testing.T, token, name string) models.Restaurant {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/restaurants", token, fiber.Map{
		"name":    name,
		"cuisine": "Bistro",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.Restaurant](t, resp)
}

func (e *testEnv) createCategory(t *testing.T, token string, restaurantID uint, name string) models.MenuCategory {
	t.Helper()
	resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/restaurants/%d/categories", restaurantID), token, fiber.Map{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.MenuCategory](t, resp)
}

func (e *testEnv) createItem(t *testing.T, token string, categoryID uint, body fiber.Map) models.MenuItem {
	t.Helper()
	resp := e.do(t, http.MethodPost, fmt.Sprintf("/api/categories/%d/items", categoryID), token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.MenuItem](t, resp)
}

func TestRestaurantLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, ownerID := env.register(t, "chef")

	r := env.createRestaurant(t, token, "Cafe Ole")
	assert.Equal(t, ownerID, r.UserID)
	assert.Equal(t, "cafe-ole", r.Slug)
	assert.True(t, r.IsPublished)

	t.Run("free tier allows one restaurant", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/restaurants", token, fiber.Map{"name": "Second"})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, models.CodeLimitReached, decode[models.ErrorResponse](t, resp).Code)
	})

	t.Run("list mine", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/restaurants", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]models.Restaurant](t, resp), 1)
	})

	t.Run("update", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, fmt.Sprintf("/api/restaurants/%d", r.ID), token, fiber.Map{
			"description": "Small plates",
			"hours_of_operation": fiber.Map{
				"monday": fiber.Map{"open": "09:00", "close": "17:00"},
			},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		updated := decode[models.Restaurant](t, resp)
		assert.Equal(t, "Small plates", updated.Description)
		assert.Equal(t, "Cafe Ole", updated.Name)
	})

	t.Run("invalid hours rejected", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, fmt.Sprintf("/api/restaurants/%d", r.ID), token, fiber.Map{
			"hours_of_operation": fiber.Map{"funday": fiber.Map{"open": "09:00", "close": "17:00"}},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("strangers are forbidden", func(t *testing.T) {
		other, _ := env.register(t, "rival")
		resp := env.do(t, http.MethodPut, fmt.Sprintf("/api/restaurants/%d", r.ID), other, fiber.Map{"name": "Mine now"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/restaurants/%d", r.ID), other, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/restaurants", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp := env.do(t, http.MethodDelete, fmt.Sprintf("/api/restaurants/%d", r.ID), token, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/restaurants/%d", r.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSlugConflictIsUniquified(t *testing.T) {
	env := newTestEnv(t)
	first, _ := env.register(t, "first")
	second, _ := env.register(t, "second")

	a := env.createRestaurant(t, first, "Green Leaf")
	b := env.createRestaurant(t, second, "Green Leaf")
	assert.Equal(t, "green-leaf", a.Slug)
	assert.Equal(t, "green-leaf-2", b.Slug)
}

func TestMenuManagementAndPublicMenu(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "menuowner")
	r := env.createRestaurant(t, token, "Noodle Bar")

	mains := env.createCategory(t, token, r.ID, "Mains")
	drinks := env.createCategory(t, token, r.ID, "Drinks")
	assert.Equal(t, 0, mains.DisplayOrder)
	assert.Equal(t, 1, drinks.DisplayOrder)

	ramen := env.createItem(t, token, mains.ID, fiber.Map{
		"name":         "Tonkotsu Ramen",
		"price":        "14.50",
		"allergens":    []string{"gluten", "egg"},
		"dietary_info": fiber.Map{"dairy_free": true},
		"calories":     850,
	})
	tea := env.createItem(t, token, drinks.ID, fiber.Map{"name": "Green Tea", "price": "3"})
	assert.True(t, ramen.IsAvailable)
	assert.Equal(t, []string{"gluten", "egg"}, []string(ramen.Allergens))

	t.Run("bad price rejected", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/categories/%d/items", mains.ID), token, fiber.Map{
			"name": "Free lunch", "price": "12.345",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("reorder", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, fmt.Sprintf("/api/restaurants/%d/categories/reorder", r.ID), token, fiber.Map{
			"ids": []uint{drinks.ID, mains.ID},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		cats := decode[[]models.MenuCategory](t, resp)
		require.Len(t, cats, 2)
		assert.Equal(t, drinks.ID, cats[0].ID)

		resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/restaurants/%d/categories/reorder", r.ID), token, fiber.Map{
			"ids": []uint{drinks.ID},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("availability hides item from public menu", func(t *testing.T) {
		resp := env.do(t, http.MethodPatch, fmt.Sprintf("/api/items/%d/availability", tea.ID), token, fiber.Map{"is_available": false})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, decode[models.MenuItem](t, resp).IsAvailable)

		resp = env.do(t, http.MethodGet, "/api/public/restaurants/noodle-bar", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		menu := decode[models.PublicMenu](t, resp)
		assert.Equal(t, r.ID, menu.Restaurant.ID)
		require.Len(t, menu.Categories, 2)
		assert.Equal(t, "Drinks", menu.Categories[0].Name)
		assert.Empty(t, menu.Categories[0].Items)
		require.Len(t, menu.Categories[1].Items, 1)
		assert.Equal(t, "Tonkotsu Ramen", menu.Categories[1].Items[0].Name)
	})

	t.Run("public menu by id", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/restaurants/%d/menu", r.ID), "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp = env.do(t, http.MethodGet, "/api/public/restaurants/no-such-place", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("owner edits", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, fmt.Sprintf("/api/items/%d", ramen.ID), token, fiber.Map{"price": "15.00"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "15.00", decode[models.MenuItem](t, resp).Price)

		resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d/items", mains.ID), token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]models.MenuItem](t, resp), 1)
	})

	t.Run("strangers cannot touch items", func(t *testing.T) {
		other, _ := env.register(t, "intruder")
		resp := env.do(t, http.MethodDelete, fmt.Sprintf("/api/items/%d", ramen.ID), other, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/categories/%d", mains.ID), other, fiber.Map{"name": "Mine"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("delete category removes items", func(t *testing.T) {
		resp := env.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", drinks.ID), token, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/items/%d", tea.ID), token, fiber.Map{"name": "Ghost"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestViewsAndAnalytics(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "counter")
	r := env.createRestaurant(t, token, "Counting House")
	path := fmt.Sprintf("/api/restaurants/%d/views", r.ID)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, path, "", fiber.Map{"source": "qr"}).StatusCode)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, path, "", fiber.Map{"source": "qr"}).StatusCode)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, path, "", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, path, "", fiber.Map{"source": "billboard"}).StatusCode)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/restaurants/9999/views", "", nil).StatusCode)

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/restaurants/%d/analytics?days=7", r.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[models.ViewAnalytics](t, resp)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.BySource[models.ViewSourceQR])
	assert.Equal(t, int64(1), stats.BySource[models.ViewSourceLink])
	assert.Len(t, stats.Daily, 7)

	other, _ := env.register(t, "snoop")
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/restaurants/%d/analytics", r.ID), other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

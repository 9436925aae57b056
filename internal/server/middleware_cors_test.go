package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vividplate/internal/config"
	"vividplate/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dashboardOrigin = "https://dashboard.vividplate.test"

func middlewareOnlyApp(origins string) *fiber.App {
	srv := &Server{config: &config.Config{AllowedOrigins: origins}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/api/restaurants", ok)
	app.Get("/health/live", ok)
	app.Post("/api/dietary-preferences", ok)
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestGlobalLimiter(t *testing.T) {
	app := middlewareOnlyApp(dashboardOrigin)
	origin := map[string]string{"Origin": dashboardOrigin}

	for i := 0; i < globalRateLimit; i++ {
		resp := send(t, app, http.MethodPost, "/api/restaurants", origin)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
	}

	t.Run("over budget keeps CORS headers and error shape", func(t *testing.T) {
		resp := send(t, app, http.MethodPost, "/api/restaurants", origin)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, dashboardOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

		var body models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, models.CodeRateLimited, body.Code)
	})

	t.Run("preflight is not counted", func(t *testing.T) {
		resp := send(t, app, http.MethodOptions, "/api/restaurants", map[string]string{
			"Origin":                         dashboardOrigin,
			"Access-Control-Request-Method":  http.MethodPost,
			"Access-Control-Request-Headers": "authorization,content-type",
		})
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, dashboardOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("health probes are not counted", func(t *testing.T) {
		resp := send(t, app, http.MethodGet, "/health/live", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestCORS_DefaultOriginsAllowSessionHeader(t *testing.T) {
	app := middlewareOnlyApp("")

	resp := send(t, app, http.MethodOptions, "/api/dietary-preferences", map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "x-session-id",
	})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-Session-Id")
}

func TestCORS_UnknownOriginGetsNoAllowHeader(t *testing.T) {
	app := middlewareOnlyApp(dashboardOrigin)

	resp := send(t, app, http.MethodOptions, "/api/restaurants", map[string]string{
		"Origin":                        "https://evil.example",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

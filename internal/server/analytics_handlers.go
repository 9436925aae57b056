package server

import (
	"vividplate/internal/models"
	"vividplate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RecordView handles POST /api/restaurants/:id/views
// @Summary Record a menu view
// @Description Public. source is "qr" or "link" (default).
// @Tags analytics
// @Accept json
// @Param id path int true "Restaurant ID"
// @Param request body object{source=string} false "View source"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /restaurants/{id}/views [post]
func (s *Server) RecordView(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Source string `json:"source"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}
	if req.Source == "" {
		req.Source = c.Query("source")
	}

	if err := s.analyticsService.RecordView(c.UserContext(), id, models.ViewSource(req.Source)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetAnalytics handles GET /api/restaurants/:id/analytics?days=30
// @Summary Menu view analytics
// @Tags analytics
// @Security BearerAuth
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param days query int false "Window in days (default 30, max 365)"
// @Success 200 {object} models.ViewAnalytics
// @Router /restaurants/{id}/analytics [get]
func (s *Server) GetAnalytics(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	days := c.QueryInt("days", service.DefaultAnalyticsDays)
	summary, err := s.analyticsService.Summary(c.UserContext(), act, id, days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

package server

import (
	"vividplate/internal/models"
	"vividplate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FeedbackRequest is the public feedback form.
type FeedbackRequest struct {
	MenuItemID    *uint  `json:"menu_item_id"`
	Rating        int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment       string `json:"comment"`
	CustomerName  string `json:"customer_name" validate:"max=100"`
	CustomerEmail string `json:"customer_email"`
}

// SubmitFeedback handles POST /api/restaurants/:id/feedback
// @Summary Submit diner feedback
// @Description Public. Stored as pending until the owner approves it.
// @Tags feedback
// @Accept json
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param request body FeedbackRequest true "Feedback"
// @Success 201 {object} models.Feedback
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /restaurants/{id}/feedback [post]
func (s *Server) SubmitFeedback(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req FeedbackRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	fb, err := s.feedbackService.Submit(c.UserContext(), service.SubmitFeedbackInput{
		RestaurantID:  id,
		MenuItemID:    req.MenuItemID,
		Rating:        req.Rating,
		Comment:       req.Comment,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fb)
}

// GetPublicFeedback handles GET /api/restaurants/:id/feedback/public
// @Summary Approved feedback with average rating
// @Tags feedback
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {object} models.PublicFeedback
// @Router /restaurants/{id}/feedback/public [get]
func (s *Server) GetPublicFeedback(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	out, err := s.feedbackService.Public(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListRestaurantFeedback handles GET /api/restaurants/:id/feedback?status=
// @Summary Feedback for a managed restaurant
// @Tags feedback
// @Security BearerAuth
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param status query string false "pending, approved or rejected"
// @Success 200 {array} models.Feedback
// @Router /restaurants/{id}/feedback [get]
func (s *Server) ListRestaurantFeedback(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	items, err := s.feedbackService.ListForOwner(c.UserContext(), act, id, models.FeedbackStatus(c.Query("status")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// SetFeedbackStatus handles PATCH /api/feedback/:id/status
// @Summary Moderate feedback
// @Tags feedback
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Feedback ID"
// @Param request body object{status=string} true "New status"
// @Success 200 {object} models.Feedback
// @Router /feedback/{id}/status [patch]
func (s *Server) SetFeedbackStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=pending approved rejected"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	fb, err := s.feedbackService.SetStatus(c.UserContext(), act, id, models.FeedbackStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fb)
}

// ListFeedbackQueue handles GET /api/admin/feedback?status=pending
// @Summary Feedback moderation queue
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "Status filter (default pending)"
// @Success 200 {object} object{feedback=[]models.Feedback,total=int}
// @Router /admin/feedback [get]
func (s *Server) ListFeedbackQueue(c *fiber.Ctx) error {
	status := models.FeedbackStatus(c.Query("status", string(models.FeedbackPending)))
	page := parsePagination(c, 20)

	items, total, err := s.feedbackService.ListByStatus(c.UserContext(), status, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"feedback": items,
		"total":    total,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

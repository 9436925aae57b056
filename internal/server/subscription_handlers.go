package server

import (
	"vividplate/internal/middleware"
	"vividplate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetSubscription handles GET /api/subscription
// @Summary Current tier, limits and usage
// @Tags subscription
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.SubscriptionSummary
// @Router /subscription [get]
func (s *Server) GetSubscription(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	summary, err := s.subscriptionService.Summary(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetPayments handles GET /api/subscription/payments
// @Summary Payment history
// @Tags subscription
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Payment
// @Router /subscription/payments [get]
func (s *Server) GetPayments(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	payments, err := s.subscriptionService.Payments(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payments)
}

// CancelSubscription handles POST /api/subscription/cancel
// @Summary Cancel at the end of the current period
// @Tags subscription
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Subscription
// @Failure 404 {object} models.ErrorResponse
// @Router /subscription/cancel [post]
func (s *Server) CancelSubscription(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	sub, err := s.subscriptionService.Cancel(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// SetTierRequest is the body of PUT /api/admin/users/:id/subscription.
type SetTierRequest struct {
	Tier        string `json:"tier" validate:"required,oneof=free premium"`
	Months      int    `json:"months" validate:"omitempty,gte=1,lte=36"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
}

// SetUserSubscription handles PUT /api/admin/users/:id/subscription
// @Summary Grant or revoke premium
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body SetTierRequest true "Tier change"
// @Success 200 {object} models.SubscriptionSummary
// @Router /admin/users/{id}/subscription [put]
func (s *Server) SetUserSubscription(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req SetTierRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	summary, err := s.subscriptionService.AdminSetTier(c.UserContext(), service.SetTierInput{
		UserID:      userID,
		Tier:        req.Tier,
		Months:      req.Months,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		return respondError(c, err)
	}

	adminID, _ := middleware.UserID(c)
	middleware.Logger.InfoContext(c.UserContext(), "subscription changed by admin",
		"admin_id", adminID, "user_id", userID, "tier", req.Tier, "months", req.Months)
	return c.JSON(summary)
}

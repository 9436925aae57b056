package server

import (
	"vividplate/internal/middleware"
	"vividplate/internal/models"
	"vividplate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RestaurantRequest is the body of restaurant create and update. Omitted
// fields keep their stored value on update.
type RestaurantRequest struct {
	Name             *string             `json:"name" validate:"omitempty,max=120"`
	Slug             *string             `json:"slug"`
	Description      *string             `json:"description" validate:"omitempty,max=2000"`
	Cuisine          *string             `json:"cuisine" validate:"omitempty,max=80"`
	Address          *string             `json:"address" validate:"omitempty,max=255"`
	Phone            *string             `json:"phone" validate:"omitempty,max=32"`
	Website          *string             `json:"website" validate:"omitempty,max=255"`
	ThemeSettings    map[string]any      `json:"theme_settings"`
	HoursOfOperation models.OpeningHours `json:"hours_of_operation"`
	Tags             []string            `json:"tags" validate:"omitempty,max=20,dive,max=40"`
	IsPublished      *bool               `json:"is_published"`
}

func (r RestaurantRequest) input() service.RestaurantInput {
	return service.RestaurantInput{
		Name:             r.Name,
		Slug:             r.Slug,
		Description:      r.Description,
		Cuisine:          r.Cuisine,
		Address:          r.Address,
		Phone:            r.Phone,
		Website:          r.Website,
		ThemeSettings:    r.ThemeSettings,
		HoursOfOperation: r.HoursOfOperation,
		Tags:             r.Tags,
		IsPublished:      r.IsPublished,
	}
}

// ListMyRestaurants handles GET /api/restaurants
// @Summary List my restaurants
// @Tags restaurants
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Restaurant
// @Router /restaurants [get]
func (s *Server) ListMyRestaurants(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	restaurants, err := s.restaurantService.ListMine(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(restaurants)
}

// CreateRestaurant handles POST /api/restaurants
// @Summary Create a restaurant
// @Description Fails with 403 LIMIT_REACHED once the owner's tier quota is used up
// @Tags restaurants
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body RestaurantRequest true "Restaurant"
// @Success 201 {object} models.Restaurant
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /restaurants [post]
func (s *Server) CreateRestaurant(c *fiber.Ctx) error {
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req RestaurantRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	r, err := s.restaurantService.Create(c.UserContext(), act, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// GetRestaurant handles GET /api/restaurants/:id
// @Summary Get a managed restaurant
// @Tags restaurants
// @Security BearerAuth
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {object} models.Restaurant
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /restaurants/{id} [get]
func (s *Server) GetRestaurant(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	r, err := s.restaurantService.Get(c.UserContext(), act, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(r)
}

// UpdateRestaurant handles PUT /api/restaurants/:id
// @Summary Update a restaurant
// @Tags restaurants
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param request body RestaurantRequest true "Fields to change"
// @Success 200 {object} models.Restaurant
// @Router /restaurants/{id} [put]
func (s *Server) UpdateRestaurant(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req RestaurantRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	r, err := s.restaurantService.Update(c.UserContext(), act, id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(r)
}

// DeleteRestaurant handles DELETE /api/restaurants/:id
// @Summary Delete a restaurant with its menu, views and feedback
// @Tags restaurants
// @Security BearerAuth
// @Param id path int true "Restaurant ID"
// @Success 204
// @Router /restaurants/{id} [delete]
func (s *Server) DeleteRestaurant(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.restaurantService.Delete(c.UserContext(), act, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListAllRestaurants handles GET /api/admin/restaurants
// @Summary List every restaurant
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{restaurants=[]models.Restaurant,total=int}
// @Router /admin/restaurants [get]
func (s *Server) ListAllRestaurants(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	restaurants, total, err := s.restaurantService.ListAll(c.UserContext(), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"restaurants": restaurants,
		"total":       total,
		"limit":       page.Limit,
		"offset":      page.Offset,
	})
}

// GetPublicMenuBySlug handles GET /api/public/restaurants/:slug
// @Summary Public menu by slug
// @Description Restaurant with its categories and available items, as shown to diners
// @Tags public
// @Produce json
// @Param slug path string true "Restaurant slug"
// @Success 200 {object} models.PublicMenu
// @Failure 404 {object} models.ErrorResponse
// @Router /public/restaurants/{slug} [get]
func (s *Server) GetPublicMenuBySlug(c *fiber.Ctx) error {
	menu, err := s.restaurantService.PublicMenuBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(menu)
}

// GetPublicMenu handles GET /api/restaurants/:id/menu
// @Summary Public menu by id
// @Tags public
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {object} models.PublicMenu
// @Failure 404 {object} models.ErrorResponse
// @Router /restaurants/{id}/menu [get]
func (s *Server) GetPublicMenu(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	menu, err := s.restaurantService.PublicMenuByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(menu)
}

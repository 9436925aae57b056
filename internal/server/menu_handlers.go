package server

import (
	"vividplate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CategoryRequest is the body of category create and update.
type CategoryRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=100"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,gte=0"`
}

func (r CategoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:         r.Name,
		Description:  r.Description,
		DisplayOrder: r.DisplayOrder,
	}
}

// ItemRequest is the body of item create and update. Prices are decimal
// strings such as "12.50".
type ItemRequest struct {
	CategoryID   *uint            `json:"category_id"`
	Name         *string          `json:"name" validate:"omitempty,max=120"`
	Description  *string          `json:"description" validate:"omitempty,max=2000"`
	Price        *string          `json:"price" validate:"omitempty,price"`
	ImageURL     *string          `json:"image_url" validate:"omitempty,url"`
	Tags         *[]string        `json:"tags"`
	Allergens    *[]string        `json:"allergens"`
	DietaryInfo  *map[string]bool `json:"dietary_info"`
	Calories     *int             `json:"calories" validate:"omitempty,gte=0"`
	IsAvailable  *bool            `json:"is_available"`
	DisplayOrder *int             `json:"display_order" validate:"omitempty,gte=0"`
}

func (r ItemRequest) input() service.ItemInput {
	return service.ItemInput{
		CategoryID:   r.CategoryID,
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		ImageURL:     r.ImageURL,
		Tags:         r.Tags,
		Allergens:    r.Allergens,
		DietaryInfo:  r.DietaryInfo,
		Calories:     r.Calories,
		IsAvailable:  r.IsAvailable,
		DisplayOrder: r.DisplayOrder,
	}
}

// ListCategories handles GET /api/restaurants/:id/categories
// @Summary List menu categories
// @Tags menu
// @Security BearerAuth
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {array} models.MenuCategory
// @Router /restaurants/{id}/categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	categories, err := s.menuService.ListCategories(c.UserContext(), act, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

// CreateCategory handles POST /api/restaurants/:id/categories
// @Summary Create a menu category
// @Tags menu
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} models.MenuCategory
// @Router /restaurants/{id}/categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.menuService.CreateCategory(c.UserContext(), act, id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PUT /api/categories/:id
// @Summary Update a menu category
// @Tags menu
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param request body CategoryRequest true "Fields to change"
// @Success 200 {object} models.MenuCategory
// @Router /categories/{id} [put]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.menuService.UpdateCategory(c.UserContext(), act, id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/categories/:id
// @Summary Delete a category and its items
// @Tags menu
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Router /categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.menuService.DeleteCategory(c.UserContext(), act, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReorderCategories handles PUT /api/restaurants/:id/categories/reorder
// @Summary Reorder categories
// @Description ids must list every category of the restaurant exactly once
// @Tags menu
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param request body object{ids=[]int} true "Category ids in display order"
// @Success 200 {array} models.MenuCategory
// @Router /restaurants/{id}/categories/reorder [put]
func (s *Server) ReorderCategories(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		IDs []uint `json:"ids" validate:"required,min=1"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	categories, err := s.menuService.ReorderCategories(c.UserContext(), act, id, req.IDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

// ListItems handles GET /api/categories/:id/items
// @Summary List items in a category
// @Tags menu
// @Security BearerAuth
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {array} models.MenuItem
// @Router /categories/{id}/items [get]
func (s *Server) ListItems(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	items, err := s.menuService.ListItems(c.UserContext(), act, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// CreateItem handles POST /api/categories/:id/items
// @Summary Create a menu item
// @Tags menu
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param request body ItemRequest true "Item"
// @Success 201 {object} models.MenuItem
// @Router /categories/{id}/items [post]
func (s *Server) CreateItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req ItemRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	item, err := s.menuService.CreateItem(c.UserContext(), act, id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateItem handles PUT /api/items/:id
// @Summary Update a menu item
// @Tags menu
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body ItemRequest true "Fields to change"
// @Success 200 {object} models.MenuItem
// @Router /items/{id} [put]
func (s *Server) UpdateItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req ItemRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	item, err := s.menuService.UpdateItem(c.UserContext(), act, id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// SetItemAvailability handles PATCH /api/items/:id/availability
// @Summary Toggle item availability
// @Tags menu
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body object{is_available=bool} true "Availability"
// @Success 200 {object} models.MenuItem
// @Router /items/{id}/availability [patch]
func (s *Server) SetItemAvailability(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		IsAvailable *bool `json:"is_available" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	item, err := s.menuService.SetAvailability(c.UserContext(), act, id, *req.IsAvailable)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// DeleteItem handles DELETE /api/items/:id
// @Summary Delete a menu item
// @Tags menu
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Success 204
// @Router /items/{id} [delete]
func (s *Server) DeleteItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.menuService.DeleteItem(c.UserContext(), act, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}


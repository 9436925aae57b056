package server

import (
	"errors"

	"vividplate/internal/models"
	"vividplate/internal/service"
	"vividplate/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// upload reads the multipart image and stores it as kind.
func (s *Server) upload(c *fiber.Ctx, kind string) (*service.StoredImage, error) {
	data, contentType, err := s.readUpload(c)
	if err != nil {
		return nil, err
	}
	return s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		Kind:        kind,
		ContentType: contentType,
		Content:     data,
	})
}

// UploadLogo handles POST /api/restaurants/:id/logo
// @Summary Upload a restaurant logo
// @Tags uploads
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param image formData file true "Image file"
// @Success 200 {object} object{restaurant=models.Restaurant,image=service.StoredImage}
// @Failure 400 {object} models.ErrorResponse
// @Router /restaurants/{id}/logo [post]
func (s *Server) UploadLogo(c *fiber.Ctx) error {
	return s.uploadRestaurantImage(c, service.ImageKindLogo)
}

// UploadBanner handles POST /api/restaurants/:id/banner. Each upload appends
// to the slideshow, bounded by the owner's tier.
// @Summary Upload a restaurant banner
// @Tags uploads
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param image formData file true "Image file"
// @Success 200 {object} object{restaurant=models.Restaurant,image=service.StoredImage}
// @Failure 403 {object} models.ErrorResponse
// @Router /restaurants/{id}/banner [post]
func (s *Server) UploadBanner(c *fiber.Ctx) error {
	return s.uploadRestaurantImage(c, service.ImageKindBanner)
}

func (s *Server) uploadRestaurantImage(c *fiber.Ctx, kind string) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()

	// Reject strangers before spending time on image processing.
	if _, err := s.restaurantService.Get(ctx, act, id); err != nil {
		return respondError(c, err)
	}

	img, err := s.upload(c, kind)
	if err != nil {
		return respondError(c, err)
	}

	var r *models.Restaurant
	if kind == service.ImageKindLogo {
		r, err = s.restaurantService.SetLogo(ctx, act, id, img.URL)
	} else {
		r, err = s.restaurantService.AddBanner(ctx, act, id, img.URL)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"restaurant": r, "image": img})
}

// UploadItemImage handles POST /api/items/:id/image
// @Summary Upload a menu item photo
// @Tags uploads
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Item ID"
// @Param image formData file true "Image file"
// @Success 200 {object} object{item=models.MenuItem,image=service.StoredImage}
// @Router /items/{id}/image [post]
func (s *Server) UploadItemImage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	act, err := s.actor(c)
	if err != nil {
		return respondError(c, err)
	}

	img, err := s.upload(c, service.ImageKindItem)
	if err != nil {
		return respondError(c, err)
	}

	item, err := s.menuService.SetItemImage(c.UserContext(), act, id, img.URL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"item": item, "image": img})
}

// ServeMedia handles GET /media/* by streaming the stored object.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	key := c.Params("*")
	body, contentType, err := s.store.Get(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Media", key))
		}
		return respondError(c, err)
	}

	if contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	// Keys are content hashes, so objects never change.
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendStream(body)
}

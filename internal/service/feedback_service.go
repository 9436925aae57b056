package service

import (
	"context"
	"strings"

	"vividplate/internal/featureflags"
	"vividplate/internal/models"
	"vividplate/internal/observability"
	"vividplate/internal/repository"
	"vividplate/internal/validation"
)

const maxCommentLen = 2000

type FeedbackService struct {
	feedback    repository.FeedbackRepository
	restaurants repository.RestaurantRepository
	menus       repository.MenuRepository
	flags       *featureflags.Manager
}

func NewFeedbackService(
	feedback repository.FeedbackRepository,
	restaurants repository.RestaurantRepository,
	menus repository.MenuRepository,
	flags *featureflags.Manager,
) *FeedbackService {
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &FeedbackService{feedback: feedback, restaurants: restaurants, menus: menus, flags: flags}
}

type SubmitFeedbackInput struct {
	RestaurantID  uint
	MenuItemID    *uint
	Rating        int
	Comment       string
	CustomerName  string
	CustomerEmail string
}

// Submit stores public feedback as pending.
func (s *FeedbackService) Submit(ctx context.Context, in SubmitFeedbackInput) (*models.Feedback, error) {
	if !s.flags.Enabled(featureflags.Feedback, 0) {
		return nil, models.NewFeatureDisabledError(featureflags.Feedback)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, models.NewValidationError("Rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(in.Comment)
	if len([]rune(comment)) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}
	email := strings.TrimSpace(in.CustomerEmail)
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	name := strings.TrimSpace(in.CustomerName)
	if len(name) > 100 {
		return nil, models.NewValidationError("Name too long (max 100 characters)")
	}

	if _, err := s.restaurants.GetByID(ctx, in.RestaurantID); err != nil {
		return nil, err
	}
	if in.MenuItemID != nil {
		rid, err := s.menus.ItemRestaurantID(ctx, *in.MenuItemID)
		if err != nil {
			if models.IsNotFound(err) {
				return nil, models.NewValidationError("Menu item does not belong to this restaurant")
			}
			return nil, err
		}
		if rid != in.RestaurantID {
			return nil, models.NewValidationError("Menu item does not belong to this restaurant")
		}
	}

	fb := &models.Feedback{
		RestaurantID:  in.RestaurantID,
		MenuItemID:    in.MenuItemID,
		Rating:        in.Rating,
		Comment:       comment,
		CustomerName:  name,
		CustomerEmail: email,
		Status:        models.FeedbackPending,
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}
	observability.FeedbackSubmitted.Inc()
	return fb, nil
}

// ListForOwner lists a managed restaurant's feedback, optionally by status.
func (s *FeedbackService) ListForOwner(ctx context.Context, actor Actor, restaurantID uint, status models.FeedbackStatus) ([]models.Feedback, error) {
	r, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(actor, r); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, models.NewValidationError("Unknown status")
	}
	return s.feedback.ListByRestaurant(ctx, restaurantID, status)
}

// Public returns approved feedback with its average rating.
func (s *FeedbackService) Public(ctx context.Context, restaurantID uint) (*models.PublicFeedback, error) {
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		return nil, err
	}
	items, err := s.feedback.ListByRestaurant(ctx, restaurantID, models.FeedbackApproved)
	if err != nil {
		return nil, err
	}
	avg, count, err := s.feedback.ApprovedStats(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].CustomerEmail = ""
	}
	return &models.PublicFeedback{Items: items, AverageRating: avg, Count: int(count)}, nil
}

// ListByStatus is the admin moderation queue.
func (s *FeedbackService) ListByStatus(ctx context.Context, status models.FeedbackStatus, page repository.Page) ([]models.Feedback, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, models.NewValidationError("Unknown status")
	}
	return s.feedback.ListByStatus(ctx, status, page)
}

// SetStatus moderates an entry; the restaurant owner or an admin only.
func (s *FeedbackService) SetStatus(ctx context.Context, actor Actor, id uint, status models.FeedbackStatus) (*models.Feedback, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("Status must be pending, approved or rejected")
	}
	fb, err := s.feedback.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := s.restaurants.GetByID(ctx, fb.RestaurantID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(actor, r); err != nil {
		return nil, err
	}
	if err := s.feedback.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	fb.Status = status
	return fb, nil
}

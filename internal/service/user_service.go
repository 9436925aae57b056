package service

import (
	"context"
	"strings"

	"vividplate/internal/models"
	"vividplate/internal/repository"
	"vividplate/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

type UpdateProfileInput struct {
	UserID   uint
	Username *string
	FullName *string
	Phone    *string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, page repository.Page) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, page)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile applies only the fields that are set.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetForUpdate(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxFullNameLen = 120
	const maxPhoneLen = 32

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if name != user.Username {
			existing, err := s.userRepo.GetByUsername(ctx, name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, models.NewConflictError("Username already taken")
			}
		}
		user.Username = name
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if len(name) > maxFullNameLen {
			return nil, models.NewValidationError("Full name too long (max 120 characters)")
		}
		user.FullName = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if len(phone) > maxPhoneLen {
			return nil, models.NewValidationError("Phone number too long")
		}
		user.Phone = phone
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	if err := s.userRepo.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}

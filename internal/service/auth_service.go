package service

import (
	"context"
	"strings"

	"vividplate/internal/models"
	"vividplate/internal/repository"
	"vividplate/internal/validation"
)

// AuthService registers users and verifies credentials. Token issuance
// stays in the HTTP layer.
type AuthService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.users.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("User already exists")
	}
	if existing, err := s.users.GetByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Username already taken")
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:         in.Username,
		Email:            in.Email,
		Password:         hashed,
		FullName:         strings.TrimSpace(in.FullName),
		SubscriptionTier: models.TierFree,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login accepts an email address or a username as identifier. With
// adminOnly set, valid non-admin credentials are FORBIDDEN.
func (s *AuthService) Login(ctx context.Context, identifier, password string, adminOnly bool) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.NewValidationError("Email or username and password are required")
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, identifier)
	} else {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if user == nil || !checkPassword(user.Password, password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if adminOnly && !user.IsAdmin {
		return nil, models.NewForbiddenError("Admin access required")
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.users.GetForUpdate(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(user.Password, current) {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	hashed, err := hashPassword(next)
	if err != nil {
		return err
	}
	user.Password = hashed
	return s.users.Update(ctx, user)
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"vividplate/internal/mailer"
	"vividplate/internal/middleware"
	"vividplate/internal/models"
	"vividplate/internal/repository"
	"vividplate/internal/validation"

	"github.com/google/uuid"
)

const DefaultResetTokenTTL = 60 * time.Minute

// PasswordResetService issues single-use reset tokens by e-mail. Only the
// sha-256 of a token is stored.
type PasswordResetService struct {
	users   repository.UserRepository
	mail    mailer.Mailer
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewPasswordResetService(users repository.UserRepository, mail mailer.Mailer, ttl time.Duration, publicBaseURL string) *PasswordResetService {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &PasswordResetService{
		users:   users,
		mail:    mail,
		ttl:     ttl,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		now:     time.Now,
	}
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Request starts a reset for email. Unknown addresses succeed silently so
// the endpoint does not reveal which accounts exist.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return models.NewValidationError(err.Error())
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	expiry := s.now().Add(s.ttl).UTC()
	user.ResetToken = hashResetToken(token)
	user.ResetTokenExpiry = &expiry
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	link := s.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	msg := mailer.PasswordReset(user.FullName, user.Email, link, int(s.ttl/time.Minute))
	if err := s.mail.Send(ctx, msg); err != nil {
		// The token stays valid; the user can ask again.
		middleware.Logger.ErrorContext(ctx, "password reset mail failed",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
	}
	return nil
}

// Reset sets a new password when token is known and not expired.
func (s *PasswordResetService) Reset(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.NewValidationError("Reset token is required")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.users.GetByResetToken(ctx, hashResetToken(token))
	if err != nil {
		return err
	}
	if user == nil || user.ResetTokenExpiry == nil || s.now().After(*user.ResetTokenExpiry) {
		return models.NewValidationError("Reset token is invalid or has expired")
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.ResetToken = ""
	user.ResetTokenExpiry = nil
	return s.users.Update(ctx, user)
}

// PurgeExpired clears stale tokens. Run by the scheduler.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.users.PurgeExpiredResetTokens(ctx, s.now().UTC())
}

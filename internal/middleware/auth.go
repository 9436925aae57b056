// Package middleware provides HTTP middleware: authentication helpers,
// structured logging, rate limiting, metrics and tracing.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"vividplate/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	// TokenIssuer is the iss claim of every access token.
	TokenIssuer = "vividplate-api"
	// TokenAudience is the aud claim of every access token.
	TokenAudience = "vividplate-client"
)

var (
	ErrMissingToken  = errors.New("authorization required")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrInvalidIssuer = errors.New("invalid token issuer")
	ErrRevokedToken  = errors.New("token has been revoked")
)

// TokenClaims is the validated content of an access token.
type TokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// ParseToken validates signature, expiry, issuer and audience and returns the claims.
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if issuer, _ := claims.GetIssuer(); issuer != TokenIssuer {
		return nil, ErrInvalidIssuer
	}
	audience, _ := claims.GetAudience()
	if len(audience) != 1 || audience[0] != TokenAudience {
		return nil, ErrInvalidIssuer
	}

	sub, _ := claims.GetSubject()
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil, ErrInvalidToken
	}

	out := &TokenClaims{UserID: uint(userID)}
	out.JTI, _ = claims["jti"].(string)
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// RevocationKey is the Redis key marking a token id as logged out.
func RevocationKey(jti string) string {
	return "blacklist:" + jti
}

// IsRevoked reports whether jti was blacklisted. Redis failures fail open.
func IsRevoked(ctx context.Context, rdb *redis.Client, jti string) bool {
	if rdb == nil || jti == "" {
		return false
	}
	n, err := rdb.Exists(ctx, RevocationKey(jti)).Result()
	if err != nil {
		observability.RecordRedisError("revocation_check")
		return false
	}
	return n > 0
}

// Revoke blacklists jti until the token would have expired anyway.
func Revoke(ctx context.Context, rdb *redis.Client, jti string, expiresAt time.Time) error {
	if rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := rdb.Set(ctx, RevocationKey(jti), "1", ttl).Err(); err != nil {
		observability.RecordRedisError("revoke")
		return err
	}
	return nil
}

// Authenticate resolves the caller of c, returning an error when no valid
// unrevoked bearer token is present.
func Authenticate(c *fiber.Ctx, secret string, rdb *redis.Client) (*TokenClaims, error) {
	claims, err := ParseToken(secret, BearerToken(c))
	if err != nil {
		return nil, err
	}
	if IsRevoked(c.UserContext(), rdb, claims.JTI) {
		return nil, ErrRevokedToken
	}
	SetUser(c, claims.UserID)
	return claims, nil
}

// SetUser stores the authenticated user id in locals and the request context.
func SetUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

// OptionalAuth attaches the caller's user id when a valid token is sent and
// otherwise lets the request through anonymously.
func OptionalAuth(secret string, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if BearerToken(c) != "" {
			_, _ = Authenticate(c, secret, rdb)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by Authenticate.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims(userID uint, exp time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": time.Now().Add(exp).Unix(),
		"jti": "jti-" + strconv.FormatUint(uint64(userID), 10),
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		token   func() string
		wantErr error
		wantID  uint
	}{
		{
			name:   "valid",
			token:  func() string { return signToken(t, validClaims(42, time.Hour), testSecret) },
			wantID: 42,
		},
		{
			name:    "missing",
			token:   func() string { return "" },
			wantErr: ErrMissingToken,
		},
		{
			name:    "expired",
			token:   func() string { return signToken(t, validClaims(42, -time.Hour), testSecret) },
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong secret",
			token:   func() string { return signToken(t, validClaims(42, time.Hour), "other-secret") },
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := validClaims(42, time.Hour)
				c["iss"] = "someone-else"
				return signToken(t, c, testSecret)
			},
			wantErr: ErrInvalidIssuer,
		},
		{
			name: "wrong audience",
			token: func() string {
				c := validClaims(42, time.Hour)
				c["aud"] = "other-client"
				return signToken(t, c, testSecret)
			},
			wantErr: ErrInvalidIssuer,
		},
		{
			name: "non numeric subject",
			token: func() string {
				c := validClaims(42, time.Hour)
				c["sub"] = "abc"
				return signToken(t, c, testSecret)
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(testSecret, tt.token())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, claims.UserID)
			assert.Equal(t, "jti-42", claims.JTI)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
		})
	}
}

func TestRevoke(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	assert.False(t, IsRevoked(ctx, rdb, "abc"))
	require.NoError(t, Revoke(ctx, rdb, "abc", time.Now().Add(time.Hour)))
	assert.True(t, IsRevoked(ctx, rdb, "abc"))
	assert.True(t, mr.Exists(RevocationKey("abc")))

	require.NoError(t, Revoke(ctx, rdb, "old", time.Now().Add(-time.Minute)))
	assert.False(t, IsRevoked(ctx, rdb, "old"))

	assert.False(t, IsRevoked(ctx, nil, "abc"))
	assert.NoError(t, Revoke(ctx, nil, "abc", time.Now().Add(time.Hour)))
}

func TestOptionalAuth(t *testing.T) {
	_, rdb := newTestRedis(t)
	app := fiber.New()
	app.Get("/who", OptionalAuth(testSecret, rdb), func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		return c.JSON(fiber.Map{"id": id, "authenticated": ok})
	})

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, do(""))
	assert.Equal(t, http.StatusOK, do("Bearer garbage"))
	assert.Equal(t, http.StatusOK, do("Bearer "+signToken(t, validClaims(7, time.Hour), testSecret)))
}

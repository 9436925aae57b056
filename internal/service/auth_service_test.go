package service

import (
	"context"
	"testing"

	"vividplate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	r := newRepos(t)
	svc := NewAuthService(r.users)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "  marco ",
		Email:    "marco@example.com",
		Password: testPassword,
		FullName: "Marco Rossi",
	})
	require.NoError(t, err)
	assert.Equal(t, "marco", user.Username)
	assert.Equal(t, models.TierFree, user.SubscriptionTier)
	assert.NotEqual(t, testPassword, user.Password)

	_, err = svc.Register(ctx, RegisterInput{Username: "other", Email: "MARCO@example.com", Password: testPassword})
	assertCode(t, err, models.CodeConflict)

	_, err = svc.Register(ctx, RegisterInput{Username: "marco", Email: "new@example.com", Password: testPassword})
	assertCode(t, err, models.CodeConflict)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := NewAuthService(newRepos(t).users)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"short username", RegisterInput{Username: "ab", Email: "a@example.com", Password: testPassword}},
		{"bad email", RegisterInput{Username: "abcd", Email: "nope", Password: testPassword}},
		{"weak password", RegisterInput{Username: "abcd", Email: "a@example.com", Password: "password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	r := newRepos(t)
	svc := NewAuthService(r.users)
	ctx := context.Background()
	owner := seedUser(t, r, "giulia", models.TierFree)

	user, err := svc.Login(ctx, "giulia@example.com", testPassword, false)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, user.ID)

	user, err = svc.Login(ctx, "giulia", testPassword, false)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, user.ID)

	_, err = svc.Login(ctx, "giulia", "Wr0ng!Password", false)
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Login(ctx, "nobody@example.com", testPassword, false)
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Login(ctx, "giulia", testPassword, true)
	assertCode(t, err, models.CodeForbidden)

	require.NoError(t, r.users.SetAdmin(ctx, owner.ID, true))
	user, err = svc.Login(ctx, "giulia", testPassword, true)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
}

func TestAuthService_ChangePassword(t *testing.T) {
	r := newRepos(t)
	svc := NewAuthService(r.users)
	ctx := context.Background()
	u := seedUser(t, r, "pietro", models.TierFree)

	err := svc.ChangePassword(ctx, u.ID, "Wr0ng!Password", "N3w!Passw0rdXY")
	assertCode(t, err, models.CodeUnauthorized)

	err = svc.ChangePassword(ctx, u.ID, testPassword, "short")
	assertCode(t, err, models.CodeValidation)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, testPassword, "N3w!Passw0rdXY"))
	_, err = svc.Login(ctx, "pietro", "N3w!Passw0rdXY", false)
	require.NoError(t, err)
}

package bootstrap

import (
	"testing"

	"vividplate/internal/config"
	"vividplate/internal/models"
	"vividplate/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func devConfig() *config.Config {
	return &config.Config{
		Env:               "development",
		DevBootstrapAdmin: true,
		DevAdminEmail:     "Root@VividPlate.local",
		DevAdminPassword:  "Str0ng!Passw0rd",
	}
}

func TestEnsureDevAdmin_CreatesAdmin(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	require.NoError(t, EnsureDevAdmin(devConfig(), db))
	require.NoError(t, EnsureDevAdmin(devConfig(), db))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "root@vividplate.local", users[0].Email)
	assert.Equal(t, "root", users[0].Username)
	assert.True(t, users[0].IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("Str0ng!Passw0rd")))
}

func TestEnsureDevAdmin_PromotesExistingUser(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	existing := models.User{Username: "rooted", Email: "root@vividplate.local", Password: "x"}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, EnsureDevAdmin(devConfig(), db))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, existing.ID).Error)
	assert.True(t, reloaded.IsAdmin)
	assert.Equal(t, "x", reloaded.Password, "existing credentials are kept")
}

func TestEnsureDevAdmin_Guards(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	t.Run("disabled outside development", func(t *testing.T) {
		cfg := devConfig()
		cfg.Env = "production"
		require.NoError(t, EnsureDevAdmin(cfg, db))
		var n int64
		require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("missing password", func(t *testing.T) {
		cfg := devConfig()
		cfg.DevAdminPassword = ""
		assert.Error(t, EnsureDevAdmin(cfg, db))
	})

	t.Run("weak password", func(t *testing.T) {
		cfg := devConfig()
		cfg.DevAdminPassword = "short"
		assert.Error(t, EnsureDevAdmin(cfg, db))
	})
}

func TestAdminUsername(t *testing.T) {
	assert.Equal(t, "ops_team", adminUsername("ops.team@example.com"))
	assert.Equal(t, "admin", adminUsername("a@example.com"))
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vividplate/internal/cache"
	"vividplate/internal/config"
	"vividplate/internal/mailer"
	"vividplate/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret-key-12345678901234567890123456789012"
	testPassword = "Str0ng!Passw0rd"
)

// testEnv is a fully wired server on SQLite, miniredis and an in-memory store.
type testEnv struct {
	srv   *Server
	app   *fiber.App
	redis *miniredis.Miniredis
	store *testutil.MemoryStore
}

type envOption func(*config.Config, *Deps)

func withFlags(raw string) envOption {
	return func(cfg *config.Config, _ *Deps) { cfg.FeatureFlags = raw }
}

func withMailer(m mailer.Mailer) envOption {
	return func(_ *config.Config, d *Deps) { d.Mailer = m }
}

// withUserCache turns on the Redis cache-aside for repository reads.
func withUserCache(t *testing.T) envOption {
	return func(_ *config.Config, d *Deps) {
		cache.SetClient(d.Redis)
		t.Cleanup(func() { cache.SetClient(nil) })
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	// Repository caching stays off so assertions read the database.
	cache.SetClient(nil)

	store := testutil.NewMemoryStore("http://api.test")
	cfg := &config.Config{
		JWTSecret:            testSecret,
		Env:                  "test",
		PublicBaseURL:        "http://app.test",
		ImageMaxUploadSizeMB: 2,
		ResetTokenTTLMinutes: 60,
	}
	deps := Deps{
		DB:     testutil.NewSQLiteDB(t),
		Redis:  rdb,
		Store:  store,
		Mailer: &mailer.LogMailer{},
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}

	srv, err := NewServerWithDeps(cfg, deps)
	require.NoError(t, err)
	return &testEnv{srv: srv, app: srv.App(), redis: mr, store: store}
}

// do sends a JSON request, optionally authenticated.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// register creates an owner and returns its token and id.
func (e *testEnv) register(t *testing.T, username string) (string, uint) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username":  username,
		"email":     username + "@example.com",
		"password":  testPassword,
		"full_name": "Test " + username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[AuthResponse](t, resp)
	return out.Token, out.User.ID
}

// registerAdmin creates an owner and grants it admin rights.
func (e *testEnv) registerAdmin(t *testing.T, username string) (string, uint) {
	t.Helper()
	token, id := e.register(t, username)
	require.NoError(t, e.srv.userRepo.SetAdmin(context.Background(), id, true))
	return token, id
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

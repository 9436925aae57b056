package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type menuStub struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *menuStub) func() error {
		return func() error {
			calls++
			*dest = menuStub{Name: "Trattoria", Items: 12}
			return nil
		}
	}

	var first menuStub
	require.NoError(t, Aside(ctx, MenuKey(1), &first, MenuTTL, fetch(&first)))
	assert.Equal(t, "Trattoria", first.Name)
	assert.Equal(t, 1, calls)
	assert.Equal(t, MenuTTL, mr.TTL(MenuKey(1)))

	var second menuStub
	require.NoError(t, Aside(ctx, MenuKey(1), &second, MenuTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second read is served from cache")
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := withMiniredis(t)
	var dest menuStub
	err := Aside(context.Background(), MenuKey(2), &dest, MenuTTL, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists(MenuKey(2)))
}

func TestAside_NoClientFallsThrough(t *testing.T) {
	SetClient(nil)
	var dest menuStub
	calls := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), MenuKey(3), &dest, MenuTTL, func() error {
			calls++
			dest.Name = "Bistro"
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisDownFallsThrough(t *testing.T) {
	mr := withMiniredis(t)
	mr.Close()

	var dest menuStub
	err := Aside(context.Background(), MenuKey(4), &dest, time.Minute, func() error {
		dest.Items = 3
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, dest.Items)
}

func TestInvalidateMenu(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()
	require.NoError(t, SetJSON(ctx, MenuKey(9), menuStub{Name: "a"}, MenuTTL))
	require.NoError(t, SetJSON(ctx, PublicMenuKey("chez-nous"), menuStub{Name: "a"}, MenuTTL))
	require.NoError(t, SetJSON(ctx, MenuKey(10), menuStub{Name: "b"}, MenuTTL))

	InvalidateMenu(ctx, 9, "chez-nous")

	assert.False(t, mr.Exists(MenuKey(9)))
	assert.False(t, mr.Exists(PublicMenuKey("chez-nous")))
	assert.True(t, mr.Exists(MenuKey(10)))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "menu:restaurant:5", MenuKey(5))
	assert.Equal(t, "menu:slug:la-piazza", PublicMenuKey("la-piazza"))
	assert.Equal(t, "user:7", UserKey(7))
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = ParseOptions("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = ParseOptions("  ")
	assert.Error(t, err)
	_, err = ParseOptions("http://cache.internal")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	c, err := Connect(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")

	mr.Close()
	_, err = Connect(context.Background(), addr)
	assert.Error(t, err)
}

func TestInitRedis_UnreachableLeavesNilClient(t *testing.T) {
	prev := GetClient()
	t.Cleanup(func() { client = prev })

	InitRedis("127.0.0.1:1")
	assert.Nil(t, GetClient())
}

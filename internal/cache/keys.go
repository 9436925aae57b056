package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	MenuKeyPrefix       = "menu:restaurant:%d"
	PublicMenuKeyPrefix = "menu:slug:%s"
	UserKeyPrefix       = "user:%d"
)

const (
	MenuTTL = 10 * time.Minute
	UserTTL = 5 * time.Minute
)

func MenuKey(restaurantID uint) string {
	return fmt.Sprintf(MenuKeyPrefix, restaurantID)
}

func PublicMenuKey(slug string) string {
	return fmt.Sprintf(PublicMenuKeyPrefix, slug)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// Invalidate deletes keys, ignoring a missing client.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateMenu drops both cached views of a restaurant's public menu.
func InvalidateMenu(ctx context.Context, restaurantID uint, slug string) {
	keys := []string{MenuKey(restaurantID)}
	if slug != "" {
		keys = append(keys, PublicMenuKey(slug))
	}
	Invalidate(ctx, keys...)
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

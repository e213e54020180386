package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe-inc/tribe/internal/application/entitlement/usecases"
	"github.com/tribe-inc/tribe/internal/domain/membership"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

func setupEntitlementCache(t *testing.T) (*RedisEntitlementCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRedisEntitlementCache(client, log), mr
}

func TestRedisEntitlementCache_SetGet(t *testing.T) {
	cache, mr := setupEntitlementCache(t)
	ctx := context.Background()

	miss, err := cache.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	expires := time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Set(ctx, "u1", "c1", &usecases.CachedEntitlement{
		TierID:    "t1",
		Status:    membership.StatusActive,
		ExpiresAt: &expires,
		Features:  []string{"group_calls", "private_chat"},
	}))

	got, err := cache.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.NotFound)
	assert.Equal(t, "t1", got.TierID)
	assert.Equal(t, membership.StatusActive, got.Status)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(expires))
	assert.Equal(t, []string{"group_calls", "private_chat"}, got.Features)

	ttl := mr.TTL(entitlementKeyPrefix + "c1:u1")
	assert.GreaterOrEqual(t, ttl, baseEntitlementTTL)
	assert.Less(t, ttl, baseEntitlementTTL+entitlementTTLJitter)
}

func TestRedisEntitlementCache_NullMarker(t *testing.T) {
	cache, mr := setupEntitlementCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u1", "c1", &usecases.CachedEntitlement{NotFound: true}))

	got, err := cache.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.NotFound)
	assert.False(t, got.IsActiveAt(time.Now()))
	assert.Equal(t, entitlementNullTTL, mr.TTL(entitlementKeyPrefix+"c1:u1"))

	// A later real entry replaces the marker entirely.
	require.NoError(t, cache.Set(ctx, "u1", "c1", &usecases.CachedEntitlement{TierID: "t1", Status: membership.StatusActive}))
	got, err = cache.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, got.NotFound)
	assert.Nil(t, got.ExpiresAt)
	assert.Empty(t, got.Features)
}

func TestRedisEntitlementCache_Invalidate(t *testing.T) {
	cache, _ := setupEntitlementCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u1", "c1", &usecases.CachedEntitlement{TierID: "t1", Status: membership.StatusActive}))
	require.NoError(t, cache.Set(ctx, "u2", "c1", &usecases.CachedEntitlement{TierID: "t1", Status: membership.StatusActive}))
	require.NoError(t, cache.Invalidate(ctx, "u1", "c1"))

	got, err := cache.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Nil(t, got)

	other, err := cache.Get(ctx, "u2", "c1")
	require.NoError(t, err)
	assert.NotNil(t, other)
}

func TestRedisEntitlementCache_Expiry(t *testing.T) {
	cache, mr := setupEntitlementCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u1", "c1", nil))
	mr.FastForward(entitlementNullTTL + time.Second)

	got, err := cache.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

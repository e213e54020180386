package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tribe-inc/tribe/internal/application/entitlement/usecases"
	"github.com/tribe-inc/tribe/internal/domain/membership"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

const (
	entitlementKeyPrefix = "tribe:entitlement:"
	baseEntitlementTTL   = 10 * time.Minute
	entitlementTTLJitter = 5 * time.Minute // TTL range: 10-15 min (anti-stampede)
	entitlementNullTTL   = 2 * time.Minute // Short TTL for "no membership" markers
	fieldTierID          = "tier_id"
	fieldStatus          = "status"
	fieldExpiresAt       = "expires_at"
	fieldFeatures        = "features"
	fieldNullMarker      = "_null"
)

// RedisEntitlementCache stores one hash per (user, community) holding the
// membership status, expiry and tier features.
type RedisEntitlementCache struct {
	client redis.UniversalClient
	logger logger.Interface
}

func NewRedisEntitlementCache(client redis.UniversalClient, logger logger.Interface) *RedisEntitlementCache {
	return &RedisEntitlementCache{
		client: client,
		logger: logger,
	}
}

func (c *RedisEntitlementCache) key(userID, communityID string) string {
	return entitlementKeyPrefix + communityID + ":" + userID
}

func (c *RedisEntitlementCache) Get(ctx context.Context, userID, communityID string) (*usecases.CachedEntitlement, error) {
	result, err := c.client.HGetAll(ctx, c.key(userID, communityID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get entitlement from cache: %w", err)
	}

	if len(result) == 0 {
		return nil, nil // Cache miss
	}

	if result[fieldNullMarker] == "1" {
		return &usecases.CachedEntitlement{NotFound: true}, nil
	}

	e := &usecases.CachedEntitlement{
		TierID: result[fieldTierID],
		Status: membership.Status(result[fieldStatus]),
	}

	if expiresStr := result[fieldExpiresAt]; expiresStr != "" {
		expiresUnix, err := strconv.ParseInt(expiresStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt expires_at in entitlement cache: %w", err)
		}
		expiresAt := time.Unix(expiresUnix, 0).UTC()
		e.ExpiresAt = &expiresAt
	}

	if featuresStr := result[fieldFeatures]; featuresStr != "" {
		if err := json.Unmarshal([]byte(featuresStr), &e.Features); err != nil {
			return nil, fmt.Errorf("corrupt features in entitlement cache: %w", err)
		}
	}

	return e, nil
}

func (c *RedisEntitlementCache) Set(ctx context.Context, userID, communityID string, e *usecases.CachedEntitlement) error {
	if e == nil || e.NotFound {
		return c.setNullMarker(ctx, userID, communityID)
	}

	features, err := json.Marshal(e.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	fields := map[string]interface{}{
		fieldTierID:   e.TierID,
		fieldStatus:   string(e.Status),
		fieldFeatures: string(features),
	}
	if e.ExpiresAt != nil {
		fields[fieldExpiresAt] = e.ExpiresAt.Unix()
	}

	key := c.key(userID, communityID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, entitlementTTLWithJitter())

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set entitlement in cache: %w", err)
	}

	c.logger.Debugw("entitlement cached",
		"user_id", userID,
		"community_id", communityID,
		"tier_id", e.TierID,
	)

	return nil
}

// setNullMarker caches the absence of a membership for a short time so
// repeated checks by non-members do not hit the database.
func (c *RedisEntitlementCache) setNullMarker(ctx context.Context, userID, communityID string) error {
	key := c.key(userID, communityID)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fieldNullMarker, "1")
	pipe.Expire(ctx, key, entitlementNullTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set null marker in cache: %w", err)
	}

	return nil
}

func (c *RedisEntitlementCache) Invalidate(ctx context.Context, userID, communityID string) error {
	if err := c.client.Del(ctx, c.key(userID, communityID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate entitlement cache: %w", err)
	}

	c.logger.Debugw("entitlement cache invalidated",
		"user_id", userID,
		"community_id", communityID,
	)

	return nil
}

// entitlementTTLWithJitter returns a randomized TTL in
// [baseEntitlementTTL, baseEntitlementTTL + entitlementTTLJitter).
func entitlementTTLWithJitter() time.Duration {
	jitter := time.Duration(rand.Int64N(int64(entitlementTTLJitter)))
	return baseEntitlementTTL + jitter
}

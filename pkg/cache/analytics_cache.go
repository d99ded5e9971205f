// Package cache stores derived wardrobe analytics in Redis so repeated
// dashboard reads do not rescan usage history.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

const analyticsKeyPrefix = "wardrobe:analytics:"

// AnalyticsCache caches per-user wardrobe analytics.
type AnalyticsCache interface {
	// Get returns the cached analytics and true, or nil and false on a miss.
	Get(ctx context.Context, userID uuid.UUID) (*models.WardrobeAnalytics, bool, error)
	Set(ctx context.Context, userID uuid.UUID, analytics *models.WardrobeAnalytics) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type redisAnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewAnalyticsCache returns a Redis-backed cache, or a no-op cache when
// client is nil so callers never need to branch on Redis being configured.
func NewAnalyticsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) AnalyticsCache {
	if client == nil {
		return NoopAnalyticsCache{}
	}
	return &redisAnalyticsCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("analytics-cache"),
	}
}

var _ AnalyticsCache = (*redisAnalyticsCache)(nil)

func analyticsKey(userID uuid.UUID) string {
	return analyticsKeyPrefix + userID.String()
}

func (c *redisAnalyticsCache) Get(ctx context.Context, userID uuid.UUID) (*models.WardrobeAnalytics, bool, error) {
	raw, err := c.client.Get(ctx, analyticsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read analytics cache: %w", err)
	}

	var analytics models.WardrobeAnalytics
	if err := json.Unmarshal(raw, &analytics); err != nil {
		// A payload from an older schema is treated as a miss and overwritten.
		c.logger.Warn("Discarding undecodable analytics cache entry",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, false, nil
	}
	return &analytics, true, nil
}

func (c *redisAnalyticsCache) Set(ctx context.Context, userID uuid.UUID, analytics *models.WardrobeAnalytics) error {
	raw, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}
	if err := c.client.Set(ctx, analyticsKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write analytics cache: %w", err)
	}
	return nil
}

func (c *redisAnalyticsCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, analyticsKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate analytics cache: %w", err)
	}
	return nil
}

// NoopAnalyticsCache never stores anything.
type NoopAnalyticsCache struct{}

var _ AnalyticsCache = NoopAnalyticsCache{}

func (NoopAnalyticsCache) Get(context.Context, uuid.UUID) (*models.WardrobeAnalytics, bool, error) {
	return nil, false, nil
}

func (NoopAnalyticsCache) Set(context.Context, uuid.UUID, *models.WardrobeAnalytics) error {
	return nil
}

func (NoopAnalyticsCache) Invalidate(context.Context, uuid.UUID) error {
	return nil
}

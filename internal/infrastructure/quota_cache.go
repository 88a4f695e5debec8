package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// cacheTTL bounds staleness of the cached daily count; every send
// invalidates the entry, so the TTL only matters for external writers.
const cacheTTL = 60 * time.Second

// RedisQuotaCache caches the derived daily outbound count per tenant so
// hot send paths do not hit the message log aggregation on every check.
type RedisQuotaCache struct {
	client *redis.Client
}

func NewRedisQuotaCache(redisURL string) (*RedisQuotaCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisQuotaCache{client: client}, nil
}

func quotaKey(tenantID int) string {
	return fmt.Sprintf("quota:daily:%d:%s", tenantID, time.Now().Format("2006-01-02"))
}

func (c *RedisQuotaCache) Get(ctx context.Context, tenantID int) (int, bool) {
	count, err := c.client.Get(ctx, quotaKey(tenantID)).Int()
	if err != nil {
		// Cache misses and redis failures both fall through to
		// the log query.
		return 0, false
	}
	return count, true
}

func (c *RedisQuotaCache) Set(ctx context.Context, tenantID int, count int) {
	if err := c.client.Set(ctx, quotaKey(tenantID), count, cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Int("tenant_id", tenantID).Msg("quota cache write failed")
	}
}

func (c *RedisQuotaCache) Invalidate(ctx context.Context, tenantID int) {
	if err := c.client.Del(ctx, quotaKey(tenantID)).Err(); err != nil {
		log.Warn().Err(err).Int("tenant_id", tenantID).Msg("quota cache invalidation failed")
	}
}

func (c *RedisQuotaCache) Close() error {
	return c.client.Close()
}

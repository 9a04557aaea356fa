package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vocmoney/pipeline/internal/application/service"
	"github.com/vocmoney/pipeline/pkg/logger"
)

const seenKeyPrefix = "pipeline:seen:"

// redisSeenCache is a TTL'd fast path in front of the authoritative
// published-article table: a hit means the GUID was published recently and
// the pipeline can skip it without touching Postgres.
type redisSeenCache struct {
	rdb *redis.Client
	ttl time.Duration
	log logger.Logger
}

func NewRedisSeenCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) service.SeenCache {
	return &redisSeenCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *redisSeenCache) Seen(ctx context.Context, guid string) bool {
	n, err := c.rdb.Exists(ctx, seenKeyPrefix+guid).Result()
	if err != nil {
		// Cache misses on error; Postgres stays authoritative.
		c.log.Warn("seen-cache lookup failed", zap.Error(err))
		return false
	}
	return n > 0
}

func (c *redisSeenCache) MarkSeen(ctx context.Context, guid string) {
	if err := c.rdb.Set(ctx, seenKeyPrefix+guid, 1, c.ttl).Err(); err != nil {
		c.log.Warn("seen-cache write failed", zap.Error(err))
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const catalogCacheTTL = 10 * time.Minute

// catalogCache stores reference data as JSON in Redis. A nil client disables it.
type catalogCache struct {
	rdb *redis.Client
	log zerolog.Logger
}

func (c catalogCache) get(ctx context.Context, key string, dst any) bool {
	if c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Catalog cache entry corrupt")
		return false
	}
	return true
}

func (c catalogCache) set(ctx context.Context, key string, v any) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, catalogCacheTTL).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
}

func (c catalogCache) invalidate(ctx context.Context, keys ...string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("Catalog cache invalidation failed")
	}
}

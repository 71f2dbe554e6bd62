package database

import (
	"context"
	"fmt"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisPingAttempts = 3
	redisPingBackoff  = time.Second
)

// NewRedisClient connects to the Redis backing sessions, caches, the
// leaderboard and the email queue.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	return ConnectRedis(ctx, cfg.RedisURL, cfg.OtelServiceName, log)
}

// ConnectRedis opens a client for url named clientName in CLIENT LIST. The
// first ping is retried briefly so the API can start alongside Redis.
func ConnectRedis(ctx context.Context, url, clientName string, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opt.ClientName == "" {
		opt.ClientName = clientName
	}
	opt.MinIdleConns = 2

	rdb := redis.NewClient(opt)

	for attempt := 1; ; attempt++ {
		err = rdb.Ping(ctx).Err()
		if err == nil {
			break
		}
		if attempt == redisPingAttempts || ctx.Err() != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis after %d attempt(s): %w", attempt, err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Redis not ready, retrying")
		select {
		case <-ctx.Done():
		case <-time.After(redisPingBackoff):
		}
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Str("client_name", opt.ClientName).
		Msg("Redis connected")

	return rdb, nil
}

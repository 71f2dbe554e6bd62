package repository

import (
	"context"
	"errors"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a user has no active login.
var ErrNoSession = errors.New("no active session")

// SessionRepository stores login sessions and spent one-time tokens in Redis.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

// Save records jti as the user's only active session.
func (r *SessionRepository) Save(ctx context.Context, userID uuid.UUID, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, config.CacheKey.UserSessionKey(userID.String()), jti, ttl).Err()
}

// Get returns the active session's jti.
func (r *SessionRepository) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	jti, err := r.rdb.Get(ctx, config.CacheKey.UserSessionKey(userID.String())).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	return jti, err
}

// Delete ends the user's session.
func (r *SessionRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID.String())).Err()
}

// ConsumeToken marks a one-time token id as spent. It reports false when the
// token was already used.
func (r *SessionRepository) ConsumeToken(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	return r.rdb.SetNX(ctx, config.CacheKey.UsedResetTokenKey(jti), 1, ttl).Result()
}

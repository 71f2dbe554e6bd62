package repository

import (
	"context"
	"errors"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScoreEntry is one raw leaderboard member.
type ScoreEntry struct {
	UserID uuid.UUID
	Score  int
	Rank   int64
}

// LeaderboardRepository keeps best scores per license code in Redis sorted sets.
type LeaderboardRepository struct {
	rdb *redis.Client
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(rdb *redis.Client) *LeaderboardRepository {
	return &LeaderboardRepository{rdb: rdb}
}

// RecordBest stores score for the user unless a higher one is already recorded.
func (r *LeaderboardRepository) RecordBest(ctx context.Context, licenseCode string, userID uuid.UUID, score int) error {
	return r.rdb.ZAddGT(ctx, config.CacheKey.LeaderboardKey(licenseCode), redis.Z{
		Score:  float64(score),
		Member: userID.String(),
	}).Err()
}

// Top returns the best limit entries, highest score first.
func (r *LeaderboardRepository) Top(ctx context.Context, licenseCode string, limit int64) ([]ScoreEntry, error) {
	results, err := r.rdb.ZRevRangeWithScores(ctx, config.CacheKey.LeaderboardKey(licenseCode), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]ScoreEntry, 0, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		entries = append(entries, ScoreEntry{UserID: id, Score: int(z.Score), Rank: int64(i) + 1})
	}
	return entries, nil
}

// Position returns the user's rank and best score, or nil when the user has
// no score for the license code.
func (r *LeaderboardRepository) Position(ctx context.Context, licenseCode string, userID uuid.UUID) (*ScoreEntry, error) {
	key := config.CacheKey.LeaderboardKey(licenseCode)
	member := userID.String()

	pipe := r.rdb.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, key, member)
	scoreCmd := pipe.ZScore(ctx, key, member)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	rank, err := rankCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	score, err := scoreCmd.Result()
	if err != nil {
		return nil, err
	}
	return &ScoreEntry{UserID: userID, Score: int(score), Rank: rank + 1}, nil
}

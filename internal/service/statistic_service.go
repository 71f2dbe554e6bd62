package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StatisticStore is the rollup persistence used by StatisticService.
type StatisticStore interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.UserStatistic, error)
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.UserStatistic, error)
	Create(ctx context.Context, userID uuid.UUID) error
	Update(ctx context.Context, s *model.UserStatistic) error
}

// LeaderboardStore keeps best scores per license code.
type LeaderboardStore interface {
	RecordBest(ctx context.Context, licenseCode string, userID uuid.UUID, score int) error
	Top(ctx context.Context, licenseCode string, limit int64) ([]repository.ScoreEntry, error)
	Position(ctx context.Context, licenseCode string, userID uuid.UUID) (*repository.ScoreEntry, error)
}

// UsernameLookup resolves display names for leaderboard rows.
type UsernameLookup interface {
	UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// LicenseCodeLookup resolves a license type by code.
type LicenseCodeLookup interface {
	GetByCode(ctx context.Context, code string) (*model.LicenseType, error)
}

// StatisticService maintains the per-user rollup incrementally and serves
// the score leaderboard.
type StatisticService struct {
	stats       StatisticStore
	leaderboard LeaderboardStore
	users       UsernameLookup
	licenses    LicenseCodeLookup
	now         func() time.Time
	log         zerolog.Logger
}

// NewStatisticService creates a new StatisticService. leaderboard may be nil.
func NewStatisticService(
	stats StatisticStore,
	leaderboard LeaderboardStore,
	users UsernameLookup,
	licenses LicenseCodeLookup,
	log zerolog.Logger,
) *StatisticService {
	return &StatisticService{
		stats:       stats,
		leaderboard: leaderboard,
		users:       users,
		licenses:    licenses,
		now:         time.Now,
		log:         log.With().Str("component", "statistic_service").Logger(),
	}
}

// OnExamSubmitted adds one graded exam to the owner's rollup. The caller
// invokes it exactly once per exam, inside the submission transaction.
func (s *StatisticService) OnExamSubmitted(ctx context.Context, exam *model.MockExam) error {
	stat, err := s.stats.GetForUpdate(ctx, exam.UserID)
	if isNoRows(err) {
		if err := s.stats.Create(ctx, exam.UserID); err != nil && !isNoRows(err) {
			return fmt.Errorf("create user statistics: %w", err)
		}
		stat, err = s.stats.GetForUpdate(ctx, exam.UserID)
	}
	if err != nil {
		return fmt.Errorf("lock user statistics: %w", err)
	}

	applyExam(stat, exam, s.now())
	if err := s.stats.Update(ctx, stat); err != nil {
		return fmt.Errorf("update user statistics: %w", err)
	}
	return nil
}

// applyExam is the incremental rollup:
//
//	accuracy = correct / answered * 100
//	average  = (average * (n-1) + score) / n
func applyExam(st *model.UserStatistic, exam *model.MockExam, now time.Time) {
	first := st.TotalExamsTaken == 0

	st.TotalExamsTaken++
	if exam.PassStatus == model.PassStatusPassed {
		st.TotalExamsPassed++
	} else {
		st.TotalExamsFailed++
	}

	st.TotalQuestionsAnswered += exam.TotalQuestions
	st.TotalCorrectAnswers += exam.CorrectAnswers
	if st.TotalQuestionsAnswered > 0 {
		st.AccuracyRate = round2(float64(st.TotalCorrectAnswers) / float64(st.TotalQuestionsAnswered) * 100)
	}

	n := float64(st.TotalExamsTaken)
	st.AverageScore = round2((st.AverageScore*(n-1) + float64(exam.Score)) / n)

	if first {
		st.HighestScore = exam.Score
		st.LowestScore = exam.Score
	} else {
		st.HighestScore = max(st.HighestScore, exam.Score)
		st.LowestScore = min(st.LowestScore, exam.Score)
	}

	st.TotalLearningTime += exam.TimeSpent
	st.LastActivityAt = &now
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Get returns the user's rollup with derived pass rate.
func (s *StatisticService) Get(ctx context.Context, userID uuid.UUID) (*model.UserStatisticView, error) {
	st, err := s.stats.GetByUser(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrStatisticsNotFound
		}
		return nil, fmt.Errorf("get user statistics: %w", err)
	}
	return &model.UserStatisticView{UserStatistic: *st, PassRate: st.PassRate()}, nil
}

// RecordLeaderboard publishes a submitted exam's score. Failures are logged
// only; the leaderboard is derived data.
func (s *StatisticService) RecordLeaderboard(ctx context.Context, exam *model.MockExam) {
	if s.leaderboard == nil || !exam.IsSubmitted {
		return
	}
	if err := s.leaderboard.RecordBest(ctx, exam.LicenseTypeCode, exam.UserID, exam.Score); err != nil {
		s.log.Warn().Err(err).
			Int64("exam_id", exam.ID).
			Str("license", exam.LicenseTypeCode).
			Msg("Failed to record leaderboard score")
	}
}

func (s *StatisticService) leaderboardLicense(ctx context.Context, licenseCode string) (*model.LicenseType, error) {
	if licenseCode == "" {
		return nil, newError(KindValidation, "License type is required")
	}
	license, err := s.licenses.GetByCode(ctx, licenseCode)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrLicenseTypeNotFound
		}
		return nil, fmt.Errorf("get license type: %w", err)
	}
	return license, nil
}

// Leaderboard returns the best scores for a license code, highest first.
func (s *StatisticService) Leaderboard(ctx context.Context, licenseCode string, limit int) ([]model.LeaderboardEntry, error) {
	license, err := s.leaderboardLicense(ctx, licenseCode)
	if err != nil {
		return nil, err
	}
	if s.leaderboard == nil {
		return []model.LeaderboardEntry{}, nil
	}

	top, err := s.leaderboard.Top(ctx, license.Code, int64(clamp(limit, 1, 100)))
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	ids := make([]uuid.UUID, len(top))
	for i, e := range top {
		ids[i] = e.UserID
	}
	names, err := s.users.UsernamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve usernames: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(top))
	for _, e := range top {
		entries = append(entries, model.LeaderboardEntry{
			Rank:     e.Rank,
			UserID:   e.UserID,
			Username: names[e.UserID],
			Score:    e.Score,
		})
	}
	return entries, nil
}

// MyRank returns the caller's leaderboard position for a license code.
func (s *StatisticService) MyRank(ctx context.Context, userID uuid.UUID, licenseCode string) (*model.LeaderboardEntry, error) {
	license, err := s.leaderboardLicense(ctx, licenseCode)
	if err != nil {
		return nil, err
	}
	if s.leaderboard == nil {
		return nil, ErrNoLeaderboardEntry
	}

	pos, err := s.leaderboard.Position(ctx, license.Code, userID)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard position: %w", err)
	}
	if pos == nil {
		return nil, ErrNoLeaderboardEntry
	}
	names, err := s.users.UsernamesByIDs(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("resolve usernames: %w", err)
	}
	return &model.LeaderboardEntry{Rank: pos.Rank, UserID: userID, Username: names[userID], Score: pos.Score}, nil
}

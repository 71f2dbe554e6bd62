package repository

import (
	"context"

	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/google/uuid"
)

// UserStatisticRepository handles the per-user statistics rollup.
type UserStatisticRepository struct {
	db database.DBTX
}

// NewUserStatisticRepository creates a new UserStatisticRepository.
func NewUserStatisticRepository(db database.DBTX) *UserStatisticRepository {
	return &UserStatisticRepository{db: db}
}

const userStatisticSelect = `SELECT id, user_id, total_exams_taken, total_exams_passed, total_exams_failed,
	average_score, highest_score, lowest_score, total_questions_answered, total_correct_answers, accuracy_rate,
	total_learning_time, last_activity_at, created_at, updated_at FROM user_statistics`

func scanUserStatistic(row scanner, s *model.UserStatistic) error {
	return row.Scan(&s.ID, &s.UserID, &s.TotalExamsTaken, &s.TotalExamsPassed, &s.TotalExamsFailed,
		&s.AverageScore, &s.HighestScore, &s.LowestScore, &s.TotalQuestionsAnswered, &s.TotalCorrectAnswers,
		&s.AccuracyRate, &s.TotalLearningTime, &s.LastActivityAt, &s.CreatedAt, &s.UpdatedAt)
}

// GetByUser retrieves the rollup for a user.
func (r *UserStatisticRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.UserStatistic, error) {
	return r.get(ctx, userID, ``)
}

// GetForUpdate retrieves the rollup and locks it for the rest of the transaction.
func (r *UserStatisticRepository) GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.UserStatistic, error) {
	return r.get(ctx, userID, ` FOR UPDATE`)
}

func (r *UserStatisticRepository) get(ctx context.Context, userID uuid.UUID, lock string) (*model.UserStatistic, error) {
	s := &model.UserStatistic{}
	err := scanUserStatistic(database.Conn(ctx, r.db).QueryRow(ctx,
		userStatisticSelect+` WHERE user_id = $1`+lock, userID), s)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a zeroed rollup. Returns pgx.ErrNoRows when one already exists.
func (r *UserStatisticRepository) Create(ctx context.Context, userID uuid.UUID) error {
	var id int64
	return database.Conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO user_statistics (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING
		 RETURNING id`, userID,
	).Scan(&id)
}

// Update persists every counter of the rollup.
func (r *UserStatisticRepository) Update(ctx context.Context, s *model.UserStatistic) error {
	return database.Conn(ctx, r.db).QueryRow(ctx,
		`UPDATE user_statistics
		 SET total_exams_taken = $2, total_exams_passed = $3, total_exams_failed = $4, average_score = $5,
		     highest_score = $6, lowest_score = $7, total_questions_answered = $8, total_correct_answers = $9,
		     accuracy_rate = $10, total_learning_time = $11, last_activity_at = $12, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		s.ID, s.TotalExamsTaken, s.TotalExamsPassed, s.TotalExamsFailed, s.AverageScore, s.HighestScore,
		s.LowestScore, s.TotalQuestionsAnswered, s.TotalCorrectAnswers, s.AccuracyRate, s.TotalLearningTime,
		s.LastActivityAt,
	).Scan(&s.UpdatedAt)
}

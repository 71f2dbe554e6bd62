package repository

import (
	"context"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MockExamRepository handles mock exam and answer slot data access.
type MockExamRepository struct {
	db database.DBTX
}

// NewMockExamRepository creates a new MockExamRepository.
func NewMockExamRepository(db database.DBTX) *MockExamRepository {
	return &MockExamRepository{db: db}
}

const mockExamColumns = `e.id, e.user_id, e.license_type_id, l.code, l.name, e.total_questions, e.correct_answers,
	e.wrong_answers, e.score, e.passing_score, e.required_elimination, e.failed_elimination, e.pass_status,
	e.is_submitted, e.time_limit, e.time_spent, e.started_at, e.completed_at, e.created_at, e.updated_at`

func scanMockExam(row scanner, e *model.MockExam) error {
	return row.Scan(&e.ID, &e.UserID, &e.LicenseTypeID, &e.LicenseTypeCode, &e.LicenseTypeName, &e.TotalQuestions,
		&e.CorrectAnswers, &e.WrongAnswers, &e.Score, &e.PassingScore, &e.RequiredElimination, &e.FailedElimination,
		&e.PassStatus, &e.IsSubmitted, &e.TimeLimit, &e.TimeSpent, &e.StartedAt, &e.CompletedAt, &e.CreatedAt,
		&e.UpdatedAt)
}

// Create inserts the exam header in the InProgress state.
func (r *MockExamRepository) Create(ctx context.Context, e *model.MockExam) error {
	e.PassStatus = model.PassStatusInProgress
	return database.Conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO mock_exams (user_id, license_type_id, total_questions, passing_score, required_elimination,
		                         pass_status, time_limit, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		e.UserID, e.LicenseTypeID, e.TotalQuestions, e.PassingScore, e.RequiredElimination,
		e.PassStatus, e.TimeLimit, e.StartedAt,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// CreateAnswers bulk-inserts one empty slot per question, keeping the given order.
func (r *MockExamRepository) CreateAnswers(ctx context.Context, examID int64, questions []model.Question) error {
	ids := make([]int64, len(questions))
	elim := make([]bool, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		elim[i] = q.IsElimination
	}
	_, err := database.Conn(ctx, r.db).Exec(ctx,
		`INSERT INTO mock_exam_answers (exam_id, question_id, is_elimination)
		 SELECT $1, t.question_id, t.is_elimination
		 FROM UNNEST($2::bigint[], $3::boolean[]) WITH ORDINALITY AS t(question_id, is_elimination, ord)
		 ORDER BY t.ord`,
		examID, ids, elim)
	return err
}

// GetByID retrieves an exam header with its license code and name.
func (r *MockExamRepository) GetByID(ctx context.Context, id int64) (*model.MockExam, error) {
	return r.getOne(ctx, ``, id)
}

// GetByIDForUpdate is GetByID holding a row lock until the surrounding transaction ends.
func (r *MockExamRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.MockExam, error) {
	return r.getOne(ctx, ` FOR UPDATE OF e`, id)
}

func (r *MockExamRepository) getOne(ctx context.Context, lock string, id int64) (*model.MockExam, error) {
	e := &model.MockExam{}
	err := scanMockExam(database.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+mockExamColumns+`
		 FROM mock_exams e JOIN license_types l ON l.id = e.license_type_id
		 WHERE e.id = $1`+lock, id), e)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListAnswers retrieves an exam's answer slots in creation order.
func (r *MockExamRepository) ListAnswers(ctx context.Context, examID int64) ([]model.MockExamAnswer, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx,
		`SELECT id, exam_id, question_id, selected_option_id, is_correct, is_elimination, answered_at
		 FROM mock_exam_answers WHERE exam_id = $1 ORDER BY id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []model.MockExamAnswer{}
	for rows.Next() {
		var a model.MockExamAnswer
		if err := rows.Scan(&a.ID, &a.ExamID, &a.QuestionID, &a.SelectedOptionID, &a.IsCorrect,
			&a.IsElimination, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// UpdateAnswers writes selection and correctness for many slots in one statement.
func (r *MockExamRepository) UpdateAnswers(ctx context.Context, answers []model.MockExamAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	ids := make([]int64, len(answers))
	selected := make([]*int64, len(answers))
	correct := make([]bool, len(answers))
	answeredAt := make([]*time.Time, len(answers))
	for i, a := range answers {
		ids[i] = a.ID
		selected[i] = a.SelectedOptionID
		correct[i] = a.IsCorrect
		answeredAt[i] = a.AnsweredAt
	}
	_, err := database.Conn(ctx, r.db).Exec(ctx,
		`UPDATE mock_exam_answers a
		 SET selected_option_id = t.selected, is_correct = t.correct, answered_at = t.answered_at
		 FROM UNNEST($1::bigint[], $2::bigint[], $3::boolean[], $4::timestamptz[])
		      AS t(id, selected, correct, answered_at)
		 WHERE a.id = t.id`,
		ids, selected, correct, answeredAt)
	return err
}

// UpdateTimeSpent records elapsed seconds on an unsubmitted exam.
func (r *MockExamRepository) UpdateTimeSpent(ctx context.Context, id int64, seconds int) error {
	_, err := database.Conn(ctx, r.db).Exec(ctx,
		`UPDATE mock_exams SET time_spent = $2, updated_at = NOW() WHERE id = $1 AND NOT is_submitted`,
		id, seconds)
	return err
}

// MarkSubmitted flips the submitted flag. It reports false when another
// caller already submitted the exam.
func (r *MockExamRepository) MarkSubmitted(ctx context.Context, id int64) (bool, error) {
	tag, err := database.Conn(ctx, r.db).Exec(ctx,
		`UPDATE mock_exams SET is_submitted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_submitted`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SaveResult stores the graded outcome of a submitted exam.
func (r *MockExamRepository) SaveResult(ctx context.Context, e *model.MockExam) error {
	return database.Conn(ctx, r.db).QueryRow(ctx,
		`UPDATE mock_exams
		 SET correct_answers = $2, wrong_answers = $3, score = $4, failed_elimination = $5, pass_status = $6,
		     time_spent = $7, completed_at = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		e.ID, e.CorrectAnswers, e.WrongAnswers, e.Score, e.FailedElimination, e.PassStatus, e.TimeSpent,
		e.CompletedAt,
	).Scan(&e.UpdatedAt)
}

// ListByUserAndLicense returns a user's exams for one license, newest first.
func (r *MockExamRepository) ListByUserAndLicense(ctx context.Context, userID uuid.UUID, licenseTypeID int64) ([]model.MockExamSummary, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx,
		`SELECT id, license_type_id, total_questions, correct_answers, wrong_answers, score, passing_score,
		        pass_status, is_submitted, time_spent, started_at, completed_at
		 FROM mock_exams
		 WHERE user_id = $1 AND license_type_id = $2
		 ORDER BY started_at DESC, id DESC`, userID, licenseTypeID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.MockExamSummary, error) {
		var s model.MockExamSummary
		err := row.Scan(&s.ExamID, &s.LicenseTypeID, &s.TotalQuestions, &s.CorrectAnswers, &s.WrongAnswers,
			&s.Score, &s.PassingScore, &s.PassStatus, &s.IsSubmitted, &s.TimeSpent, &s.StartedAt, &s.CompletedAt)
		return s, err
	})
}

package repository

import (
	"context"

	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WrongQuestionRepository handles the per-user wrong question ledger.
type WrongQuestionRepository struct {
	db database.DBTX
}

// NewWrongQuestionRepository creates a new WrongQuestionRepository.
func NewWrongQuestionRepository(db database.DBTX) *WrongQuestionRepository {
	return &WrongQuestionRepository{db: db}
}

const wrongQuestionColumns = `w.id, w.user_id, w.question_id, w.wrong_count, w.last_wrong_at, w.is_fixed,
	w.created_at, w.updated_at`

func scanWrongQuestion(row scanner, w *model.UserWrongQuestion) error {
	return row.Scan(&w.ID, &w.UserID, &w.QuestionID, &w.WrongCount, &w.LastWrongAt, &w.IsFixed,
		&w.CreatedAt, &w.UpdatedAt)
}

// GetForUpdate locks the (user, question) entry for the rest of the transaction.
func (r *WrongQuestionRepository) GetForUpdate(ctx context.Context, userID uuid.UUID, questionID int64) (*model.UserWrongQuestion, error) {
	w := &model.UserWrongQuestion{}
	err := scanWrongQuestion(database.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+wrongQuestionColumns+` FROM user_wrong_questions w
		 WHERE w.user_id = $1 AND w.question_id = $2 FOR UPDATE`, userID, questionID), w)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Create inserts a first-miss entry. Returns pgx.ErrNoRows when a concurrent
// writer created the entry first; the caller re-reads it with GetForUpdate.
func (r *WrongQuestionRepository) Create(ctx context.Context, w *model.UserWrongQuestion) error {
	return database.Conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO user_wrong_questions (user_id, question_id, wrong_count, last_wrong_at, is_fixed)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, question_id) DO NOTHING
		 RETURNING id, created_at, updated_at`,
		w.UserID, w.QuestionID, w.WrongCount, w.LastWrongAt, w.IsFixed,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

// Update persists counters of an existing entry.
func (r *WrongQuestionRepository) Update(ctx context.Context, w *model.UserWrongQuestion) error {
	return database.Conn(ctx, r.db).QueryRow(ctx,
		`UPDATE user_wrong_questions
		 SET wrong_count = $2, last_wrong_at = $3, is_fixed = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		w.ID, w.WrongCount, w.LastWrongAt, w.IsFixed,
	).Scan(&w.UpdatedAt)
}

// MarkFixed flags a user's entry as fixed. Returns pgx.ErrNoRows when the
// entry does not exist or belongs to someone else.
func (r *WrongQuestionRepository) MarkFixed(ctx context.Context, id int64, userID uuid.UUID) error {
	tag, err := database.Conn(ctx, r.db).Exec(ctx,
		`UPDATE user_wrong_questions SET is_fixed = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByUser returns the user's entries joined with question data, most
// recent miss first. A non-nil licenseTypeID keeps only questions mapped to
// that license.
func (r *WrongQuestionRepository) ListByUser(ctx context.Context, userID uuid.UUID, licenseTypeID *int64) ([]model.WrongQuestionView, error) {
	sql := `SELECT ` + wrongQuestionColumns + `, q.question_text, q.image_url, q.category_id, c.name
		 FROM user_wrong_questions w
		 JOIN questions q ON q.id = w.question_id
		 JOIN categories c ON c.id = q.category_id
		 WHERE w.user_id = $1`
	args := []any{userID}
	if licenseTypeID != nil {
		sql += ` AND EXISTS (SELECT 1 FROM license_questions lq
		                      WHERE lq.question_id = w.question_id AND lq.license_type_id = $2)`
		args = append(args, *licenseTypeID)
	}
	sql += ` ORDER BY w.last_wrong_at DESC, w.id DESC`

	rows, err := database.Conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []model.WrongQuestionView{}
	index := map[int64][]int{}
	for rows.Next() {
		var v model.WrongQuestionView
		if err := rows.Scan(&v.ID, &v.UserID, &v.QuestionID, &v.WrongCount, &v.LastWrongAt, &v.IsFixed,
			&v.CreatedAt, &v.UpdatedAt, &v.QuestionText, &v.ImageURL, &v.CategoryID, &v.CategoryName); err != nil {
			return nil, err
		}
		v.AnswerOptions = []model.AnswerOption{}
		index[v.QuestionID] = append(index[v.QuestionID], len(views))
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return views, nil
	}

	ids := make([]int64, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	optRows, err := database.Conn(ctx, r.db).Query(ctx,
		`SELECT id, question_id, option_text, is_correct, option_order
		 FROM answer_options WHERE question_id = ANY($1) ORDER BY question_id, option_order`, ids)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.AnswerOption
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect, &o.OptionOrder); err != nil {
			return nil, err
		}
		for _, i := range index[o.QuestionID] {
			views[i].AnswerOptions = append(views[i].AnswerOptions, o)
			if o.IsCorrect {
				id, text := o.ID, o.OptionText
				views[i].CorrectOptionID = &id
				views[i].CorrectAnswerText = &text
			}
		}
	}
	return views, optRows.Err()
}

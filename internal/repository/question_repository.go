package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/jackc/pgx/v5"
)

const questionColumns = `q.id, q.question_number, q.category_id, c.name, q.question_text, q.explanation_text,
	q.difficulty_level, q.is_elimination, q.image_url, q.time_limit, q.points, q.created_at, q.updated_at`

// QuestionRepository handles question and answer option data access.
type QuestionRepository struct {
	db database.DBTX
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db database.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) conn(ctx context.Context) database.DBTX {
	return database.Conn(ctx, r.db)
}

func scanQuestion(row scanner, q *model.Question) error {
	return row.Scan(&q.ID, &q.QuestionNumber, &q.CategoryID, &q.CategoryName, &q.QuestionText, &q.ExplanationText,
		&q.DifficultyLevel, &q.IsElimination, &q.ImageURL, &q.TimeLimit, &q.Points, &q.CreatedAt, &q.UpdatedAt)
}

// whereClause renders the filter as explicit predicates: byCategory, byElimination, byKeyword.
func whereClause(f model.QuestionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("q.category_id = $%d", len(args)))
	}
	if f.EliminationOnly {
		conds = append(conds, "q.is_elimination")
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		args = append(args, "%"+kw+"%")
		conds = append(conds, fmt.Sprintf("(q.question_text ILIKE $%[1]d OR q.explanation_text ILIKE $%[1]d)", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// GetByID retrieves a question with its options and license mapping.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	return r.getOne(ctx, `q.id = $1`, id)
}

// GetByNumber retrieves a question by its unique sequential number.
func (r *QuestionRepository) GetByNumber(ctx context.Context, number int) (*model.Question, error) {
	return r.getOne(ctx, `q.question_number = $1`, number)
}

func (r *QuestionRepository) getOne(ctx context.Context, cond string, arg any) (*model.Question, error) {
	q := &model.Question{}
	err := scanQuestion(r.conn(ctx).QueryRow(ctx,
		`SELECT `+questionColumns+`
		 FROM questions q JOIN categories c ON c.id = q.category_id
		 WHERE `+cond, arg,
	), q)
	if err != nil {
		return nil, err
	}

	if err := r.attach(ctx, []*model.Question{q}); err != nil {
		return nil, err
	}
	return q, nil
}

// ListPaginated retrieves questions ordered by number, without options.
func (r *QuestionRepository) ListPaginated(ctx context.Context, f model.QuestionFilter, limit, offset int) ([]model.Question, int, error) {
	where, args := whereClause(f)

	// 1. Get total count
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM questions q`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// 2. Get the page
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions q JOIN categories c ON c.id = q.category_id`+where+
			fmt.Sprintf(` ORDER BY q.question_number LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions := make([]model.Question, 0, limit)
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}

// Search returns up to limit questions matching the filter, with options.
func (r *QuestionRepository) Search(ctx context.Context, f model.QuestionFilter, limit int) ([]model.Question, error) {
	where, args := whereClause(f)
	args = append(args, limit)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions q JOIN categories c ON c.id = q.category_id`+where+
			fmt.Sprintf(` ORDER BY q.question_number LIMIT $%d`, len(args)),
		args...,
	)
	if err != nil {
		return nil, err
	}
	questions, err := collectQuestions(rows)
	if err != nil {
		return nil, err
	}
	return questions, r.attachSlice(ctx, questions)
}

// ListIDs returns the ids of every question matching the filter.
func (r *QuestionRepository) ListIDs(ctx context.Context, f model.QuestionFilter) ([]int64, error) {
	where, args := whereClause(f)
	rows, err := r.conn(ctx).Query(ctx, `SELECT q.id FROM questions q`+where+` ORDER BY q.id`, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// GetMany loads the given questions with options. Missing ids are skipped.
func (r *QuestionRepository) GetMany(ctx context.Context, ids []int64) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions q JOIN categories c ON c.id = q.category_id
		 WHERE q.id = ANY($1)
		 ORDER BY q.id`, ids,
	)
	if err != nil {
		return nil, err
	}
	questions, err := collectQuestions(rows)
	if err != nil {
		return nil, err
	}
	return questions, r.attachSlice(ctx, questions)
}

func collectQuestions(rows pgx.Rows) ([]model.Question, error) {
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuestionRepository) attachSlice(ctx context.Context, questions []model.Question) error {
	ptrs := make([]*model.Question, len(questions))
	for i := range questions {
		ptrs[i] = &questions[i]
	}
	return r.attach(ctx, ptrs)
}

// attach loads answer options (ordered) and license mappings for the questions.
func (r *QuestionRepository) attach(ctx context.Context, questions []*model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	byID := make(map[int64]*model.Question, len(questions))
	ids := make([]int64, 0, len(questions))
	for _, q := range questions {
		q.AnswerOptions = []model.AnswerOption{}
		byID[q.ID] = q
		ids = append(ids, q.ID)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, question_id, option_text, is_correct, option_order
		 FROM answer_options WHERE question_id = ANY($1)
		 ORDER BY question_id, option_order`, ids,
	)
	if err != nil {
		return fmt.Errorf("load answer options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o model.AnswerOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect, &o.OptionOrder); err != nil {
			return err
		}
		if q, ok := byID[o.QuestionID]; ok {
			q.AnswerOptions = append(q.AnswerOptions, o)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	lrows, err := r.conn(ctx).Query(ctx,
		`SELECT question_id, license_type_id FROM license_questions
		 WHERE question_id = ANY($1) ORDER BY license_type_id`, ids,
	)
	if err != nil {
		return fmt.Errorf("load license mapping: %w", err)
	}
	defer lrows.Close()
	for lrows.Next() {
		var qid, lid int64
		if err := lrows.Scan(&qid, &lid); err != nil {
			return err
		}
		if q, ok := byID[qid]; ok {
			q.LicenseTypeIDs = append(q.LicenseTypeIDs, lid)
		}
	}
	return lrows.Err()
}

// Create inserts a question with its options and license mapping.
// Callers run it inside a transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO questions (question_number, category_id, question_text, explanation_text, difficulty_level,
		                        is_elimination, image_url, time_limit, points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		q.QuestionNumber, q.CategoryID, q.QuestionText, q.ExplanationText, q.DifficultyLevel,
		q.IsElimination, q.ImageURL, q.TimeLimit, q.Points,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateQuestionNumber
		}
		return err
	}
	return r.writeChildren(ctx, q)
}

// Update replaces a question's fields, options and license mapping.
// Callers run it inside a transaction.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	err := r.conn(ctx).QueryRow(ctx,
		`UPDATE questions
		 SET question_number = $1, category_id = $2, question_text = $3, explanation_text = $4,
		     difficulty_level = $5, is_elimination = $6, image_url = $7, time_limit = $8, points = $9,
		     updated_at = NOW()
		 WHERE id = $10
		 RETURNING created_at, updated_at`,
		q.QuestionNumber, q.CategoryID, q.QuestionText, q.ExplanationText, q.DifficultyLevel,
		q.IsElimination, q.ImageURL, q.TimeLimit, q.Points, q.ID,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateQuestionNumber
		}
		return err
	}

	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM answer_options WHERE question_id = $1`, q.ID); err != nil {
		return fmt.Errorf("clear answer options: %w", err)
	}
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM license_questions WHERE question_id = $1`, q.ID); err != nil {
		return fmt.Errorf("clear license mapping: %w", err)
	}
	return r.writeChildren(ctx, q)
}

func (r *QuestionRepository) writeChildren(ctx context.Context, q *model.Question) error {
	for i := range q.AnswerOptions {
		o := &q.AnswerOptions[i]
		o.QuestionID = q.ID
		if err := r.conn(ctx).QueryRow(ctx,
			`INSERT INTO answer_options (question_id, option_text, is_correct, option_order)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			q.ID, o.OptionText, o.IsCorrect, o.OptionOrder,
		).Scan(&o.ID); err != nil {
			return fmt.Errorf("insert answer option: %w", err)
		}
	}

	if len(q.LicenseTypeIDs) > 0 {
		if _, err := r.conn(ctx).Exec(ctx,
			`INSERT INTO license_questions (license_type_id, question_id)
			 SELECT UNNEST($1::bigint[]), $2
			 ON CONFLICT DO NOTHING`,
			q.LicenseTypeIDs, q.ID,
		); err != nil {
			return fmt.Errorf("insert license mapping: %w", err)
		}
	}
	return nil
}

// IsReferenced reports whether any mock exam uses the question.
func (r *QuestionRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM mock_exam_answers WHERE question_id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

// Delete removes a question. Returns pgx.ErrNoRows when it does not exist.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

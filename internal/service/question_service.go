package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/repository"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
)

const maxSearchResults = 50

// QuestionStore is the question persistence used by QuestionService.
type QuestionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Question, error)
	GetByNumber(ctx context.Context, number int) (*model.Question, error)
	ListPaginated(ctx context.Context, f model.QuestionFilter, limit, offset int) ([]model.Question, int, error)
	Search(ctx context.Context, f model.QuestionFilter, limit int) ([]model.Question, error)
	ListIDs(ctx context.Context, f model.QuestionFilter) ([]int64, error)
	GetMany(ctx context.Context, ids []int64) ([]model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	IsReferenced(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryLookup resolves a category by id.
type CategoryLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Category, error)
}

// QuestionService handles the question catalog and random sampling.
type QuestionService struct {
	questions  QuestionStore
	categories CategoryLookup
	tx         Transactor
	intn       func(n int) int
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore, categories CategoryLookup, tx Transactor) *QuestionService {
	return &QuestionService{questions: questions, categories: categories, tx: tx, intn: rand.IntN}
}

// SampleRandom draws count distinct questions uniformly without replacement
// from the filtered population, with ordered options attached.
func (s *QuestionService) SampleRandom(ctx context.Context, count int, f model.QuestionFilter) ([]model.Question, error) {
	return s.sample(ctx, count, f, false)
}

// Practice returns up to count random questions for self-study. count is
// clamped to [1,100] and to the pool size.
func (s *QuestionService) Practice(ctx context.Context, count int, f model.QuestionFilter) ([]model.Question, error) {
	return s.sample(ctx, clamp(count, 1, 100), f, true)
}

func (s *QuestionService) sample(ctx context.Context, count int, f model.QuestionFilter, allowFewer bool) ([]model.Question, error) {
	if count <= 0 {
		return nil, newError(KindValidation, "Question count must be greater than 0")
	}

	pool := "the question bank"
	if f.CategoryID != nil {
		cat, err := s.categories.GetByID(ctx, *f.CategoryID)
		if err != nil {
			if isNoRows(err) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("get category: %w", err)
		}
		pool = cat.Name
	}

	ids, err := s.questions.ListIDs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	if allowFewer && len(ids) < count {
		count = len(ids)
	}
	if len(ids) < count {
		if f.CategoryID != nil {
			return nil, newError(KindInsufficientPool,
				"Only %d questions available in category %s, requested %d", len(ids), pool, count)
		}
		return nil, newError(KindInsufficientPool,
			"Only %d questions available, requested %d", len(ids), count)
	}

	// Partial Fisher-Yates: the first count slots end up a uniform sample.
	for i := 0; i < count; i++ {
		j := i + s.intn(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	picked := ids[:count]
	if count == 0 {
		return []model.Question{}, nil
	}

	loaded, err := s.questions.GetMany(ctx, picked)
	if err != nil {
		return nil, fmt.Errorf("load sampled questions: %w", err)
	}
	byID := make(map[int64]model.Question, len(loaded))
	for _, q := range loaded {
		byID[q.ID] = q
	}
	out := make([]model.Question, 0, count)
	for _, id := range picked {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("sampled question %d disappeared", id)
		}
		out = append(out, q)
	}
	return out, nil
}

// Shuffle reorders questions in place.
func (s *QuestionService) Shuffle(questions []model.Question) {
	for i := len(questions) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

// List retrieves a page of questions matching the filter.
func (s *QuestionService) List(ctx context.Context, f model.QuestionFilter, page, perPage int) ([]model.Question, *response.Pagination, error) {
	page, perPage = paginate(page, perPage)
	if f.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *f.CategoryID); err != nil {
			if isNoRows(err) {
				return nil, nil, ErrCategoryNotFound
			}
			return nil, nil, fmt.Errorf("get category: %w", err)
		}
	}

	questions, total, err := s.questions.ListPaginated(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}

	return questions, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// GetByID retrieves a question with its options.
func (s *QuestionService) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// GetByNumber retrieves a question by its sequential number.
func (s *QuestionService) GetByNumber(ctx context.Context, number int) (*model.Question, error) {
	q, err := s.questions.GetByNumber(ctx, number)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question by number: %w", err)
	}
	return q, nil
}

// Search matches question text and explanation against a keyword.
func (s *QuestionService) Search(ctx context.Context, keyword string) ([]model.Question, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, newError(KindValidation, "Keyword is required")
	}
	questions, err := s.questions.Search(ctx, model.QuestionFilter{Keyword: keyword}, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Create validates and stores a new question.
func (s *QuestionService) Create(ctx context.Context, req *model.QuestionRequest) (*model.Question, error) {
	q, err := questionFromRequest(req)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensureCategory(ctx, q.CategoryID); err != nil {
			return err
		}
		return s.questions.Create(ctx, q)
	})
	if err != nil {
		return nil, translateQuestionErr(err, "create question")
	}
	return s.GetByID(ctx, q.ID)
}

// Update validates and replaces a question with its options.
func (s *QuestionService) Update(ctx context.Context, id int64, req *model.QuestionRequest) (*model.Question, error) {
	q, err := questionFromRequest(req)
	if err != nil {
		return nil, err
	}
	q.ID = id
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensureCategory(ctx, q.CategoryID); err != nil {
			return err
		}
		return s.questions.Update(ctx, q)
	})
	if err != nil {
		return nil, translateQuestionErr(err, "update question")
	}
	return s.GetByID(ctx, id)
}

// Delete removes a question that no mock exam references.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		used, err := s.questions.IsReferenced(ctx, id)
		if err != nil {
			return fmt.Errorf("check question usage: %w", err)
		}
		if used {
			return newError(KindConflict, "Question is used by mock exams and cannot be deleted")
		}
		if err := s.questions.Delete(ctx, id); err != nil {
			if isNoRows(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("delete question: %w", err)
		}
		return nil
	})
}

func (s *QuestionService) ensureCategory(ctx context.Context, id int64) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if isNoRows(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("get category: %w", err)
	}
	return nil
}

func translateQuestionErr(err error, op string) error {
	switch {
	case KindOf(err) != "":
		return err
	case errors.Is(err, repository.ErrDuplicateQuestionNumber):
		return newError(KindConflict, "Question number already exists")
	case isNoRows(err):
		return ErrQuestionNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// questionFromRequest enforces the option invariants: at least two options,
// exactly one correct, unique display order.
func questionFromRequest(req *model.QuestionRequest) (*model.Question, error) {
	if len(req.AnswerOptions) < 2 {
		return nil, newError(KindValidation, "A question needs at least two answer options")
	}
	correct := 0
	orders := make(map[int]bool, len(req.AnswerOptions))
	options := make([]model.AnswerOption, 0, len(req.AnswerOptions))
	for i, o := range req.AnswerOptions {
		order := o.OptionOrder
		if order == 0 {
			order = i + 1
		}
		if orders[order] {
			return nil, newError(KindValidation, "Duplicate option order %d", order)
		}
		orders[order] = true
		if o.IsCorrect {
			correct++
		}
		options = append(options, model.AnswerOption{OptionText: o.OptionText, IsCorrect: o.IsCorrect, OptionOrder: order})
	}
	if correct != 1 {
		return nil, newError(KindValidation, "Exactly one answer option must be correct, got %d", correct)
	}

	q := &model.Question{
		QuestionNumber:  req.QuestionNumber,
		CategoryID:      req.CategoryID,
		QuestionText:    req.QuestionText,
		ExplanationText: req.ExplanationText,
		DifficultyLevel: req.DifficultyLevel,
		IsElimination:   req.IsElimination,
		ImageURL:        req.ImageURL,
		TimeLimit:       req.TimeLimit,
		Points:          req.Points,
		AnswerOptions:   options,
		LicenseTypeIDs:  req.LicenseTypeIDs,
	}
	if q.DifficultyLevel == "" {
		q.DifficultyLevel = model.DifficultyMedium
	}
	if q.TimeLimit == 0 {
		q.TimeLimit = 30
	}
	if q.Points == 0 {
		q.Points = 1
	}
	return q, nil
}

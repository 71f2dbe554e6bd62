package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MockExamStore is the exam persistence used by MockExamService.
type MockExamStore interface {
	Create(ctx context.Context, e *model.MockExam) error
	CreateAnswers(ctx context.Context, examID int64, questions []model.Question) error
	GetByID(ctx context.Context, id int64) (*model.MockExam, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.MockExam, error)
	ListAnswers(ctx context.Context, examID int64) ([]model.MockExamAnswer, error)
	UpdateAnswers(ctx context.Context, answers []model.MockExamAnswer) error
	UpdateTimeSpent(ctx context.Context, id int64, seconds int) error
	MarkSubmitted(ctx context.Context, id int64) (bool, error)
	SaveResult(ctx context.Context, e *model.MockExam) error
	ListByUserAndLicense(ctx context.Context, userID uuid.UUID, licenseTypeID int64) ([]model.MockExamSummary, error)
}

// UserGetter resolves a user by id.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// QuestionSampler draws random questions from the catalog.
type QuestionSampler interface {
	SampleRandom(ctx context.Context, count int, f model.QuestionFilter) ([]model.Question, error)
	Shuffle(questions []model.Question)
}

// QuestionBatchLoader loads questions with their options.
type QuestionBatchLoader interface {
	GetMany(ctx context.Context, ids []int64) ([]model.Question, error)
}

// OutcomeRecorder receives every graded answer of a submission.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, userID uuid.UUID, questionID int64, wasCorrect bool) error
}

// SubmissionObserver is told about each exam exactly once, when it is submitted.
type SubmissionObserver interface {
	OnExamSubmitted(ctx context.Context, exam *model.MockExam) error
	RecordLeaderboard(ctx context.Context, exam *model.MockExam)
}

// MockExamService assembles, autosaves and grades mock exams.
type MockExamService struct {
	exams      MockExamStore
	users      UserGetter
	licenses   LicenseCodeLookup
	sampler    QuestionSampler
	questions  QuestionBatchLoader
	ledger     OutcomeRecorder
	stats      SubmissionObserver
	tx         Transactor
	structures *config.ExamStructures
	policy     EliminationPolicy
	now        func() time.Time
	log        zerolog.Logger
}

// MockExamDeps groups the collaborators of MockExamService.
type MockExamDeps struct {
	Exams      MockExamStore
	Users      UserGetter
	Licenses   LicenseCodeLookup
	Sampler    QuestionSampler
	Questions  QuestionBatchLoader
	Ledger     OutcomeRecorder
	Stats      SubmissionObserver
	Tx         Transactor
	Structures *config.ExamStructures
	Policy     EliminationPolicy
}

// NewMockExamService creates a new MockExamService. A nil Policy means NoElimination.
func NewMockExamService(d MockExamDeps, log zerolog.Logger) *MockExamService {
	policy := d.Policy
	if policy == nil {
		policy = NoElimination
	}
	return &MockExamService{
		exams:      d.Exams,
		users:      d.Users,
		licenses:   d.Licenses,
		sampler:    d.Sampler,
		questions:  d.Questions,
		ledger:     d.Ledger,
		stats:      d.Stats,
		tx:         d.Tx,
		structures: d.Structures,
		policy:     policy,
		now:        time.Now,
		log:        log.With().Str("component", "mock_exam_service").Logger(),
	}
}

// StartExam assembles a new exam for the user from the license's structure.
// All sampling happens before the first write; header and answer slots are
// written in one transaction.
func (s *MockExamService) StartExam(ctx context.Context, userID uuid.UUID, licenseCode string) (*model.MockExamView, error) {
	if licenseCode == "" {
		return nil, newError(KindValidation, "License type is required")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	structure, license, err := s.resolveLicense(ctx, licenseCode)
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, structure.TotalQuestions)
	for _, quota := range structure.Quotas() {
		categoryID := quota.CategoryID
		sampled, err := s.sampler.SampleRandom(ctx, quota.Count, model.QuestionFilter{CategoryID: &categoryID})
		if err != nil {
			return nil, err
		}
		questions = append(questions, sampled...)
	}
	s.sampler.Shuffle(questions)

	exam := &model.MockExam{
		UserID:              userID,
		LicenseTypeID:       license.ID,
		LicenseTypeCode:     license.Code,
		LicenseTypeName:     license.Name,
		TotalQuestions:      len(questions),
		PassingScore:        structure.PassingScore,
		RequiredElimination: license.RequiredElimination,
		TimeLimit:           license.TimeLimit,
		StartedAt:           s.now(),
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.exams.Create(ctx, exam); err != nil {
			return fmt.Errorf("create mock exam: %w", err)
		}
		if err := s.exams.CreateAnswers(ctx, exam.ID, questions); err != nil {
			return fmt.Errorf("create mock exam answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("exam_id", exam.ID).
		Str("user_id", userID.String()).
		Str("license", license.Code).
		Int("questions", len(questions)).
		Msg("Mock exam started")
	return s.GetExam(ctx, exam.ID)
}

// resolveLicense requires the code to exist in both the exam structures and
// storage. Presence in only one of them is a configuration error.
func (s *MockExamService) resolveLicense(ctx context.Context, code string) (config.ExamStructure, *model.LicenseType, error) {
	structure, configured := s.structures.Lookup(code)
	license, err := s.licenses.GetByCode(ctx, code)
	stored := err == nil
	if err != nil && !isNoRows(err) {
		return config.ExamStructure{}, nil, fmt.Errorf("get license type: %w", err)
	}

	switch {
	case !configured && !stored:
		return config.ExamStructure{}, nil, newError(KindNotFound, "License type %s not found", code)
	case !configured:
		return config.ExamStructure{}, nil, newError(KindConfiguration, "No exam structure configured for license type %s", code)
	case !stored:
		return config.ExamStructure{}, nil, newError(KindConfiguration, "License type %s is configured but missing from storage", code)
	}
	return structure, license, nil
}

// GetExam returns the nested exam view.
func (s *MockExamService) GetExam(ctx context.Context, examID int64) (*model.MockExamView, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get mock exam: %w", err)
	}
	answers, err := s.exams.ListAnswers(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list mock exam answers: %w", err)
	}
	return s.buildView(ctx, exam, answers)
}

// buildView projects an exam for clients. An option carries isCorrect only
// after submission and only for the option the user selected.
func (s *MockExamService) buildView(ctx context.Context, exam *model.MockExam, answers []model.MockExamAnswer) (*model.MockExamView, error) {
	byID, err := s.loadQuestions(ctx, answers)
	if err != nil {
		return nil, err
	}

	view := &model.MockExamView{MockExam: *exam, Questions: make([]model.MockExamQuestionView, 0, len(answers))}
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %d of exam %d is missing", a.QuestionID, exam.ID)
		}
		qv := model.MockExamQuestionView{
			QuestionID:       q.ID,
			QuestionNumber:   q.QuestionNumber,
			QuestionText:     q.QuestionText,
			ImageURL:         q.ImageURL,
			IsElimination:    q.IsElimination,
			CategoryID:       q.CategoryID,
			CategoryName:     q.CategoryName,
			AnswerOptions:    make([]model.AnswerOptionView, 0, len(q.AnswerOptions)),
			SelectedOptionID: a.SelectedOptionID,
			IsCorrect:        exam.IsSubmitted && a.IsCorrect,
		}
		for _, o := range q.AnswerOptions {
			selected := a.SelectedOptionID != nil && *a.SelectedOptionID == o.ID
			qv.AnswerOptions = append(qv.AnswerOptions, model.AnswerOptionView{
				OptionID:   o.ID,
				OptionText: o.OptionText,
				IsCorrect:  exam.IsSubmitted && selected && a.IsCorrect,
			})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view, nil
}

func (s *MockExamService) loadQuestions(ctx context.Context, answers []model.MockExamAnswer) (map[int64]model.Question, error) {
	ids := make([]int64, len(answers))
	for i, a := range answers {
		ids[i] = a.QuestionID
	}
	questions, err := s.questions.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load exam questions: %w", err)
	}
	byID := make(map[int64]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return byID, nil
}

// SubmitExam grades the exam exactly once. Answers in req override stored
// selections for their questions; an empty batch grades what was autosaved.
// A nil TimeSpent keeps the elapsed time last saved on the exam.
func (s *MockExamService) SubmitExam(ctx context.Context, examID int64, userID uuid.UUID, req *model.SubmitExamRequest) (*model.MockExamView, error) {
	if req.ExamID != examID {
		return nil, ErrExamIDMismatch
	}
	if req.TimeSpent != nil && *req.TimeSpent < 0 {
		return nil, newError(KindValidation, "Time spent must not be negative")
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get mock exam: %w", err)
	}
	if exam.UserID != userID {
		return nil, ErrNotExamOwner
	}
	if exam.IsSubmitted {
		return nil, ErrExamAlreadySubmitted
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.exams.GetByIDForUpdate(ctx, examID)
		if err != nil {
			if isNoRows(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("lock mock exam: %w", err)
		}
		if locked.IsSubmitted {
			return ErrExamAlreadySubmitted
		}
		exam = locked

		won, err := s.exams.MarkSubmitted(ctx, examID)
		if err != nil {
			return fmt.Errorf("mark mock exam submitted: %w", err)
		}
		if !won {
			return ErrExamAlreadySubmitted
		}

		answers, err := s.exams.ListAnswers(ctx, examID)
		if err != nil {
			return fmt.Errorf("list mock exam answers: %w", err)
		}
		questions, err := s.loadQuestions(ctx, answers)
		if err != nil {
			return err
		}

		now := s.now()
		if err := applySelections(answers, req.Answers, questions, now); err != nil {
			return err
		}
		for i := range answers {
			answers[i].IsCorrect = isCorrectChoice(questions[answers[i].QuestionID], answers[i].SelectedOptionID)
		}
		if err := s.exams.UpdateAnswers(ctx, answers); err != nil {
			return fmt.Errorf("save graded answers: %w", err)
		}

		// Only answered slots and rows present in the batch reach the ledger;
		// skipped questions still count as wrong in the tally below.
		// Ledger rows are locked in question id order across all submitters.
		ordered := submittedAnswers(answers, req.Answers)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].QuestionID < ordered[j].QuestionID })
		for _, a := range ordered {
			if err := s.ledger.RecordOutcome(ctx, exam.UserID, a.QuestionID, a.IsCorrect); err != nil {
				return err
			}
		}

		grade(exam, answers, s.policy)
		exam.IsSubmitted = true
		exam.CompletedAt = &now
		if req.TimeSpent != nil {
			exam.TimeSpent = *req.TimeSpent
		}
		if err := s.exams.SaveResult(ctx, exam); err != nil {
			return fmt.Errorf("save mock exam result: %w", err)
		}
		return s.stats.OnExamSubmitted(ctx, exam)
	})
	if err != nil {
		return nil, err
	}

	s.stats.RecordLeaderboard(ctx, exam)
	s.log.Info().
		Int64("exam_id", exam.ID).
		Str("user_id", exam.UserID.String()).
		Int("score", exam.Score).
		Str("status", string(exam.PassStatus)).
		Msg("Mock exam submitted")
	return s.GetExam(ctx, examID)
}

// submittedAnswers returns the slots the user actually answered, either by an
// autosaved or final selection or by listing the question in the batch.
func submittedAnswers(answers []model.MockExamAnswer, batch []model.SubmittedAnswer) []model.MockExamAnswer {
	inBatch := make(map[int64]bool, len(batch))
	for _, sa := range batch {
		inBatch[sa.QuestionID] = true
	}
	out := make([]model.MockExamAnswer, 0, len(answers))
	for _, a := range answers {
		if a.SelectedOptionID != nil || inBatch[a.QuestionID] {
			out = append(out, a)
		}
	}
	return out
}

// grade tallies every answer slot; unanswered slots count as wrong.
func grade(exam *model.MockExam, answers []model.MockExamAnswer, policy EliminationPolicy) {
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	exam.CorrectAnswers = correct
	exam.WrongAnswers = len(answers) - correct
	exam.Score = correct
	exam.PassStatus = model.PassStatusFailed
	if correct >= exam.PassingScore {
		exam.PassStatus = model.PassStatusPassed
	}

	if status, overridden := policy(exam, answers); overridden {
		exam.PassStatus = status
		exam.FailedElimination = status == model.PassStatusFailed
	}
}

// applySelections copies submitted choices onto the exam's slots. Every
// question must belong to the exam and every option to its question.
func applySelections(answers []model.MockExamAnswer, submitted []model.SubmittedAnswer, questions map[int64]model.Question, now time.Time) error {
	if len(submitted) == 0 {
		return nil
	}
	slot := make(map[int64]int, len(answers))
	for i, a := range answers {
		slot[a.QuestionID] = i
	}
	for _, sa := range submitted {
		i, ok := slot[sa.QuestionID]
		if !ok {
			return newError(KindValidation, "Question %d is not part of this exam", sa.QuestionID)
		}
		if sa.SelectedOptionID != nil && !hasOption(questions[sa.QuestionID], *sa.SelectedOptionID) {
			return newError(KindValidation, "Option %d does not belong to question %d", *sa.SelectedOptionID, sa.QuestionID)
		}
		answers[i].SelectedOptionID = sa.SelectedOptionID
		answers[i].AnsweredAt = nil
		if sa.SelectedOptionID != nil {
			t := now
			answers[i].AnsweredAt = &t
		}
	}
	return nil
}

func hasOption(q model.Question, optionID int64) bool {
	for _, o := range q.AnswerOptions {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

func isCorrectChoice(q model.Question, selected *int64) bool {
	if selected == nil {
		return false
	}
	correct := q.CorrectOption()
	return correct != nil && correct.ID == *selected
}

// UpdateExam autosaves time spent and selections on the owner's unsubmitted exam.
func (s *MockExamService) UpdateExam(ctx context.Context, examID int64, userID uuid.UUID, req *model.UpdateExamRequest) (*model.MockExamView, error) {
	if req.TimeSpent != nil && *req.TimeSpent < 0 {
		return nil, newError(KindValidation, "Time spent must not be negative")
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		exam, err := s.exams.GetByIDForUpdate(ctx, examID)
		if err != nil {
			if isNoRows(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("lock mock exam: %w", err)
		}
		if exam.UserID != userID {
			return ErrNotExamOwner
		}
		if exam.IsSubmitted {
			return ErrExamLocked
		}

		if req.TimeSpent != nil {
			if err := s.exams.UpdateTimeSpent(ctx, examID, *req.TimeSpent); err != nil {
				return fmt.Errorf("update time spent: %w", err)
			}
		}
		if len(req.Answers) == 0 {
			return nil
		}

		answers, err := s.exams.ListAnswers(ctx, examID)
		if err != nil {
			return fmt.Errorf("list mock exam answers: %w", err)
		}
		questions, err := s.loadQuestions(ctx, answers)
		if err != nil {
			return err
		}
		if err := applySelections(answers, req.Answers, questions, s.now()); err != nil {
			return err
		}

		touched := make(map[int64]bool, len(req.Answers))
		for _, sa := range req.Answers {
			touched[sa.QuestionID] = true
		}
		changed := make([]model.MockExamAnswer, 0, len(touched))
		for _, a := range answers {
			if touched[a.QuestionID] {
				a.IsCorrect = isCorrectChoice(questions[a.QuestionID], a.SelectedOptionID)
				changed = append(changed, a)
			}
		}
		if err := s.exams.UpdateAnswers(ctx, changed); err != nil {
			return fmt.Errorf("save answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetExam(ctx, examID)
}

// ListByUserAndLicense returns the user's exams for one license, newest
// first. No exams is an empty list, not an error.
func (s *MockExamService) ListByUserAndLicense(ctx context.Context, userID uuid.UUID, licenseTypeID int64) ([]model.MockExamSummary, error) {
	list, err := s.exams.ListByUserAndLicense(ctx, userID, licenseTypeID)
	if err != nil {
		return nil, fmt.Errorf("list mock exams: %w", err)
	}
	if list == nil {
		list = []model.MockExamSummary{}
	}
	return list, nil
}

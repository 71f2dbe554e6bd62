package service

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type harness struct {
	db          *memDB
	questions   *QuestionService
	ledger      *WrongQuestionService
	stats       *StatisticService
	exams       *MockExamService
	leaderboard *fakeLeaderboard
	user        uuid.UUID
	other       uuid.UUID
}

// newHarness seeds three categories (12, 6 and 3 questions) and license
// types B1 (10+5, pass 12), C (needs 5 from the 3-question category),
// A1 (configured only) and X (stored only).
func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB()
	log := zerolog.New(io.Discard)

	for catID, n := range map[int64]int{1: 12, 2: 6, 3: 3} {
		db.categories[catID] = &model.Category{ID: catID, Name: fmt.Sprintf("Category %d", catID), QuestionCount: n}
		for i := 1; i <= n; i++ {
			id := catID*100 + int64(i)
			db.questions[id] = seedQuestion(id, catID)
		}
	}

	db.licenses["B1"] = &model.LicenseType{ID: 1, Code: "B1", Name: "Hạng B1", TotalQuestions: 15, TimeLimit: 22, PassingScore: 12}
	db.licenses["C"] = &model.LicenseType{ID: 2, Code: "C", Name: "Hạng C", TotalQuestions: 5, TimeLimit: 10, PassingScore: 4}
	db.licenses["X"] = &model.LicenseType{ID: 3, Code: "X", Name: "Stored only", TotalQuestions: 1, TimeLimit: 5, PassingScore: 1}

	structures, err := config.NewExamStructures([]config.ExamStructure{
		{LicenseType: "B1", TotalQuestions: 15, PassingScore: 12, Structure: map[int64]int{1: 10, 2: 5}},
		{LicenseType: "C", TotalQuestions: 5, PassingScore: 4, Structure: map[int64]int{3: 5}},
		{LicenseType: "A1", TotalQuestions: 2, PassingScore: 2, Structure: map[int64]int{1: 2}},
	})
	if err != nil {
		t.Fatalf("NewExamStructures: %v", err)
	}

	h := &harness{db: db, leaderboard: newFakeLeaderboard(), user: uuid.New(), other: uuid.New()}
	db.users[h.user] = &model.User{ID: h.user, Username: "learner", Email: "learner@example.com", EmailConfirmed: true}
	db.users[h.other] = &model.User{ID: h.other, Username: "other", Email: "other@example.com", EmailConfirmed: true}

	tx := fakeTx{db: db}
	h.questions = NewQuestionService(fakeQuestions{db}, fakeCategories{db}, tx)
	h.ledger = NewWrongQuestionService(fakeLedger{db}, fakeLicenses{db})
	h.ledger.now = func() time.Time { return testNow }
	h.stats = NewStatisticService(fakeStats{db}, h.leaderboard, fakeUsers{db}, fakeLicenses{db}, log)
	h.stats.now = func() time.Time { return testNow }
	h.exams = NewMockExamService(MockExamDeps{
		Exams:      fakeExams{db},
		Users:      fakeUsers{db},
		Licenses:   fakeLicenses{db},
		Sampler:    h.questions,
		Questions:  fakeQuestions{db},
		Ledger:     h.ledger,
		Stats:      h.stats,
		Tx:         tx,
		Structures: structures,
	}, log)
	h.exams.now = func() time.Time { return testNow }
	return h
}

func seedQuestion(id, categoryID int64) model.Question {
	q := model.Question{
		ID:             id,
		QuestionNumber: int(id),
		CategoryID:     categoryID,
		CategoryName:   fmt.Sprintf("Category %d", categoryID),
		QuestionText:   fmt.Sprintf("Question %d", id),
		IsElimination:  id%5 == 0,
		Points:         1,
		LicenseTypeIDs: []int64{1},
	}
	correct := id%4 + 1
	for k := int64(1); k <= 4; k++ {
		q.AnswerOptions = append(q.AnswerOptions, model.AnswerOption{
			ID:          id*10 + k,
			QuestionID:  id,
			OptionText:  fmt.Sprintf("Option %d", k),
			IsCorrect:   k == correct,
			OptionOrder: int(k),
		})
	}
	return q
}

func correctOptionID(questionID int64) int64 {
	return questionID*10 + questionID%4 + 1
}

func wrongOptionID(questionID int64) int64 {
	return questionID*10 + (questionID+1)%4 + 1
}

// answerBatch answers the first nCorrect questions correctly and the rest wrongly.
func answerBatch(view *model.MockExamView, nCorrect int) []model.SubmittedAnswer {
	out := make([]model.SubmittedAnswer, 0, len(view.Questions))
	for i, q := range view.Questions {
		opt := wrongOptionID(q.QuestionID)
		if i < nCorrect {
			opt = correctOptionID(q.QuestionID)
		}
		out = append(out, model.SubmittedAnswer{QuestionID: q.QuestionID, SelectedOptionID: &opt})
	}
	return out
}

func (h *harness) examCount() int {
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return len(h.db.exams)
}

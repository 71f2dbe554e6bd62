package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memDB is an in-memory stand-in for Postgres. Transactions are serialized
// and roll back by restoring a snapshot.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users      map[uuid.UUID]*model.User
	licenses   map[string]*model.LicenseType
	categories map[int64]*model.Category
	questions  map[int64]model.Question

	exams        map[int64]*model.MockExam
	answers      map[int64][]model.MockExamAnswer
	nextExamID   int64
	nextAnswerID int64

	ledger       map[ledgerKey]*model.UserWrongQuestion
	nextLedgerID int64

	stats      map[uuid.UUID]*model.UserStatistic
	nextStatID int64

	failCreateAnswers error
}

type ledgerKey struct {
	user     uuid.UUID
	question int64
}

func newMemDB() *memDB {
	return &memDB{
		users:      map[uuid.UUID]*model.User{},
		licenses:   map[string]*model.LicenseType{},
		categories: map[int64]*model.Category{},
		questions:  map[int64]model.Question{},
		exams:      map[int64]*model.MockExam{},
		answers:    map[int64][]model.MockExamAnswer{},
		ledger:     map[ledgerKey]*model.UserWrongQuestion{},
		stats:      map[uuid.UUID]*model.UserStatistic{},
	}
}

type snapshot struct {
	exams        map[int64]model.MockExam
	answers      map[int64][]model.MockExamAnswer
	ledger       map[ledgerKey]model.UserWrongQuestion
	stats        map[uuid.UUID]model.UserStatistic
	nextExamID   int64
	nextAnswerID int64
	nextLedgerID int64
	nextStatID   int64
}

func (db *memDB) snapshot() snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := snapshot{
		exams:        map[int64]model.MockExam{},
		answers:      map[int64][]model.MockExamAnswer{},
		ledger:       map[ledgerKey]model.UserWrongQuestion{},
		stats:        map[uuid.UUID]model.UserStatistic{},
		nextExamID:   db.nextExamID,
		nextAnswerID: db.nextAnswerID,
		nextLedgerID: db.nextLedgerID,
		nextStatID:   db.nextStatID,
	}
	for k, v := range db.exams {
		s.exams[k] = *v
	}
	for k, v := range db.answers {
		s.answers[k] = append([]model.MockExamAnswer(nil), v...)
	}
	for k, v := range db.ledger {
		s.ledger[k] = *v
	}
	for k, v := range db.stats {
		s.stats[k] = *v
	}
	return s
}

func (db *memDB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.exams = map[int64]*model.MockExam{}
	for k, v := range s.exams {
		e := v
		db.exams[k] = &e
	}
	db.answers = s.answers
	db.ledger = map[ledgerKey]*model.UserWrongQuestion{}
	for k, v := range s.ledger {
		w := v
		db.ledger[k] = &w
	}
	db.stats = map[uuid.UUID]*model.UserStatistic{}
	for k, v := range s.stats {
		st := v
		db.stats[k] = &st
	}
	db.nextExamID, db.nextAnswerID = s.nextExamID, s.nextAnswerID
	db.nextLedgerID, db.nextStatID = s.nextLedgerID, s.nextStatID
}

// ─── Transactor ────────────────────────────────────────────────────────────

type txKey struct{}

type fakeTx struct{ db *memDB }

func (t fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

// ─── Users ─────────────────────────────────────────────────────────────────

type fakeUsers struct{ db *memDB }

func (f fakeUsers) Create(_ context.Context, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicateUser
		}
	}
	c := *u
	f.db.users[u.ID] = &c
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) find(match func(*model.User) bool) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return strings.EqualFold(u.Username, username) })
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f fakeUsers) ConfirmEmail(_ context.Context, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.EmailConfirmed = true
	return nil
}

func (f fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

func (f fakeUsers) UsernamesByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := map[uuid.UUID]string{}
	for _, id := range ids {
		if u, ok := f.db.users[id]; ok {
			out[id] = u.Username
		}
	}
	return out, nil
}

// ─── Reference data ────────────────────────────────────────────────────────

type fakeLicenses struct{ db *memDB }

func (f fakeLicenses) List(context.Context) ([]model.LicenseType, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.LicenseType{}
	for _, l := range f.db.licenses {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f fakeLicenses) GetByID(_ context.Context, id int64) (*model.LicenseType, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, l := range f.db.licenses {
		if l.ID == id {
			c := *l
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeLicenses) GetByCode(_ context.Context, code string) (*model.LicenseType, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	l, ok := f.db.licenses[strings.ToUpper(code)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *l
	return &c, nil
}

type fakeCategories struct{ db *memDB }

func (f fakeCategories) List(context.Context) ([]model.Category, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.Category{}
	for _, c := range f.db.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeCategories) GetByID(_ context.Context, id int64) (*model.Category, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

// ─── Questions ─────────────────────────────────────────────────────────────

type fakeQuestions struct{ db *memDB }

func (f fakeQuestions) matches(q model.Question, flt model.QuestionFilter) bool {
	if flt.CategoryID != nil && q.CategoryID != *flt.CategoryID {
		return false
	}
	if flt.EliminationOnly && !q.IsElimination {
		return false
	}
	if flt.Keyword != "" && !strings.Contains(strings.ToLower(q.QuestionText), strings.ToLower(flt.Keyword)) {
		return false
	}
	return true
}

func (f fakeQuestions) sorted(flt model.QuestionFilter) []model.Question {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Question
	for _, q := range f.db.questions {
		if f.matches(q, flt) {
			out = append(out, cloneQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneQuestion(q model.Question) model.Question {
	q.AnswerOptions = append([]model.AnswerOption(nil), q.AnswerOptions...)
	return q
}

func (f fakeQuestions) GetByID(_ context.Context, id int64) (*model.Question, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	q, ok := f.db.questions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := cloneQuestion(q)
	return &c, nil
}

func (f fakeQuestions) GetByNumber(_ context.Context, number int) (*model.Question, error) {
	for _, q := range f.sorted(model.QuestionFilter{}) {
		if q.QuestionNumber == number {
			return &q, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeQuestions) ListPaginated(_ context.Context, flt model.QuestionFilter, limit, offset int) ([]model.Question, int, error) {
	all := f.sorted(flt)
	if offset >= len(all) {
		return []model.Question{}, len(all), nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], len(all), nil
}

func (f fakeQuestions) Search(_ context.Context, flt model.QuestionFilter, limit int) ([]model.Question, error) {
	all := f.sorted(flt)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f fakeQuestions) ListIDs(_ context.Context, flt model.QuestionFilter) ([]int64, error) {
	var ids []int64
	for _, q := range f.sorted(flt) {
		ids = append(ids, q.ID)
	}
	return ids, nil
}

func (f fakeQuestions) GetMany(_ context.Context, ids []int64) ([]model.Question, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Question
	for _, id := range ids {
		if q, ok := f.db.questions[id]; ok {
			out = append(out, cloneQuestion(q))
		}
	}
	return out, nil
}

func (f fakeQuestions) Create(_ context.Context, q *model.Question) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.questions {
		if existing.QuestionNumber == q.QuestionNumber {
			return repository.ErrDuplicateQuestionNumber
		}
	}
	q.ID = int64(len(f.db.questions) + 10000)
	for i := range q.AnswerOptions {
		q.AnswerOptions[i].ID = q.ID*10 + int64(i) + 1
		q.AnswerOptions[i].QuestionID = q.ID
	}
	f.db.questions[q.ID] = cloneQuestion(*q)
	return nil
}

func (f fakeQuestions) Update(_ context.Context, q *model.Question) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.questions[q.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.db.questions[q.ID] = cloneQuestion(*q)
	return nil
}

func (f fakeQuestions) IsReferenced(_ context.Context, id int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, rows := range f.db.answers {
		for _, a := range rows {
			if a.QuestionID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f fakeQuestions) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.questions[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.db.questions, id)
	return nil
}

// ─── Mock exams ────────────────────────────────────────────────────────────

type fakeExams struct{ db *memDB }

func (f fakeExams) Create(_ context.Context, e *model.MockExam) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.nextExamID++
	e.ID = f.db.nextExamID
	e.PassStatus = model.PassStatusInProgress
	e.CreatedAt, e.UpdatedAt = e.StartedAt, e.StartedAt
	c := *e
	f.db.exams[e.ID] = &c
	return nil
}

func (f fakeExams) CreateAnswers(_ context.Context, examID int64, questions []model.Question) error {
	if f.db.failCreateAnswers != nil {
		return f.db.failCreateAnswers
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, q := range questions {
		f.db.nextAnswerID++
		f.db.answers[examID] = append(f.db.answers[examID], model.MockExamAnswer{
			ID:            f.db.nextAnswerID,
			ExamID:        examID,
			QuestionID:    q.ID,
			IsElimination: q.IsElimination,
		})
	}
	return nil
}

func (f fakeExams) GetByID(_ context.Context, id int64) (*model.MockExam, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *e
	return &c, nil
}

func (f fakeExams) GetByIDForUpdate(ctx context.Context, id int64) (*model.MockExam, error) {
	return f.GetByID(ctx, id)
}

func (f fakeExams) ListAnswers(_ context.Context, examID int64) ([]model.MockExamAnswer, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return append([]model.MockExamAnswer{}, f.db.answers[examID]...), nil
}

func (f fakeExams) UpdateAnswers(_ context.Context, answers []model.MockExamAnswer) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, a := range answers {
		rows := f.db.answers[a.ExamID]
		for i := range rows {
			if rows[i].ID == a.ID {
				rows[i].SelectedOptionID = a.SelectedOptionID
				rows[i].IsCorrect = a.IsCorrect
				rows[i].AnsweredAt = a.AnsweredAt
			}
		}
	}
	return nil
}

func (f fakeExams) UpdateTimeSpent(_ context.Context, id int64, seconds int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if e, ok := f.db.exams[id]; ok && !e.IsSubmitted {
		e.TimeSpent = seconds
	}
	return nil
}

func (f fakeExams) MarkSubmitted(_ context.Context, id int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.exams[id]
	if !ok || e.IsSubmitted {
		return false, nil
	}
	e.IsSubmitted = true
	return true, nil
}

func (f fakeExams) SaveResult(_ context.Context, e *model.MockExam) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	stored, ok := f.db.exams[e.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.CorrectAnswers = e.CorrectAnswers
	stored.WrongAnswers = e.WrongAnswers
	stored.Score = e.Score
	stored.FailedElimination = e.FailedElimination
	stored.PassStatus = e.PassStatus
	stored.TimeSpent = e.TimeSpent
	stored.CompletedAt = e.CompletedAt
	return nil
}

func (f fakeExams) ListByUserAndLicense(_ context.Context, userID uuid.UUID, licenseTypeID int64) ([]model.MockExamSummary, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.MockExamSummary
	for _, e := range f.db.exams {
		if e.UserID == userID && e.LicenseTypeID == licenseTypeID {
			out = append(out, model.MockExamSummary{ExamID: e.ID, LicenseTypeID: e.LicenseTypeID, Score: e.Score,
				PassStatus: e.PassStatus, IsSubmitted: e.IsSubmitted, StartedAt: e.StartedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExamID > out[j].ExamID })
	return out, nil
}

// ─── Ledger ────────────────────────────────────────────────────────────────

type fakeLedger struct{ db *memDB }

func (f fakeLedger) GetForUpdate(_ context.Context, userID uuid.UUID, questionID int64) (*model.UserWrongQuestion, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	w, ok := f.db.ledger[ledgerKey{userID, questionID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *w
	return &c, nil
}

func (f fakeLedger) Create(_ context.Context, w *model.UserWrongQuestion) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	key := ledgerKey{w.UserID, w.QuestionID}
	if _, ok := f.db.ledger[key]; ok {
		return pgx.ErrNoRows
	}
	f.db.nextLedgerID++
	w.ID = f.db.nextLedgerID
	c := *w
	f.db.ledger[key] = &c
	return nil
}

func (f fakeLedger) Update(_ context.Context, w *model.UserWrongQuestion) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for k, existing := range f.db.ledger {
		if existing.ID == w.ID {
			c := *w
			f.db.ledger[k] = &c
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f fakeLedger) MarkFixed(_ context.Context, id int64, userID uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, w := range f.db.ledger {
		if w.ID == id && w.UserID == userID {
			w.IsFixed = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f fakeLedger) ListByUser(_ context.Context, userID uuid.UUID, licenseTypeID *int64) ([]model.WrongQuestionView, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.WrongQuestionView
	for _, w := range f.db.ledger {
		if w.UserID != userID {
			continue
		}
		q := f.db.questions[w.QuestionID]
		if licenseTypeID != nil && !containsID(q.LicenseTypeIDs, *licenseTypeID) {
			continue
		}
		out = append(out, model.WrongQuestionView{UserWrongQuestion: *w, QuestionText: q.QuestionText})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastWrongAt.After(out[j].LastWrongAt) })
	return out, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ─── Statistics ────────────────────────────────────────────────────────────

type fakeStats struct{ db *memDB }

func (f fakeStats) GetByUser(_ context.Context, userID uuid.UUID) (*model.UserStatistic, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.stats[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *s
	return &c, nil
}

func (f fakeStats) GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.UserStatistic, error) {
	return f.GetByUser(ctx, userID)
}

func (f fakeStats) Create(_ context.Context, userID uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.stats[userID]; ok {
		return pgx.ErrNoRows
	}
	f.db.nextStatID++
	f.db.stats[userID] = &model.UserStatistic{ID: f.db.nextStatID, UserID: userID}
	return nil
}

func (f fakeStats) Update(_ context.Context, s *model.UserStatistic) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c := *s
	f.db.stats[s.UserID] = &c
	return nil
}

// ─── Redis-backed collaborators ────────────────────────────────────────────

type fakeLeaderboard struct {
	mu     sync.Mutex
	scores map[string]map[uuid.UUID]int
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{scores: map[string]map[uuid.UUID]int{}}
}

func (f *fakeLeaderboard) RecordBest(_ context.Context, code string, userID uuid.UUID, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scores[code] == nil {
		f.scores[code] = map[uuid.UUID]int{}
	}
	if old, ok := f.scores[code][userID]; !ok || score > old {
		f.scores[code][userID] = score
	}
	return nil
}

func (f *fakeLeaderboard) Top(_ context.Context, code string, limit int64) ([]repository.ScoreEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.ScoreEntry
	for id, score := range f.scores[code] {
		out = append(out, repository.ScoreEntry{UserID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = int64(i) + 1
	}
	return out, nil
}

func (f *fakeLeaderboard) Position(ctx context.Context, code string, userID uuid.UUID) (*repository.ScoreEntry, error) {
	all, _ := f.Top(ctx, code, int64(len(f.scores[code])))
	for _, e := range all {
		if e.UserID == userID {
			return &e, nil
		}
	}
	return nil, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]string
	used     map[string]bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[uuid.UUID]string{}, used: map[string]bool{}}
}

func (f *fakeSessions) Save(_ context.Context, userID uuid.UUID, jti string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[userID] = jti
	return nil
}

func (f *fakeSessions) Get(_ context.Context, userID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	jti, ok := f.sessions[userID]
	if !ok {
		return "", repository.ErrNoSession
	}
	return jti, nil
}

func (f *fakeSessions) Delete(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, userID)
	return nil
}

func (f *fakeSessions) ConsumeToken(_ context.Context, jti string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.used[jti] {
		return false, nil
	}
	f.used[jti] = true
	return true, nil
}

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (f *fakeNotifier) record(kind string, u *model.User, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("queue down")
	}
	f.sent = append(f.sent, sentMail{kind: kind, to: u.Email, token: token})
	return nil
}

func (f *fakeNotifier) SendConfirmation(_ context.Context, u *model.User, token string) error {
	return f.record("confirm", u, token)
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, u *model.User, token string) error {
	return f.record("reset", u, token)
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/anhnhh24/DriverLicenseTest/internal/middleware"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/service"
	"github.com/anhnhh24/DriverLicenseTest/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	testUser  = uuid.MustParse("7d9a3c1e-5b2f-4e6a-9c8d-1f2e3a4b5c6d")
	otherUser = uuid.MustParse("0b1c2d3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e")
	nopLog    = zerolog.New(io.Discard)
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

// ─── Stubs ─────────────────────────────────────────────────────────

type stubExams struct {
	view    *model.MockExamView
	list    []model.MockExamSummary
	err     error
	calls   []string
	code    string
	userID  uuid.UUID
	submit  *model.SubmitExamRequest
	update  *model.UpdateExamRequest
	license int64
}

func (s *stubExams) StartExam(_ context.Context, userID uuid.UUID, code string) (*model.MockExamView, error) {
	s.calls = append(s.calls, "start")
	s.userID, s.code = userID, code
	return s.view, s.err
}

func (s *stubExams) GetExam(context.Context, int64) (*model.MockExamView, error) {
	s.calls = append(s.calls, "get")
	return s.view, s.err
}

func (s *stubExams) SubmitExam(_ context.Context, _ int64, userID uuid.UUID, req *model.SubmitExamRequest) (*model.MockExamView, error) {
	s.calls = append(s.calls, "submit")
	s.userID, s.submit = userID, req
	return s.view, s.err
}

func (s *stubExams) UpdateExam(_ context.Context, _ int64, userID uuid.UUID, req *model.UpdateExamRequest) (*model.MockExamView, error) {
	s.calls = append(s.calls, "update")
	s.userID, s.update = userID, req
	return s.view, s.err
}

func (s *stubExams) ListByUserAndLicense(_ context.Context, userID uuid.UUID, licenseTypeID int64) ([]model.MockExamSummary, error) {
	s.calls = append(s.calls, "list")
	s.userID, s.license = userID, licenseTypeID
	return s.list, s.err
}

type stubLicenses map[string]int64

func (s stubLicenses) GetByCode(_ context.Context, code string) (*model.LicenseType, error) {
	id, ok := s[code]
	if !ok {
		return nil, service.ErrLicenseTypeNotFound
	}
	return &model.LicenseType{ID: id, Code: code}, nil
}

// ─── Helpers ───────────────────────────────────────────────────────

// asUser stands in for the JWT middleware.
func asUser(id uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != uuid.Nil {
			c.Set(middleware.ContextKeyUserID, id)
		}
		c.Next()
	}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields"`
}

func do(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, target, err, w.Body.String())
	}
	return w, env
}

func examRouter(exams *stubExams, licenses stubLicenses, user uuid.UUID) *gin.Engine {
	h := NewMockExamHandler(exams, licenses, nopLog)
	r := gin.New()
	g := r.Group("/mockexams", asUser(user))
	g.POST("/start", h.StartExam)
	g.GET("/byuser", h.ListByUser)
	g.PUT("/update/:examId", h.UpdateExam)
	g.GET("/:examId", h.GetExam)
	g.POST("/:examId/submit", h.SubmitExam)
	return r
}

func sampleView() *model.MockExamView {
	return &model.MockExamView{MockExam: model.MockExam{
		ID: 42, UserID: testUser, TotalQuestions: 25, PassStatus: model.PassStatusInProgress,
	}}
}

// ─── Mock exam handler ─────────────────────────────────────────────

func TestStartExamUsesTokenSubject(t *testing.T) {
	exams := &stubExams{view: sampleView()}
	r := examRouter(exams, nil, testUser)

	w, env := do(t, r, http.MethodPost, "/mockexams/start?licenseType=B1", "")
	if w.Code != http.StatusCreated || !env.Success {
		t.Fatalf("status %d, env %+v", w.Code, env)
	}
	if exams.userID != testUser || exams.code != "B1" {
		t.Fatalf("service called with user %s code %q", exams.userID, exams.code)
	}
	var view model.MockExamView
	if err := json.Unmarshal(env.Data, &view); err != nil || view.ID != 42 {
		t.Fatalf("unexpected data %s (%v)", env.Data, err)
	}
}

func TestStartExamValidatesLicenseType(t *testing.T) {
	for _, target := range []string{"/mockexams/start", "/mockexams/start?licenseType=B-1"} {
		exams := &stubExams{view: sampleView()}
		w, env := do(t, examRouter(exams, nil, testUser), http.MethodPost, target, "")
		if w.Code != http.StatusBadRequest || env.Code != "VALIDATION_FAILED" {
			t.Fatalf("%s: status %d code %s", target, w.Code, env.Code)
		}
		if env.Fields["licenseType"] == "" {
			t.Fatalf("%s: missing field message: %+v", target, env.Fields)
		}
		if len(exams.calls) != 0 {
			t.Fatalf("%s: service must not be called", target)
		}
	}
}

func TestLegacyUserIDQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
	}{
		{"matching", "&userId=" + testUser.String(), http.StatusCreated},
		{"someone else", "&userId=" + otherUser.String(), http.StatusUnauthorized},
		{"malformed", "&userId=42", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exams := &stubExams{view: sampleView()}
			w, _ := do(t, examRouter(exams, nil, testUser), http.MethodPost, "/mockexams/start?licenseType=B1"+tt.query, "")
			if w.Code != tt.wantCode {
				t.Fatalf("status %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestMissingIdentityIsRejected(t *testing.T) {
	exams := &stubExams{view: sampleView()}
	w, env := do(t, examRouter(exams, nil, uuid.Nil), http.MethodPost, "/mockexams/start?licenseType=B1", "")
	if w.Code != http.StatusUnauthorized || env.Code != "TOKEN_REQUIRED" {
		t.Fatalf("status %d code %s", w.Code, env.Code)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{service.ErrExamNotFound, http.StatusNotFound, "NOT_FOUND", "Mock exam not found"},
		{service.ErrExamAlreadySubmitted, http.StatusConflict, "ALREADY_SUBMITTED", "Mock exam already submitted"},
		{service.ErrExamIDMismatch, http.StatusBadRequest, "VALIDATION_FAILED", "Exam ID mismatch"},
		{service.ErrNotExamOwner, http.StatusUnauthorized, "UNAUTHORIZED", "You are not allowed to modify this exam"},
		{&service.DomainError{Kind: service.KindInsufficientPool, Message: "Only 3 questions available"}, http.StatusBadRequest, "INSUFFICIENT_POOL", "Only 3 questions available"},
		{&service.DomainError{Kind: service.KindConfiguration, Message: "No exam structure for A1"}, http.StatusInternalServerError, "CONFIGURATION_ERROR", "No exam structure for A1"},
		{errors.New("connection reset by peer"), http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			exams := &stubExams{err: tt.err}
			body := `{"examId":42,"timeSpent":30}`
			w, env := do(t, examRouter(exams, nil, testUser), http.MethodPost, "/mockexams/42/submit", body)
			if w.Code != tt.status || env.Code != tt.code || env.Message != tt.message || env.Success {
				t.Fatalf("got %d %s %q, want %d %s %q", w.Code, env.Code, env.Message, tt.status, tt.code, tt.message)
			}
		})
	}
}

func TestSubmitExamPassesBody(t *testing.T) {
	exams := &stubExams{view: sampleView()}
	body := `{"examId":42,"timeSpent":900,"answers":[{"questionId":7,"selectedOptionId":71},{"questionId":8}]}`
	w, _ := do(t, examRouter(exams, nil, testUser), http.MethodPost, "/mockexams/42/submit", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	req := exams.submit
	if req == nil || req.ExamID != 42 || req.TimeSpent == nil || *req.TimeSpent != 900 || len(req.Answers) != 2 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Answers[1].SelectedOptionID != nil {
		t.Fatalf("omitted selection must stay nil")
	}
}

func TestSubmitExamRejectsNegativeTime(t *testing.T) {
	exams := &stubExams{view: sampleView()}
	w, env := do(t, examRouter(exams, nil, testUser), http.MethodPost, "/mockexams/42/submit", `{"examId":42,"timeSpent":-5}`)
	if w.Code != http.StatusBadRequest || env.Fields["timeSpent"] == "" {
		t.Fatalf("status %d fields %+v", w.Code, env.Fields)
	}
}

func TestInvalidExamID(t *testing.T) {
	for _, target := range []string{"/mockexams/abc", "/mockexams/0"} {
		w, env := do(t, examRouter(&stubExams{}, nil, testUser), http.MethodGet, target, "")
		if w.Code != http.StatusBadRequest || env.Code != "INVALID_ID" {
			t.Fatalf("%s: status %d code %s", target, w.Code, env.Code)
		}
	}
}

func TestListByUserResolvesLicense(t *testing.T) {
	licenses := stubLicenses{"B1": 3}

	exams := &stubExams{list: []model.MockExamSummary{{ExamID: 1}}}
	w, _ := do(t, examRouter(exams, licenses, testUser), http.MethodGet, "/mockexams/byuser?licenseType=B1", "")
	if w.Code != http.StatusOK || exams.license != 3 {
		t.Fatalf("code lookup: status %d license %d", w.Code, exams.license)
	}

	exams = &stubExams{list: []model.MockExamSummary{}}
	w, env := do(t, examRouter(exams, licenses, testUser), http.MethodGet, "/mockexams/byuser?licenseType=5", "")
	if w.Code != http.StatusOK || exams.license != 5 {
		t.Fatalf("numeric id: status %d license %d", w.Code, exams.license)
	}
	if env.Message != "No mock exams found" || string(env.Data) != "[]" {
		t.Fatalf("empty list envelope: %q %s", env.Message, env.Data)
	}

	w, env = do(t, examRouter(&stubExams{}, licenses, testUser), http.MethodGet, "/mockexams/byuser?licenseType=Z9", "")
	if w.Code != http.StatusNotFound || env.Message != "License type not found" {
		t.Fatalf("unknown code: status %d %q", w.Code, env.Message)
	}
}

// ─── Wrong question handler ────────────────────────────────────────

type stubLedger struct {
	views   []model.WrongQuestionView
	fixedID int64
	err     error
}

func (s *stubLedger) ListForUser(context.Context, uuid.UUID) ([]model.WrongQuestionView, error) {
	return s.views, s.err
}

func (s *stubLedger) ListForLicense(context.Context, uuid.UUID, int64) ([]model.WrongQuestionView, error) {
	return s.views, s.err
}

func (s *stubLedger) MarkFixed(_ context.Context, id int64, _ uuid.UUID) error {
	s.fixedID = id
	return s.err
}

func TestWrongQuestionEndpoints(t *testing.T) {
	ledger := &stubLedger{views: []model.WrongQuestionView{}}
	h := NewWrongQuestionHandler(ledger, nopLog)
	r := gin.New()
	g := r.Group("/wrong-questions", asUser(testUser))
	g.GET("/license/:licenseTypeId", h.ListByLicense)
	g.PUT("/:id/mark-fixed", h.MarkFixed)

	w, env := do(t, r, http.MethodGet, "/wrong-questions/license/2", "")
	if w.Code != http.StatusOK || env.Message != "No wrong questions found for this license type" {
		t.Fatalf("status %d message %q", w.Code, env.Message)
	}

	w, _ = do(t, r, http.MethodPut, "/wrong-questions/17/mark-fixed", "")
	if w.Code != http.StatusOK || ledger.fixedID != 17 {
		t.Fatalf("status %d fixed %d", w.Code, ledger.fixedID)
	}

	ledger.err = service.ErrWrongQuestionNotFound
	w, _ = do(t, r, http.MethodPut, "/wrong-questions/18/mark-fixed", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

// ─── System handler ────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	r := gin.New()
	r.GET("/health", NewSystemHandler(map[string]Pinger{"postgres": ok, "redis": ok}, nopLog).Health)
	r.GET("/degraded", NewSystemHandler(map[string]Pinger{"postgres": ok, "redis": down}, nopLog).Health)

	w, env := do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("healthy: status %d", w.Code)
	}

	w, env = do(t, r, http.MethodGet, "/degraded", "")
	if w.Code != http.StatusServiceUnavailable || env.Success {
		t.Fatalf("degraded: status %d", w.Code)
	}
	var data struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Dependencies["redis"] != "down" || data.Dependencies["postgres"] != "ok" {
		t.Fatalf("unexpected dependencies %s", env.Data)
	}
}

func TestUpdateExamPassesPatch(t *testing.T) {
	exams := &stubExams{view: sampleView()}
	w, _ := do(t, examRouter(exams, nil, testUser), http.MethodPut, "/mockexams/update/42", `{"timeSpent":120,"answers":[{"questionId":7,"selectedOptionId":72}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	req := exams.update
	if req == nil || req.TimeSpent == nil || *req.TimeSpent != 120 || len(req.Answers) != 1 {
		t.Fatalf("unexpected patch %+v", req)
	}
	if exams.userID != testUser {
		t.Fatalf("acting user %s", exams.userID)
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anhnhh24/DriverLicenseTest/internal/middleware"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/anhnhh24/DriverLicenseTest/internal/service"
	ws "github.com/anhnhh24/DriverLicenseTest/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a mock exam over a WebSocket. Autosave and submit go
// through the same exam operations as the HTTP endpoints.
type WSHandler struct {
	exams    MockExamOperations
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(exams MockExamOperations, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		exams:    exams,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/mockexams/:examId/stream?token=...
// Upgrades to WebSocket for autosave and grading of one exam.
func (h *WSHandler) ExamStream(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	// Reject foreign or finished exams before upgrading.
	exam, err := h.exams.GetExam(c.Request.Context(), examID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if exam.UserID != userID {
		respondError(c, h.log, service.ErrNotExamOwner)
		return
	}
	if exam.IsSubmitted {
		respondError(c, h.log, service.ErrExamAlreadySubmitted)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", userID.String()).
		Int64("exam_id", examID).
		Logger()
	wsLog.Info().Msg("Exam stream connected")

	ctx := context.WithoutCancel(c.Request.Context())
	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(ctx, conn, wsLog, examID, userID, &msg)
		case ws.ActionSubmit:
			if h.handleSubmit(ctx, conn, wsLog, examID, userID, &msg) {
				return
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAutosave(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, examID int64, userID uuid.UUID, msg *ws.Request) {
	if msg.QuestionID <= 0 {
		ws.WriteError(conn, "questionId is required")
		return
	}
	req := &model.UpdateExamRequest{
		TimeSpent: msg.TimeSpent,
		Answers: []model.SubmittedAnswer{{
			QuestionID:       msg.QuestionID,
			SelectedOptionID: msg.SelectedOptionID,
		}},
	}
	if _, err := h.exams.UpdateExam(ctx, examID, userID, req); err != nil {
		h.writeFailure(conn, wsLog, err)
		return
	}
	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: msg.QuestionID})
}

// handleSubmit grades the exam from its saved selections. It reports whether
// the stream is finished.
func (h *WSHandler) handleSubmit(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, examID int64, userID uuid.UUID, msg *ws.Request) bool {
	if msg.TimeSpent != nil && *msg.TimeSpent < 0 {
		ws.WriteError(conn, "timeSpent must be 0 or greater")
		return false
	}
	req := &model.SubmitExamRequest{ExamID: examID, TimeSpent: msg.TimeSpent}

	view, err := h.exams.SubmitExam(ctx, examID, userID, req)
	if err != nil {
		h.writeFailure(conn, wsLog, err)
		return service.KindOf(err) == service.KindAlreadySubmitted
	}

	wsLog.Info().
		Int("score", view.Score).
		Str("pass_status", string(view.PassStatus)).
		Msg("Exam submitted over stream")

	ws.WriteTyped(conn, ws.GradedResponse{
		Event:        ws.EventGraded,
		ExamID:       view.ID,
		Score:        view.Score,
		CorrectCount: view.CorrectAnswers,
		WrongCount:   view.WrongAnswers,
		PassStatus:   string(view.PassStatus),
	})
	return true
}

func (h *WSHandler) writeFailure(conn *websocket.Conn, wsLog zerolog.Logger, err error) {
	var de *service.DomainError
	if errors.As(err, &de) {
		ws.WriteError(conn, de.Message)
		return
	}
	wsLog.Error().Err(err).Msg("Stream operation failed")
	ws.WriteError(conn, response.GetMessage(response.ErrInternal))
}

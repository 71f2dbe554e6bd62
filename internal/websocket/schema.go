package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Request is a client message. Fields not used by Action are ignored.
type Request struct {
	Action           Action `json:"action"`
	QuestionID       int64  `json:"questionId,omitempty"`
	SelectedOptionID *int64 `json:"selectedOptionId,omitempty"`
	TimeSpent        *int   `json:"timeSpent,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSaved  Event = "saved"
	EventGraded Event = "graded"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// SavedResponse acknowledges an autosave.
type SavedResponse struct {
	Event      Event `json:"event"`
	QuestionID int64 `json:"questionId"`
}

// GradedResponse carries the outcome of a submission.
type GradedResponse struct {
	Event        Event  `json:"event"`
	ExamID       int64  `json:"examId"`
	Score        int    `json:"score"`
	CorrectCount int    `json:"correctCount"`
	WrongCount   int    `json:"wrongCount"`
	PassStatus   string `json:"passStatus"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

package models

// Event types broadcast to connected student clients.
const (
	EventActiveQuestions = "active_questions"
	EventSessionEnded    = "session_ended"
)

// ActiveQuestion is one open question instance joined with its question
// content, as seen by students.
type ActiveQuestion struct {
	SessionQuestionID uint           `json:"session_question_id"`
	QuestionID        uint           `json:"question_id"`
	Text              string         `json:"text"`
	GradingCriteria   string         `json:"grading_criteria"`
	Status            InstanceStatus `json:"status"`
}

// SessionEvent is the wire format pushed over the live channel. The questions
// list is always a full snapshot of the currently open instances, never a
// diff, so a client that missed intermediate broadcasts converges on the next
// one.
type SessionEvent struct {
	Type      string           `json:"type"`
	SessionID uint             `json:"-"`
	Questions []ActiveQuestion `json:"questions"`
}

// ActiveQuestionsEvent builds a full-snapshot event. The slice is forced
// non-nil so an empty list serializes as [] rather than null.
func ActiveQuestionsEvent(sessionID uint, questions []ActiveQuestion) SessionEvent {
	if questions == nil {
		questions = []ActiveQuestion{}
	}
	return SessionEvent{Type: EventActiveQuestions, SessionID: sessionID, Questions: questions}
}

// SessionEndedEvent signals clients to stop interacting with the session.
func SessionEndedEvent(sessionID uint) SessionEvent {
	return SessionEvent{Type: EventSessionEnded, SessionID: sessionID, Questions: []ActiveQuestion{}}
}

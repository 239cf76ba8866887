package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

type InstanceStatus string

const (
	InstanceOpen   InstanceStatus = "open"
	InstanceClosed InstanceStatus = "closed"
)

// Session is one classroom activity, identified by a short join code.
// At most one session is active system-wide at any time.
type Session struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	Code      string        `json:"code" gorm:"uniqueIndex;size:6;not null"`
	AIModel   string        `json:"ai_model" gorm:"not null;size:255"`
	Status    SessionStatus `json:"status" gorm:"not null;index;default:active"`
	CreatedAt time.Time     `json:"created_at"`
}

// SessionQuestion is one launch of a question inside a session. The same
// question may be launched repeatedly; each launch is an independent instance.
type SessionQuestion struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	SessionID  uint           `json:"session_id" gorm:"not null;index"`
	QuestionID uint           `json:"question_id" gorm:"not null;index"`
	Status     InstanceStatus `json:"status" gorm:"not null;default:open"`
	CreatedAt  time.Time      `json:"created_at"`

	// Relations
	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

// StudentResponse is immutable once written. Resubmissions to the same open
// instance each produce a new row.
type StudentResponse struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	SessionID         uint           `json:"session_id" gorm:"not null;index"`
	QuestionID        uint           `json:"question_id" gorm:"not null;index"`
	SessionQuestionID uint           `json:"session_question_id" gorm:"index"`
	StudentName       string         `json:"student_name" gorm:"not null;size:255"`
	ResponseText      string         `json:"response_text" gorm:"type:text;not null"`
	AIScore           int            `json:"ai_score" gorm:"not null"`
	AIFeedback        string         `json:"ai_feedback" gorm:"type:text"`
	AIRaw             datatypes.JSON `json:"-" gorm:"type:jsonb"`
	CreatedAt         time.Time      `json:"created_at"`
}

type AdminUser struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string    `json:"-" gorm:"not null;size:255"`
	CreatedAt    time.Time `json:"created_at"`
}

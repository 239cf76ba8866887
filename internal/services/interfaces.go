package services

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/classpulse/feedback-service/internal/models"
)

// ===== REQUEST/RESPONSE DTOs =====

type CreateQuestionRequest struct {
	Text            string `json:"text" validate:"required"`
	GradingCriteria string `json:"grading_criteria" validate:"required"`
	CollectionID    uint   `json:"collection_id"`
}

type UpdateQuestionRequest struct {
	Text            string `json:"text" validate:"required"`
	GradingCriteria string `json:"grading_criteria" validate:"required"`
	CollectionID    uint   `json:"collection_id"`
}

type CreateCollectionRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type RenameCollectionRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Collection deletion dispositions for questions left behind.
const (
	DispositionMove  = "move"
	DispositionPurge = "delete"
)

type CreateSessionRequest struct {
	AIModel string `json:"ai_model" validate:"required,max=255"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SubmitResponseRequest struct {
	StudentName  string `json:"student_name" validate:"required,max=255"`
	ResponseText string `json:"response_text" validate:"required"`
}

// SubmissionResult is what the submitting student sees.
type SubmissionResult struct {
	ResponseID uint   `json:"response_id"`
	Score      int    `json:"score"`
	Feedback   string `json:"feedback"`
}

// InstanceResults is one launched question with every response recorded for
// that question in the session.
type InstanceResults struct {
	SessionQuestionID uint                      `json:"session_question_id"`
	QuestionID        uint                      `json:"question_id"`
	QuestionText      string                    `json:"question_text"`
	Status            models.InstanceStatus     `json:"status"`
	Responses         []*models.StudentResponse `json:"responses"`
}

// ===== SERVICE INTERFACES =====

type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	List(ctx context.Context) ([]*models.Question, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest) (*models.Question, error)
	Delete(ctx context.Context, id uint) error
}

type CollectionService interface {
	Create(ctx context.Context, req *CreateCollectionRequest) (*models.Collection, error)
	List(ctx context.Context) ([]*models.Collection, error)
	Rename(ctx context.Context, id uint, req *RenameCollectionRequest) error
	// Delete removes a collection, either moving its questions to targetID
	// (DispositionMove) or deleting them (DispositionPurge), atomically.
	Delete(ctx context.Context, id uint, disposition string, targetID uint) error
}

type SessionService interface {
	Create(ctx context.Context, req *CreateSessionRequest) (*models.Session, error)
	List(ctx context.Context) ([]*models.Session, error)
	GetByCode(ctx context.Context, code string) (*models.Session, error)
	// JoinByCode resolves a join code for a student; the session must be active.
	JoinByCode(ctx context.Context, code string) (*models.Session, error)
	LaunchQuestion(ctx context.Context, sessionID, questionID uint) (*models.SessionQuestion, error)
	LaunchCollection(ctx context.Context, sessionID, collectionID uint) ([]*models.SessionQuestion, error)
	CloseQuestion(ctx context.Context, sessionID, instanceID uint) error
	CloseAll(ctx context.Context, sessionID uint) error
	End(ctx context.Context, sessionID uint) error
	ActiveQuestions(ctx context.Context, sessionID uint) ([]models.ActiveQuestion, error)
	FetchResults(ctx context.Context, sessionID uint) ([]*InstanceResults, error)
	// Delete removes a session's record; only closed sessions can be deleted.
	Delete(ctx context.Context, sessionID uint) error
}

type SubmissionService interface {
	Submit(ctx context.Context, sessionID, questionID uint, req *SubmitResponseRequest) (*SubmissionResult, error)
}

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (string, error)
	VerifyToken(token string) (string, error)
	// SeedAdmin creates the configured admin account when absent.
	SeedAdmin(ctx context.Context, username, password string) error
}

type ExportService interface {
	CSV(ctx context.Context, sessionID uint) ([]byte, error)
	XLSX(ctx context.Context, sessionID uint) (*excelize.File, error)
}

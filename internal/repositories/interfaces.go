package repositories

import (
	"context"

	"github.com/classpulse/feedback-service/internal/models"
)

// ===== QUESTION =====

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	// GetAll returns every question with its collection name, newest first.
	GetAll(ctx context.Context) ([]*models.Question, error)
	GetByCollection(ctx context.Context, collectionID uint) ([]*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
}

// ===== COLLECTION =====

type CollectionRepository interface {
	Create(ctx context.Context, collection *models.Collection) error
	GetByID(ctx context.Context, id uint) (*models.Collection, error)
	// GetAllWithCounts returns every collection annotated with its member
	// question count, ordered by id.
	GetAllWithCounts(ctx context.Context) ([]*models.Collection, error)
	Rename(ctx context.Context, id uint, name string) error
	// ReassignQuestions moves every question in collection id to targetID.
	ReassignQuestions(ctx context.Context, id, targetID uint) error
	// PurgeQuestions deletes every question in collection id.
	PurgeQuestions(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

// ===== SESSION =====

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uint) (*models.Session, error)
	GetByCode(ctx context.Context, code string) (*models.Session, error)
	GetAll(ctx context.Context) ([]*models.Session, error)
	// GetActive returns the single active session, or ErrNotFound.
	GetActive(ctx context.Context) (*models.Session, error)
	SetClosed(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

// ===== SESSION QUESTION (instance) =====

type SessionQuestionRepository interface {
	// CreateOpen records one launch of a question and returns the new open
	// instance.
	CreateOpen(ctx context.Context, sessionID, questionID uint) (*models.SessionQuestion, error)
	GetByID(ctx context.Context, id uint) (*models.SessionQuestion, error)
	SetClosed(ctx context.Context, id uint) error
	SetAllClosed(ctx context.Context, sessionID uint) error
	// ListOpen returns open instances joined with question content.
	ListOpen(ctx context.Context, sessionID uint) ([]*models.SessionQuestion, error)
	// ListAll returns every instance for the session, open and closed,
	// joined with question content.
	ListAll(ctx context.Context, sessionID uint) ([]*models.SessionQuestion, error)
}

// ===== STUDENT RESPONSE =====

type ResponseRepository interface {
	Create(ctx context.Context, response *models.StudentResponse) error
	// GetForQuestion returns all responses recorded for a question within a
	// session, oldest first.
	GetForQuestion(ctx context.Context, sessionID, questionID uint) ([]*models.StudentResponse, error)
}

// ===== ADMIN USER =====

type AdminRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
}

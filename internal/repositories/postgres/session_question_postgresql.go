package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
)

type sessionQuestionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionQuestionPostgreSQL(db *gorm.DB) repositories.SessionQuestionRepository {
	return &sessionQuestionPostgreSQL{db: db}
}

func (r *sessionQuestionPostgreSQL) CreateOpen(ctx context.Context, sessionID, questionID uint) (*models.SessionQuestion, error) {
	instance := &models.SessionQuestion{
		SessionID:  sessionID,
		QuestionID: questionID,
		Status:     models.InstanceOpen,
	}
	if err := r.db.WithContext(ctx).Create(instance).Error; err != nil {
		return nil, fmt.Errorf("failed to create session question: %w", err)
	}
	return instance, nil
}

func (r *sessionQuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.SessionQuestion, error) {
	var instance models.SessionQuestion
	if err := r.db.WithContext(ctx).First(&instance, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &instance, nil
}

// SetClosed is idempotent: closing an already-closed instance updates zero
// rows, which is not an error.
func (r *sessionQuestionPostgreSQL) SetClosed(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.SessionQuestion{}).
		Where("id = ?", id).
		Update("status", models.InstanceClosed).Error
	if err != nil {
		return fmt.Errorf("failed to close session question: %w", err)
	}
	return nil
}

func (r *sessionQuestionPostgreSQL) SetAllClosed(ctx context.Context, sessionID uint) error {
	err := r.db.WithContext(ctx).Model(&models.SessionQuestion{}).
		Where("session_id = ? AND status = ?", sessionID, models.InstanceOpen).
		Update("status", models.InstanceClosed).Error
	if err != nil {
		return fmt.Errorf("failed to close session questions: %w", err)
	}
	return nil
}

func (r *sessionQuestionPostgreSQL) ListOpen(ctx context.Context, sessionID uint) ([]*models.SessionQuestion, error) {
	return r.list(ctx, sessionID, true)
}

func (r *sessionQuestionPostgreSQL) ListAll(ctx context.Context, sessionID uint) ([]*models.SessionQuestion, error) {
	return r.list(ctx, sessionID, false)
}

func (r *sessionQuestionPostgreSQL) list(ctx context.Context, sessionID uint, openOnly bool) ([]*models.SessionQuestion, error) {
	tx := r.db.WithContext(ctx).
		Preload("Question").
		Where("session_id = ?", sessionID)
	if openOnly {
		tx = tx.Where("status = ?", models.InstanceOpen)
	}

	var instances []*models.SessionQuestion
	if err := tx.Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("failed to list session questions: %w", err)
	}
	return instances, nil
}

package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
)

type responsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &responsePostgreSQL{db: db}
}

func (r *responsePostgreSQL) Create(ctx context.Context, response *models.StudentResponse) error {
	if err := r.db.WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to save student response: %w", err)
	}
	return nil
}

func (r *responsePostgreSQL) GetForQuestion(ctx context.Context, sessionID, questionID uint) ([]*models.StudentResponse, error) {
	var responses []*models.StudentResponse
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Order("id ASC").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, nil
}

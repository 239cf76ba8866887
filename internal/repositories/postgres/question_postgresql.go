package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
)

type questionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &questionPostgreSQL{db: db}
}

func (r *questionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	if question.CollectionID == 0 {
		question.CollectionID = models.DefaultCollectionID
	}
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *questionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

func (r *questionPostgreSQL) GetAll(ctx context.Context) ([]*models.Question, error) {
	return r.listWithCollectionName(ctx, r.db.WithContext(ctx))
}

func (r *questionPostgreSQL) GetByCollection(ctx context.Context, collectionID uint) ([]*models.Question, error) {
	tx := r.db.WithContext(ctx).Where("questions.collection_id = ?", collectionID)
	return r.listWithCollectionName(ctx, tx)
}

// listWithCollectionName scans questions joined with their collection name,
// newest first, into the model's computed CollectionName field.
func (r *questionPostgreSQL) listWithCollectionName(_ context.Context, tx *gorm.DB) ([]*models.Question, error) {
	var rows []struct {
		models.Question
		CollectionName string
	}
	err := tx.Model(&models.Question{}).
		Select("questions.*, collections.name AS collection_name").
		Joins("LEFT JOIN collections ON collections.id = questions.collection_id").
		Order("questions.created_at DESC, questions.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	questions := make([]*models.Question, len(rows))
	for i := range rows {
		q := rows[i].Question
		q.CollectionName = rows[i].CollectionName
		questions[i] = &q
	}
	return questions, nil
}

func (r *questionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	result := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"text":             question.Text,
			"grading_criteria": question.GradingCriteria,
			"collection_id":    question.CollectionID,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *questionPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Question{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
)

type collectionPostgreSQL struct {
	db *gorm.DB
}

func NewCollectionPostgreSQL(db *gorm.DB) repositories.CollectionRepository {
	return &collectionPostgreSQL{db: db}
}

func (r *collectionPostgreSQL) Create(ctx context.Context, collection *models.Collection) error {
	if err := r.db.WithContext(ctx).Create(collection).Error; err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (r *collectionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Collection, error) {
	var collection models.Collection
	if err := r.db.WithContext(ctx).First(&collection, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &collection, nil
}

func (r *collectionPostgreSQL) GetAllWithCounts(ctx context.Context) ([]*models.Collection, error) {
	var rows []struct {
		models.Collection
		QuestionCount int
	}
	err := r.db.WithContext(ctx).Model(&models.Collection{}).
		Select("collections.*, COUNT(questions.id) AS question_count").
		Joins("LEFT JOIN questions ON questions.collection_id = collections.id").
		Group("collections.id").
		Order("collections.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	collections := make([]*models.Collection, len(rows))
	for i := range rows {
		c := rows[i].Collection
		c.QuestionCount = rows[i].QuestionCount
		collections[i] = &c
	}
	return collections, nil
}

func (r *collectionPostgreSQL) Rename(ctx context.Context, id uint, name string) error {
	result := r.db.WithContext(ctx).Model(&models.Collection{}).
		Where("id = ?", id).
		Update("name", name)
	if result.Error != nil {
		return fmt.Errorf("failed to rename collection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *collectionPostgreSQL) ReassignQuestions(ctx context.Context, id, targetID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("collection_id = ?", id).
		Update("collection_id", targetID).Error
	if err != nil {
		return fmt.Errorf("failed to reassign questions: %w", err)
	}
	return nil
}

func (r *collectionPostgreSQL) PurgeQuestions(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", id).
		Delete(&models.Question{}).Error
	if err != nil {
		return fmt.Errorf("failed to purge questions: %w", err)
	}
	return nil
}

func (r *collectionPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Collection{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete collection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

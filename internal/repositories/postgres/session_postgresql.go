package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/classpulse/feedback-service/internal/cache"
	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
)

type sessionPostgreSQL struct {
	db    *gorm.DB
	cache *cache.Helper
}

func NewSessionPostgreSQL(db *gorm.DB, cacheHelper *cache.Helper) repositories.SessionRepository {
	return &sessionPostgreSQL{db: db, cache: cacheHelper}
}

func codeCacheKey(code string) string {
	return "code:" + code
}

func (r *sessionPostgreSQL) Create(ctx context.Context, session *models.Session) error {
	if session.Status == "" {
		session.Status = models.SessionActive
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &session, nil
}

// GetByCode is the hot path for student joins, so it reads through the cache.
func (r *sessionPostgreSQL) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	var cached models.Session
	if err := r.cache.Get(ctx, codeCacheKey(code), &cached); err == nil {
		return &cached, nil
	}

	var session models.Session
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&session).Error; err != nil {
		return nil, translateError(err)
	}

	// Best effort; a failed cache write never fails the read.
	_ = r.cache.Set(ctx, codeCacheKey(code), &session, cache.SessionTTL)

	return &session, nil
}

func (r *sessionPostgreSQL) GetAll(ctx context.Context) ([]*models.Session, error) {
	var sessions []*models.Session
	err := r.db.WithContext(ctx).Order("id DESC").Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (r *sessionPostgreSQL) GetActive(ctx context.Context) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("status = ?", models.SessionActive).
		First(&session).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &session, nil
}

func (r *sessionPostgreSQL) SetClosed(ctx context.Context, id uint) error {
	session, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Update("status", models.SessionClosed).Error
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	_ = r.cache.Delete(ctx, codeCacheKey(session.Code))
	return nil
}

func (r *sessionPostgreSQL) Delete(ctx context.Context, id uint) error {
	session, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&models.Session{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}

	_ = r.cache.Delete(ctx, codeCacheKey(session.Code))
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
)

type adminPostgreSQL struct {
	db *gorm.DB
}

func NewAdminPostgreSQL(db *gorm.DB) repositories.AdminRepository {
	return &adminPostgreSQL{db: db}
}

func (r *adminPostgreSQL) Create(ctx context.Context, user *models.AdminUser) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

func (r *adminPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

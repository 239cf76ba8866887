package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/classpulse/feedback-service/internal/config"
	"github.com/classpulse/feedback-service/internal/models"
)

// InitDatabase opens the database, runs migrations and seeds the default
// collection.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogLevel := logger.Warn
	if cfg.Environment == "development" {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema and the rows the system assumes exist.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Collection{},
		&models.Question{},
		&models.Session{},
		&models.SessionQuestion{},
		&models.StudentResponse{},
		&models.AdminUser{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// The default collection must always exist; uncollected questions land
	// in it.
	defaultCollection := &models.Collection{ID: models.DefaultCollectionID, Name: "Default"}
	if err := db.FirstOrCreate(defaultCollection, "id = ?", models.DefaultCollectionID).Error; err != nil {
		return fmt.Errorf("failed to seed default collection: %w", err)
	}

	return nil
}

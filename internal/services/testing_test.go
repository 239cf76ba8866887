package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/classpulse/feedback-service/internal/grading"
	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/realtime"
	"github.com/classpulse/feedback-service/internal/repositories"
	"github.com/classpulse/feedback-service/internal/repositories/postgres"
	"github.com/classpulse/feedback-service/internal/validator"
	"github.com/classpulse/feedback-service/pkg"
)

var testDBCounter atomic.Int64

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRepo opens an isolated in-memory database with the full schema and
// seed rows.
func newTestRepo(t *testing.T) repositories.Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get test database handle: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := pkg.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
}

func newTestBroker(t *testing.T) *realtime.Broker {
	t.Helper()
	broker := realtime.NewBroker(discardLogger())
	t.Cleanup(func() { broker.Close() })
	return broker
}

// newTestGrader returns a client that always takes a mock path: the test-model
// session model is deterministic and the dummy key never calls out.
func newTestGrader() grading.Grader {
	return grading.NewClient("http://127.0.0.1:0", "dummy-key", discardLogger())
}

func mustCreateQuestion(t *testing.T, repo repositories.Repository, text string, collectionID uint) *models.Question {
	t.Helper()
	question := &models.Question{
		Text:            text,
		GradingCriteria: "mentions the key concept",
		CollectionID:    collectionID,
	}
	if err := repo.Question().Create(context.Background(), question); err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
	return question
}

func mustCreateCollection(t *testing.T, repo repositories.Repository, name string) *models.Collection {
	t.Helper()
	collection := &models.Collection{Name: name}
	if err := repo.Collection().Create(context.Background(), collection); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	return collection
}

func newTestSessionService(t *testing.T, repo repositories.Repository) SessionService {
	t.Helper()
	return NewSessionService(repo, newTestBroker(t), discardLogger(), validator.New())
}

func mustCreateSession(t *testing.T, svc SessionService, aiModel string) *models.Session {
	t.Helper()
	session, err := svc.Create(context.Background(), &CreateSessionRequest{AIModel: aiModel})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

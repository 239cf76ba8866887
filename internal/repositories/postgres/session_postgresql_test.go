package postgres

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
	"github.com/classpulse/feedback-service/pkg"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repodb%d?mode=memory&cache=shared", testDBCounter.Add(1))
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
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := pkg.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestRepoWithRedis(t *testing.T) (repositories.Repository, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := NewPostgreSQLRepository(RepositoryConfig{
		DB:          newTestDB(t),
		RedisClient: client,
	})
	return repo, server
}

func TestGetByCodeReadsThroughCache(t *testing.T) {
	repo, server := newTestRepoWithRedis(t)
	ctx := context.Background()

	session := &models.Session{Code: "AB12CD", AIModel: "test-model"}
	if err := repo.Session().Create(ctx, session); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// First read populates the cache.
	got, err := repo.Session().GetByCode(ctx, "AB12CD")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("got session %d, want %d", got.ID, session.ID)
	}
	if !server.Exists("session:code:AB12CD") {
		t.Error("cache key not populated after read")
	}

	if err := repo.Session().SetClosed(ctx, session.ID); err != nil {
		t.Fatalf("SetClosed: %v", err)
	}
	if server.Exists("session:code:AB12CD") {
		t.Error("cache key not invalidated on close")
	}

	closed, err := repo.Session().GetByCode(ctx, "AB12CD")
	if err != nil {
		t.Fatalf("GetByCode after close: %v", err)
	}
	if closed.Status != models.SessionClosed {
		t.Errorf("status = %q, want closed after invalidation", closed.Status)
	}
}

func TestGetActiveReturnsNotFoundWhenNoneActive(t *testing.T) {
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: newTestDB(t)})
	ctx := context.Background()

	if _, err := repo.Session().GetActive(ctx); !repositories.IsNotFoundError(err) {
		t.Fatalf("GetActive returned %v, want not found", err)
	}

	session := &models.Session{Code: "XY34ZW", AIModel: "test-model"}
	if err := repo.Session().Create(ctx, session); err != nil {
		t.Fatalf("Create: %v", err)
	}

	active, err := repo.Session().GetActive(ctx)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if active.ID != session.ID {
		t.Errorf("active = %d, want %d", active.ID, session.ID)
	}
}

func TestSessionQuestionCloseIsIdempotent(t *testing.T) {
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: newTestDB(t)})
	ctx := context.Background()

	session := &models.Session{Code: "QQ11QQ", AIModel: "test-model"}
	if err := repo.Session().Create(ctx, session); err != nil {
		t.Fatalf("Create session: %v", err)
	}
	question := &models.Question{Text: "Q", GradingCriteria: "C"}
	if err := repo.Question().Create(ctx, question); err != nil {
		t.Fatalf("Create question: %v", err)
	}

	instance, err := repo.SessionQuestion().CreateOpen(ctx, session.ID, question.ID)
	if err != nil {
		t.Fatalf("CreateOpen: %v", err)
	}

	if err := repo.SessionQuestion().SetClosed(ctx, instance.ID); err != nil {
		t.Fatalf("SetClosed: %v", err)
	}
	if err := repo.SessionQuestion().SetClosed(ctx, instance.ID); err != nil {
		t.Fatalf("repeated SetClosed: %v", err)
	}

	reloaded, err := repo.SessionQuestion().GetByID(ctx, instance.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != models.InstanceClosed {
		t.Errorf("status = %q, want closed", reloaded.Status)
	}
}

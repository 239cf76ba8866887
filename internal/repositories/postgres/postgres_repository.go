package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/classpulse/feedback-service/internal/cache"
	"github.com/classpulse/feedback-service/internal/repositories"
)

// PostgreSQLRepository implements the aggregate Repository interface.
type PostgreSQLRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
	cacheHelper *cache.Helper

	question        repositories.QuestionRepository
	collection      repositories.CollectionRepository
	session         repositories.SessionRepository
	sessionQuestion repositories.SessionQuestionRepository
	response        repositories.ResponseRepository
	admin           repositories.AdminRepository
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates the repository aggregate with all
// sub-repositories bound to the given database handle.
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheHelper := cache.NewHelper(config.RedisClient, "session:")

	repo := &PostgreSQLRepository{
		db:          config.DB,
		redisClient: config.RedisClient,
		cacheHelper: cacheHelper,
	}
	repo.bind(config.DB)
	return repo
}

func (r *PostgreSQLRepository) bind(db *gorm.DB) {
	r.question = NewQuestionPostgreSQL(db)
	r.collection = NewCollectionPostgreSQL(db)
	r.session = NewSessionPostgreSQL(db, r.cacheHelper)
	r.sessionQuestion = NewSessionQuestionPostgreSQL(db)
	r.response = NewResponsePostgreSQL(db)
	r.admin = NewAdminPostgreSQL(db)
}

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository {
	return r.question
}

func (r *PostgreSQLRepository) Collection() repositories.CollectionRepository {
	return r.collection
}

func (r *PostgreSQLRepository) Session() repositories.SessionRepository {
	return r.session
}

func (r *PostgreSQLRepository) SessionQuestion() repositories.SessionQuestionRepository {
	return r.sessionQuestion
}

func (r *PostgreSQLRepository) Response() repositories.ResponseRepository {
	return r.response
}

func (r *PostgreSQLRepository) Admin() repositories.AdminRepository {
	return r.admin
}

// WithTransaction executes fn against a repository bound to one database
// transaction. Collection delete dispositions depend on this being
// all-or-nothing.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:          tx,
			redisClient: r.redisClient,
			cacheHelper: r.cacheHelper,
		}
		txRepo.bind(tx)
		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections.
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheHelper.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections.
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

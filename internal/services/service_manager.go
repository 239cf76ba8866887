package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/classpulse/feedback-service/internal/grading"
	"github.com/classpulse/feedback-service/internal/realtime"
	"github.com/classpulse/feedback-service/internal/repositories"
	"github.com/classpulse/feedback-service/internal/validator"
)

// ServiceManager constructs and owns every service instance behind one
// lifecycle: Initialize wires them, HealthCheck probes shared dependencies,
// Shutdown releases them.
type ServiceManager interface {
	Question() QuestionService
	Collection() CollectionService
	Session() SessionService
	Submission() SubmissionService
	Auth() AuthService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type ServiceManagerConfig struct {
	JWTSecret     string
	AdminUsername string
	AdminPassword string
}

type serviceManager struct {
	repo      repositories.Repository
	broker    *realtime.Broker
	grader    grading.Grader
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	questionService   QuestionService
	collectionService CollectionService
	sessionService    SessionService
	submissionService SubmissionService
	authService       AuthService
	exportService     ExportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(repo repositories.Repository, broker *realtime.Broker, grader grading.Grader, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		broker:    broker,
		grader:    grader,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.questionService = NewQuestionService(sm.repo, sm.logger, sm.validator)
	sm.collectionService = NewCollectionService(sm.repo, sm.logger, sm.validator)
	sm.sessionService = NewSessionService(sm.repo, sm.broker, sm.logger, sm.validator)
	sm.submissionService = NewSubmissionService(sm.repo, sm.grader, sm.logger, sm.validator)
	sm.authService = NewAuthService(sm.repo, sm.config.JWTSecret, sm.logger, sm.validator)
	sm.exportService = NewExportService(sm.sessionService, sm.logger)

	if err := sm.authService.SeedAdmin(ctx, sm.config.AdminUsername, sm.config.AdminPassword); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Services initialized")
	return nil
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.shutdown = true

	if err := sm.broker.Close(); err != nil {
		sm.logger.Error("Failed to close event broker", "error", err)
	}
	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
		return err
	}

	sm.logger.Info("Services shut down")
	return nil
}

func (sm *serviceManager) Question() QuestionService     { return sm.questionService }
func (sm *serviceManager) Collection() CollectionService { return sm.collectionService }
func (sm *serviceManager) Session() SessionService       { return sm.sessionService }
func (sm *serviceManager) Submission() SubmissionService { return sm.submissionService }
func (sm *serviceManager) Auth() AuthService             { return sm.authService }
func (sm *serviceManager) Export() ExportService         { return sm.exportService }

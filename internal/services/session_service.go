package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/realtime"
	"github.com/classpulse/feedback-service/internal/repositories"
	"github.com/classpulse/feedback-service/internal/validator"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

type sessionService struct {
	repo      repositories.Repository
	broker    *realtime.Broker
	logger    *slog.Logger
	validator *validator.Validator
}

func NewSessionService(repo repositories.Repository, broker *realtime.Broker, logger *slog.Logger, validator *validator.Validator) SessionService {
	return &sessionService{
		repo:      repo,
		broker:    broker,
		logger:    logger,
		validator: validator,
	}
}

func (s *sessionService) Create(ctx context.Context, req *CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err.Error())
	}

	// Only one session may be active system-wide.
	if _, err := s.repo.Session().GetActive(ctx); err == nil {
		return nil, NewConflictError("a session is already active")
	} else if !repositories.IsNotFoundError(err) {
		return nil, NewStorageError("failed to check for active session", err)
	}

	code, err := generateJoinCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate join code: %w", err)
	}

	session := &models.Session{
		Code:    code,
		AIModel: req.AIModel,
		Status:  models.SessionActive,
	}
	if err := s.repo.Session().Create(ctx, session); err != nil {
		return nil, NewStorageError("failed to create session", err)
	}

	s.logger.Info("Session created", "session_id", session.ID, "code", session.Code, "model", session.AIModel)

	return session, nil
}

func (s *sessionService) List(ctx context.Context) ([]*models.Session, error) {
	sessions, err := s.repo.Session().GetAll(ctx)
	if err != nil {
		return nil, NewStorageError("failed to list sessions", err)
	}
	return sessions, nil
}

func (s *sessionService) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	session, err := s.repo.Session().GetByCode(ctx, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("session", code)
		}
		return nil, NewStorageError("failed to get session", err)
	}
	return session, nil
}

func (s *sessionService) JoinByCode(ctx context.Context, code string) (*models.Session, error) {
	session, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, NewConflictError("session is not active")
	}
	return session, nil
}

// LaunchQuestion pushes a question live. Launching the same question again
// creates a fresh instance; earlier instances are unaffected.
func (s *sessionService) LaunchQuestion(ctx context.Context, sessionID, questionID uint) (*models.SessionQuestion, error) {
	if err := s.requireActiveSession(ctx, sessionID); err != nil {
		return nil, err
	}

	if _, err := s.repo.Question().GetByID(ctx, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("question", questionID)
		}
		return nil, NewStorageError("failed to get question", err)
	}

	instance, err := s.repo.SessionQuestion().CreateOpen(ctx, sessionID, questionID)
	if err != nil {
		return nil, NewStorageError("failed to launch question", err)
	}

	s.logger.Info("Question launched", "session_id", sessionID, "question_id", questionID, "instance_id", instance.ID)
	s.broadcastActiveQuestions(ctx, sessionID)

	return instance, nil
}

// LaunchCollection pushes every question of a collection live, then emits a
// single combined snapshot.
func (s *sessionService) LaunchCollection(ctx context.Context, sessionID, collectionID uint) ([]*models.SessionQuestion, error) {
	if err := s.requireActiveSession(ctx, sessionID); err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().GetByCollection(ctx, collectionID)
	if err != nil {
		return nil, NewStorageError("failed to list collection questions", err)
	}
	if len(questions) == 0 {
		return nil, NewNotFoundError("questions in collection", collectionID)
	}

	instances := make([]*models.SessionQuestion, 0, len(questions))
	for _, q := range questions {
		instance, err := s.repo.SessionQuestion().CreateOpen(ctx, sessionID, q.ID)
		if err != nil {
			return nil, NewStorageError("failed to launch question", err)
		}
		instances = append(instances, instance)
	}

	s.logger.Info("Collection launched", "session_id", sessionID, "collection_id", collectionID, "launched", len(instances))
	s.broadcastActiveQuestions(ctx, sessionID)

	return instances, nil
}

// CloseQuestion retires one instance. Closing an already-closed instance is a
// no-op that still rebroadcasts the current list.
func (s *sessionService) CloseQuestion(ctx context.Context, sessionID, instanceID uint) error {
	instance, err := s.repo.SessionQuestion().GetByID(ctx, instanceID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("session question", instanceID)
		}
		return NewStorageError("failed to get session question", err)
	}
	if instance.SessionID != sessionID {
		return NewNotFoundError("session question", instanceID)
	}

	if err := s.repo.SessionQuestion().SetClosed(ctx, instanceID); err != nil {
		return NewStorageError("failed to close question", err)
	}

	s.logger.Info("Question closed", "session_id", sessionID, "instance_id", instanceID)
	s.broadcastActiveQuestions(ctx, sessionID)

	return nil
}

func (s *sessionService) CloseAll(ctx context.Context, sessionID uint) error {
	if err := s.repo.SessionQuestion().SetAllClosed(ctx, sessionID); err != nil {
		return NewStorageError("failed to close questions", err)
	}

	s.logger.Info("All questions closed", "session_id", sessionID)
	s.broadcastActiveQuestions(ctx, sessionID)

	return nil
}

// End closes the session for good. Open instances keep their status; an ended
// session's instances are unreachable through the student surface anyway.
func (s *sessionService) End(ctx context.Context, sessionID uint) error {
	if err := s.repo.Session().SetClosed(ctx, sessionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("session", sessionID)
		}
		return NewStorageError("failed to end session", err)
	}

	s.logger.Info("Session ended", "session_id", sessionID)

	if err := s.broker.Publish(models.SessionEndedEvent(sessionID)); err != nil {
		s.logger.Error("Failed to publish session ended event", "session_id", sessionID, "error", err)
	}

	return nil
}

func (s *sessionService) ActiveQuestions(ctx context.Context, sessionID uint) ([]models.ActiveQuestion, error) {
	instances, err := s.repo.SessionQuestion().ListOpen(ctx, sessionID)
	if err != nil {
		return nil, NewStorageError("failed to list open questions", err)
	}

	active := make([]models.ActiveQuestion, 0, len(instances))
	for _, instance := range instances {
		if instance.Question == nil {
			continue
		}
		active = append(active, models.ActiveQuestion{
			SessionQuestionID: instance.ID,
			QuestionID:        instance.QuestionID,
			Text:              instance.Question.Text,
			GradingCriteria:   instance.Question.GradingCriteria,
			Status:            instance.Status,
		})
	}
	return active, nil
}

// FetchResults returns every launched instance with its responses. Responses
// are recorded per question, so repeated launches of one question share the
// same response list.
func (s *sessionService) FetchResults(ctx context.Context, sessionID uint) ([]*InstanceResults, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}

	instances, err := s.repo.SessionQuestion().ListAll(ctx, sessionID)
	if err != nil {
		return nil, NewStorageError("failed to list session questions", err)
	}

	results := make([]*InstanceResults, 0, len(instances))
	for _, instance := range instances {
		responses, err := s.repo.Response().GetForQuestion(ctx, sessionID, instance.QuestionID)
		if err != nil {
			return nil, NewStorageError("failed to list responses", err)
		}

		r := &InstanceResults{
			SessionQuestionID: instance.ID,
			QuestionID:        instance.QuestionID,
			Status:            instance.Status,
			Responses:         responses,
		}
		if instance.Question != nil {
			r.QuestionText = instance.Question.Text
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *sessionService) Delete(ctx context.Context, sessionID uint) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.SessionClosed {
		return NewConflictError("only closed sessions can be deleted")
	}

	if err := s.repo.Session().Delete(ctx, sessionID); err != nil {
		return NewStorageError("failed to delete session", err)
	}

	s.logger.Info("Session deleted", "session_id", sessionID)
	return nil
}

// ===== HELPERS =====

func (s *sessionService) getSession(ctx context.Context, sessionID uint) (*models.Session, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("session", sessionID)
		}
		return nil, NewStorageError("failed to get session", err)
	}
	return session, nil
}

func (s *sessionService) requireActiveSession(ctx context.Context, sessionID uint) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.SessionActive {
		return NewConflictError("session is not active")
	}
	return nil
}

// broadcastActiveQuestions publishes the full current list to every connected
// student. Delivery is best-effort; failures never surface to the admin call.
func (s *sessionService) broadcastActiveQuestions(ctx context.Context, sessionID uint) {
	active, err := s.ActiveQuestions(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to build active question snapshot", "session_id", sessionID, "error", err)
		return
	}
	if err := s.broker.Publish(models.ActiveQuestionsEvent(sessionID, active)); err != nil {
		s.logger.Error("Failed to publish active questions event", "session_id", sessionID, "error", err)
	}
}

// generateJoinCode draws a crypto-random 6-character code over A-Z0-9.
func generateJoinCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

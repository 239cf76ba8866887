package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/classpulse/feedback-service/internal/grading"
	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
	"github.com/classpulse/feedback-service/internal/validator"
)

type submissionService struct {
	repo      repositories.Repository
	grader    grading.Grader
	logger    *slog.Logger
	validator *validator.Validator
}

func NewSubmissionService(repo repositories.Repository, grader grading.Grader, logger *slog.Logger, validator *validator.Validator) SubmissionService {
	return &submissionService{
		repo:      repo,
		grader:    grader,
		logger:    logger,
		validator: validator,
	}
}

// Submit grades and records one student response. Grading cannot fail the
// submission: every grader failure degrades to a zero score, and the response
// row is written regardless. The question only needs to exist and the session
// to be active; an instance that closed mid-flight does not reject the answer.
func (s *submissionService) Submit(ctx context.Context, sessionID, questionID uint, req *SubmitResponseRequest) (*SubmissionResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err.Error())
	}

	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("question", questionID)
		}
		return nil, NewStorageError("failed to get question", err)
	}

	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("session", sessionID)
		}
		return nil, NewStorageError("failed to get session", err)
	}
	if session.Status != models.SessionActive {
		return nil, NewConflictError("session is not active")
	}

	result := s.grader.Grade(ctx, question.Text, question.GradingCriteria, req.ResponseText, session.AIModel)

	response := &models.StudentResponse{
		SessionID:         sessionID,
		QuestionID:        questionID,
		SessionQuestionID: s.latestOpenInstance(ctx, sessionID, questionID),
		StudentName:       req.StudentName,
		ResponseText:      req.ResponseText,
		AIScore:           result.Score,
		AIFeedback:        result.Feedback,
	}
	if result.Raw != "" {
		// Marshalled as a JSON string so malformed grader output still fits
		// the jsonb column.
		if raw, err := json.Marshal(result.Raw); err == nil {
			response.AIRaw = datatypes.JSON(raw)
		}
	}

	if err := s.repo.Response().Create(ctx, response); err != nil {
		return nil, NewStorageError("failed to record response", err)
	}

	s.logger.Info("Response recorded",
		"session_id", sessionID,
		"question_id", questionID,
		"response_id", response.ID,
		"score", result.Score)

	return &SubmissionResult{
		ResponseID: response.ID,
		Score:      result.Score,
		Feedback:   result.Feedback,
	}, nil
}

// latestOpenInstance links the response to the newest open launch of the
// question, zero when none is open.
func (s *submissionService) latestOpenInstance(ctx context.Context, sessionID, questionID uint) uint {
	instances, err := s.repo.SessionQuestion().ListOpen(ctx, sessionID)
	if err != nil {
		s.logger.Warn("Failed to resolve open instance for response", "session_id", sessionID, "error", err)
		return 0
	}

	var latest uint
	for _, instance := range instances {
		if instance.QuestionID == questionID && instance.ID > latest {
			latest = instance.ID
		}
	}
	return latest
}

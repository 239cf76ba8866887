package services

import (
	"context"
	"log/slog"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
	"github.com/classpulse/feedback-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err.Error())
	}

	if req.CollectionID != 0 {
		if _, err := s.repo.Collection().GetByID(ctx, req.CollectionID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewNotFoundError("collection", req.CollectionID)
			}
			return nil, NewStorageError("failed to get collection", err)
		}
	}

	question := &models.Question{
		Text:            req.Text,
		GradingCriteria: req.GradingCriteria,
		CollectionID:    req.CollectionID,
	}
	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, NewStorageError("failed to create question", err)
	}

	s.logger.Info("Question created", "question_id", question.ID, "collection_id", question.CollectionID)
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("question", id)
		}
		return nil, NewStorageError("failed to get question", err)
	}
	return question, nil
}

func (s *questionService) List(ctx context.Context) ([]*models.Question, error) {
	questions, err := s.repo.Question().GetAll(ctx)
	if err != nil {
		return nil, NewStorageError("failed to list questions", err)
	}
	return questions, nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err.Error())
	}

	question, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	question.Text = req.Text
	question.GradingCriteria = req.GradingCriteria
	if req.CollectionID != 0 {
		if _, err := s.repo.Collection().GetByID(ctx, req.CollectionID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewNotFoundError("collection", req.CollectionID)
			}
			return nil, NewStorageError("failed to get collection", err)
		}
		question.CollectionID = req.CollectionID
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("question", id)
		}
		return nil, NewStorageError("failed to update question", err)
	}

	s.logger.Info("Question updated", "question_id", id)
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Question().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("question", id)
		}
		return NewStorageError("failed to delete question", err)
	}

	s.logger.Info("Question deleted", "question_id", id)
	return nil
}

package services

import (
	"context"
	"log/slog"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
	"github.com/classpulse/feedback-service/internal/validator"
)

type collectionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCollectionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CollectionService {
	return &collectionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *collectionService) Create(ctx context.Context, req *CreateCollectionRequest) (*models.Collection, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err.Error())
	}

	collection := &models.Collection{Name: req.Name}
	if err := s.repo.Collection().Create(ctx, collection); err != nil {
		return nil, NewStorageError("failed to create collection", err)
	}

	s.logger.Info("Collection created", "collection_id", collection.ID, "name", collection.Name)
	return collection, nil
}

func (s *collectionService) List(ctx context.Context) ([]*models.Collection, error) {
	collections, err := s.repo.Collection().GetAllWithCounts(ctx)
	if err != nil {
		return nil, NewStorageError("failed to list collections", err)
	}
	return collections, nil
}

func (s *collectionService) Rename(ctx context.Context, id uint, req *RenameCollectionRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return NewValidationError(err.Error())
	}
	if id == models.DefaultCollectionID {
		return NewConflictError("the default collection cannot be renamed")
	}

	if err := s.repo.Collection().Rename(ctx, id, req.Name); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("collection", id)
		}
		return NewStorageError("failed to rename collection", err)
	}

	s.logger.Info("Collection renamed", "collection_id", id, "name", req.Name)
	return nil
}

// Delete removes a collection after resolving its questions: moved to another
// collection or deleted with it. Both dispositions run in one transaction so
// a failure leaves the collection and its questions untouched.
func (s *collectionService) Delete(ctx context.Context, id uint, disposition string, targetID uint) error {
	if id == models.DefaultCollectionID {
		return NewConflictError("the default collection cannot be deleted")
	}

	if _, err := s.repo.Collection().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("collection", id)
		}
		return NewStorageError("failed to get collection", err)
	}

	switch disposition {
	case DispositionMove:
		if targetID == 0 {
			return NewValidationError("target_id is required when moving questions")
		}
		if targetID == id {
			return NewValidationError("cannot move questions to the collection being deleted")
		}
		if _, err := s.repo.Collection().GetByID(ctx, targetID); err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError("collection", targetID)
			}
			return NewStorageError("failed to get target collection", err)
		}

		err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			if err := tx.Collection().ReassignQuestions(ctx, id, targetID); err != nil {
				return err
			}
			return tx.Collection().Delete(ctx, id)
		})
		if err != nil {
			return NewStorageError("failed to delete collection", err)
		}

		s.logger.Info("Collection deleted, questions moved", "collection_id", id, "target_id", targetID)
		return nil

	case DispositionPurge:
		err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			if err := tx.Collection().PurgeQuestions(ctx, id); err != nil {
				return err
			}
			return tx.Collection().Delete(ctx, id)
		})
		if err != nil {
			return NewStorageError("failed to delete collection", err)
		}

		s.logger.Info("Collection deleted with questions", "collection_id", id)
		return nil

	default:
		return NewValidationError("action must be 'move' or 'delete'")
	}
}

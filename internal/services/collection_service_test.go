package services

import (
	"context"
	"errors"
	"testing"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/repositories"
	"github.com/classpulse/feedback-service/internal/validator"
)

func newTestCollectionService(t *testing.T, repo repositories.Repository) CollectionService {
	t.Helper()
	return NewCollectionService(repo, discardLogger(), validator.New())
}

func TestDefaultCollectionIsProtected(t *testing.T) {
	svc := newTestCollectionService(t, newTestRepo(t))
	ctx := context.Background()

	err := svc.Rename(ctx, models.DefaultCollectionID, &RenameCollectionRequest{Name: "Renamed"})
	if !IsConflict(err) {
		t.Errorf("renaming default returned %v, want conflict", err)
	}

	err = svc.Delete(ctx, models.DefaultCollectionID, DispositionPurge, 0)
	if !IsConflict(err) {
		t.Errorf("deleting default returned %v, want conflict", err)
	}
}

func TestRenameCollection(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestCollectionService(t, repo)
	ctx := context.Background()

	collection := mustCreateCollection(t, repo, "Before")

	if err := svc.Rename(ctx, collection.ID, &RenameCollectionRequest{Name: "After"}); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	updated, err := repo.Collection().GetByID(ctx, collection.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Name != "After" {
		t.Errorf("name = %q, want After", updated.Name)
	}

	if err := svc.Rename(ctx, 999, &RenameCollectionRequest{Name: "X"}); !IsNotFound(err) {
		t.Errorf("renaming missing collection returned %v, want not found", err)
	}
}

func TestDeleteCollectionMove(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestCollectionService(t, repo)
	ctx := context.Background()

	source := mustCreateCollection(t, repo, "Source")
	target := mustCreateCollection(t, repo, "Target")
	mustCreateQuestion(t, repo, "Q1", source.ID)
	mustCreateQuestion(t, repo, "Q2", source.ID)

	if err := svc.Delete(ctx, source.ID, DispositionMove, target.ID); err != nil {
		t.Fatalf("Delete move: %v", err)
	}

	if _, err := repo.Collection().GetByID(ctx, source.ID); !repositories.IsNotFoundError(err) {
		t.Errorf("source lookup returned %v, want not found", err)
	}

	moved, err := repo.Question().GetByCollection(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByCollection: %v", err)
	}
	if len(moved) != 2 {
		t.Errorf("target holds %d questions, want 2", len(moved))
	}
}

func TestDeleteCollectionPurge(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestCollectionService(t, repo)
	ctx := context.Background()

	doomed := mustCreateCollection(t, repo, "Doomed")
	question := mustCreateQuestion(t, repo, "Q1", doomed.ID)

	if err := svc.Delete(ctx, doomed.ID, DispositionPurge, 0); err != nil {
		t.Fatalf("Delete purge: %v", err)
	}

	if _, err := repo.Question().GetByID(ctx, question.ID); !repositories.IsNotFoundError(err) {
		t.Errorf("purged question lookup returned %v, want not found", err)
	}
}

func TestDeleteCollectionRejectsBadDispositions(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestCollectionService(t, repo)
	ctx := context.Background()

	collection := mustCreateCollection(t, repo, "C")
	tests := []struct {
		name        string
		disposition string
		targetID    uint
	}{
		{"unknown action", "archive", 0},
		{"move without target", DispositionMove, 0},
		{"move to self", DispositionMove, collection.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Delete(ctx, collection.ID, tt.disposition, tt.targetID); !IsValidation(err) {
				t.Errorf("Delete returned %v, want validation error", err)
			}
		})
	}

	if err := svc.Delete(ctx, collection.ID, DispositionMove, 999); !IsNotFound(err) {
		t.Errorf("move to missing target returned %v, want not found", err)
	}
}

func TestDispositionRollsBackOnFailure(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	source := mustCreateCollection(t, repo, "Source")
	target := mustCreateCollection(t, repo, "Target")
	mustCreateQuestion(t, repo, "Q1", source.ID)

	// A failure after the reassignment must leave questions where they were.
	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Collection().ReassignQuestions(ctx, source.ID, target.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction returned %v, want boom", err)
	}

	remaining, err := repo.Question().GetByCollection(ctx, source.ID)
	if err != nil {
		t.Fatalf("GetByCollection: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("source holds %d questions after rollback, want 1", len(remaining))
	}
}

func TestListCollectionsWithCounts(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestCollectionService(t, repo)
	ctx := context.Background()

	extra := mustCreateCollection(t, repo, "Extra")
	mustCreateQuestion(t, repo, "Q1", extra.ID)
	mustCreateQuestion(t, repo, "Q2", extra.ID)
	mustCreateQuestion(t, repo, "Q3", 0) // lands in the default collection

	collections, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(collections) != 2 {
		t.Fatalf("len(collections) = %d, want 2", len(collections))
	}

	counts := make(map[uint]int)
	for _, c := range collections {
		counts[c.ID] = c.QuestionCount
	}
	if counts[models.DefaultCollectionID] != 1 {
		t.Errorf("default count = %d, want 1", counts[models.DefaultCollectionID])
	}
	if counts[extra.ID] != 2 {
		t.Errorf("extra count = %d, want 2", counts[extra.ID])
	}
}

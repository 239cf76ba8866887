package services

import (
	"context"
	"testing"
	"time"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/realtime"
	"github.com/classpulse/feedback-service/internal/validator"
)

func TestCreateSessionGeneratesCode(t *testing.T) {
	svc := newTestSessionService(t, newTestRepo(t))

	session := mustCreateSession(t, svc, "openai/gpt-4o")

	if len(session.Code) != 6 {
		t.Errorf("code %q has length %d, want 6", session.Code, len(session.Code))
	}
	for _, r := range session.Code {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			t.Errorf("code %q contains %q outside A-Z0-9", session.Code, r)
		}
	}
	if session.Status != models.SessionActive {
		t.Errorf("status = %q, want active", session.Status)
	}
}

func TestCreateSessionSingleActiveConflict(t *testing.T) {
	svc := newTestSessionService(t, newTestRepo(t))
	ctx := context.Background()

	first := mustCreateSession(t, svc, "openai/gpt-4o")

	if _, err := svc.Create(ctx, &CreateSessionRequest{AIModel: "openai/gpt-4o"}); !IsConflict(err) {
		t.Fatalf("second create returned %v, want conflict", err)
	}

	if err := svc.End(ctx, first.ID); err != nil {
		t.Fatalf("End: %v", err)
	}

	if _, err := svc.Create(ctx, &CreateSessionRequest{AIModel: "openai/gpt-4o"}); err != nil {
		t.Fatalf("create after end returned %v, want success", err)
	}
}

func TestJoinByCode(t *testing.T) {
	svc := newTestSessionService(t, newTestRepo(t))
	ctx := context.Background()

	session := mustCreateSession(t, svc, "openai/gpt-4o")

	joined, err := svc.JoinByCode(ctx, session.Code)
	if err != nil {
		t.Fatalf("JoinByCode: %v", err)
	}
	if joined.ID != session.ID {
		t.Errorf("joined session %d, want %d", joined.ID, session.ID)
	}

	if _, err := svc.JoinByCode(ctx, "ZZZZZZ"); !IsNotFound(err) {
		t.Errorf("unknown code returned %v, want not found", err)
	}

	if err := svc.End(ctx, session.ID); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := svc.JoinByCode(ctx, session.Code); !IsConflict(err) {
		t.Errorf("joining ended session returned %v, want conflict", err)
	}
}

func TestLaunchAndCloseLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestSessionService(t, repo)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "openai/gpt-4o")
	question := mustCreateQuestion(t, repo, "What is a goroutine?", 0)

	first, err := svc.LaunchQuestion(ctx, session.ID, question.ID)
	if err != nil {
		t.Fatalf("LaunchQuestion: %v", err)
	}

	// Relaunching the same question yields an independent instance.
	second, err := svc.LaunchQuestion(ctx, session.ID, question.ID)
	if err != nil {
		t.Fatalf("second LaunchQuestion: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("relaunch reused the instance id")
	}

	active, err := svc.ActiveQuestions(ctx, session.ID)
	if err != nil {
		t.Fatalf("ActiveQuestions: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(active))
	}
	if active[0].Text != "What is a goroutine?" {
		t.Errorf("active question text = %q", active[0].Text)
	}

	if err := svc.CloseQuestion(ctx, session.ID, first.ID); err != nil {
		t.Fatalf("CloseQuestion: %v", err)
	}
	// Closing again is a no-op, not an error.
	if err := svc.CloseQuestion(ctx, session.ID, first.ID); err != nil {
		t.Fatalf("repeated CloseQuestion: %v", err)
	}

	active, err = svc.ActiveQuestions(ctx, session.ID)
	if err != nil {
		t.Fatalf("ActiveQuestions: %v", err)
	}
	if len(active) != 1 || active[0].SessionQuestionID != second.ID {
		t.Fatalf("active after close = %+v, want only instance %d", active, second.ID)
	}

	if err := svc.CloseAll(ctx, session.ID); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	active, err = svc.ActiveQuestions(ctx, session.ID)
	if err != nil {
		t.Fatalf("ActiveQuestions: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active after CloseAll = %+v, want none", active)
	}
}

func TestLaunchQuestionUnknownTargets(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestSessionService(t, repo)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "openai/gpt-4o")

	if _, err := svc.LaunchQuestion(ctx, session.ID, 999); !IsNotFound(err) {
		t.Errorf("unknown question returned %v, want not found", err)
	}

	question := mustCreateQuestion(t, repo, "Q", 0)
	if _, err := svc.LaunchQuestion(ctx, 999, question.ID); !IsNotFound(err) {
		t.Errorf("unknown session returned %v, want not found", err)
	}
}

func TestLaunchCollection(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestSessionService(t, repo)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "openai/gpt-4o")
	collection := mustCreateCollection(t, repo, "Warmup")

	// Empty collections cannot be launched.
	if _, err := svc.LaunchCollection(ctx, session.ID, collection.ID); !IsNotFound(err) {
		t.Fatalf("empty collection returned %v, want not found", err)
	}

	for _, text := range []string{"Q1", "Q2", "Q3"} {
		mustCreateQuestion(t, repo, text, collection.ID)
	}

	instances, err := svc.LaunchCollection(ctx, session.ID, collection.ID)
	if err != nil {
		t.Fatalf("LaunchCollection: %v", err)
	}
	if len(instances) != 3 {
		t.Fatalf("launched %d instances, want 3", len(instances))
	}

	active, err := svc.ActiveQuestions(ctx, session.ID)
	if err != nil {
		t.Fatalf("ActiveQuestions: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("len(active) = %d, want 3", len(active))
	}
}

func TestEndSessionLeavesInstancesOpen(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestSessionService(t, repo)
	ctx := context.Background()

	session := mustCreateSession(t, svc, "openai/gpt-4o")
	question := mustCreateQuestion(t, repo, "Q", 0)
	if _, err := svc.LaunchQuestion(ctx, session.ID, question.ID); err != nil {
		t.Fatalf("LaunchQuestion: %v", err)
	}

	if err := svc.End(ctx, session.ID); err != nil {
		t.Fatalf("End: %v", err)
	}

	// Ending does not cascade onto instance rows; the session status alone
	// gates the student surface.
	open, err := repo.SessionQuestion().ListOpen(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open instances after end = %d, want 1", len(open))
	}
}

func TestDeleteSessionOnlyWhenClosed(t *testing.T) {
	svc := newTestSessionService(t, newTestRepo(t))
	ctx := context.Background()

	session := mustCreateSession(t, svc, "openai/gpt-4o")

	if err := svc.Delete(ctx, session.ID); !IsConflict(err) {
		t.Fatalf("deleting active session returned %v, want conflict", err)
	}

	if err := svc.End(ctx, session.ID); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := svc.Delete(ctx, session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByCode(ctx, session.Code); !IsNotFound(err) {
		t.Errorf("deleted session lookup returned %v, want not found", err)
	}
}

func TestStateChangesBroadcastFullSnapshots(t *testing.T) {
	repo := newTestRepo(t)
	broker := newTestBroker(t)
	svc := NewSessionService(repo, broker, discardLogger(), validator.New())
	ctx := context.Background()

	events, err := broker.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	next := func() models.SessionEvent {
		t.Helper()
		select {
		case msg := <-events:
			event, err := realtime.DecodeEvent(msg)
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			msg.Ack()
			return event
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for broadcast")
			return models.SessionEvent{}
		}
	}

	session := mustCreateSession(t, svc, "openai/gpt-4o")
	question := mustCreateQuestion(t, repo, "Q", 0)

	if _, err := svc.LaunchQuestion(ctx, session.ID, question.ID); err != nil {
		t.Fatalf("LaunchQuestion: %v", err)
	}
	event := next()
	if event.Type != models.EventActiveQuestions || len(event.Questions) != 1 {
		t.Fatalf("launch broadcast = %+v, want one active question", event)
	}

	if err := svc.CloseAll(ctx, session.ID); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	event = next()
	if event.Type != models.EventActiveQuestions {
		t.Fatalf("close broadcast type = %q", event.Type)
	}
	if event.Questions == nil || len(event.Questions) != 0 {
		t.Fatalf("close broadcast questions = %v, want empty non-nil snapshot", event.Questions)
	}

	if err := svc.End(ctx, session.ID); err != nil {
		t.Fatalf("End: %v", err)
	}
	if event = next(); event.Type != models.EventSessionEnded {
		t.Fatalf("end broadcast type = %q, want %q", event.Type, models.EventSessionEnded)
	}
}

package services

import (
	"context"
	"testing"

	"github.com/classpulse/feedback-service/internal/validator"
)

func TestSubmitRecordsGradedResponse(t *testing.T) {
	repo := newTestRepo(t)
	sessions := newTestSessionService(t, repo)
	submissions := NewSubmissionService(repo, newTestGrader(), discardLogger(), validator.New())
	ctx := context.Background()

	session := mustCreateSession(t, sessions, "test-model")
	question := mustCreateQuestion(t, repo, "What is a goroutine?", 0)
	instance, err := sessions.LaunchQuestion(ctx, session.ID, question.ID)
	if err != nil {
		t.Fatalf("LaunchQuestion: %v", err)
	}

	result, err := submissions.Submit(ctx, session.ID, question.ID, &SubmitResponseRequest{
		StudentName:  "Alice",
		ResponseText: "A lightweight thread managed by the runtime.",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if result.Score != 3 {
		t.Errorf("Score = %d, want 3", result.Score)
	}
	if result.Feedback != "This is mocked feedback for the E2E test suite." {
		t.Errorf("Feedback = %q", result.Feedback)
	}
	if result.ResponseID == 0 {
		t.Error("ResponseID not set")
	}

	responses, err := repo.Response().GetForQuestion(ctx, session.ID, question.ID)
	if err != nil {
		t.Fatalf("GetForQuestion: %v", err)
	}
	if len(responses) != 1 {
		t.Fatalf("len(responses) = %d, want 1", len(responses))
	}
	if responses[0].StudentName != "Alice" {
		t.Errorf("StudentName = %q", responses[0].StudentName)
	}
	if responses[0].SessionQuestionID != instance.ID {
		t.Errorf("SessionQuestionID = %d, want %d", responses[0].SessionQuestionID, instance.ID)
	}
}

func TestSubmitAllowsResubmission(t *testing.T) {
	repo := newTestRepo(t)
	sessions := newTestSessionService(t, repo)
	submissions := NewSubmissionService(repo, newTestGrader(), discardLogger(), validator.New())
	ctx := context.Background()

	session := mustCreateSession(t, sessions, "test-model")
	question := mustCreateQuestion(t, repo, "Q", 0)

	req := &SubmitResponseRequest{StudentName: "Bob", ResponseText: "first"}
	if _, err := submissions.Submit(ctx, session.ID, question.ID, req); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	req.ResponseText = "second"
	if _, err := submissions.Submit(ctx, session.ID, question.ID, req); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	responses, err := repo.Response().GetForQuestion(ctx, session.ID, question.ID)
	if err != nil {
		t.Fatalf("GetForQuestion: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("len(responses) = %d, want 2 independent rows", len(responses))
	}
}

func TestSubmitRejections(t *testing.T) {
	repo := newTestRepo(t)
	sessions := newTestSessionService(t, repo)
	submissions := NewSubmissionService(repo, newTestGrader(), discardLogger(), validator.New())
	ctx := context.Background()

	session := mustCreateSession(t, sessions, "test-model")
	question := mustCreateQuestion(t, repo, "Q", 0)
	req := &SubmitResponseRequest{StudentName: "Carol", ResponseText: "answer"}

	if _, err := submissions.Submit(ctx, session.ID, 999, req); !IsNotFound(err) {
		t.Errorf("unknown question returned %v, want not found", err)
	}
	if _, err := submissions.Submit(ctx, 999, question.ID, req); !IsNotFound(err) {
		t.Errorf("unknown session returned %v, want not found", err)
	}
	if _, err := submissions.Submit(ctx, session.ID, question.ID, &SubmitResponseRequest{}); !IsValidation(err) {
		t.Errorf("empty payload returned %v, want validation error", err)
	}

	if err := sessions.End(ctx, session.ID); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := submissions.Submit(ctx, session.ID, question.ID, req); !IsConflict(err) {
		t.Errorf("submission to ended session returned %v, want conflict", err)
	}
}

// TestClassroomRoundTrip runs the full flow: launch, answer, inspect results.
func TestClassroomRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	sessions := newTestSessionService(t, repo)
	submissions := NewSubmissionService(repo, newTestGrader(), discardLogger(), validator.New())
	ctx := context.Background()

	session := mustCreateSession(t, sessions, "test-model")
	question := mustCreateQuestion(t, repo, "Explain channels.", 0)

	joined, err := sessions.JoinByCode(ctx, session.Code)
	if err != nil {
		t.Fatalf("JoinByCode: %v", err)
	}

	if _, err := sessions.LaunchQuestion(ctx, joined.ID, question.ID); err != nil {
		t.Fatalf("LaunchQuestion: %v", err)
	}

	active, err := sessions.ActiveQuestions(ctx, joined.ID)
	if err != nil {
		t.Fatalf("ActiveQuestions: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("len(active) = %d, want 1", len(active))
	}

	if _, err := submissions.Submit(ctx, joined.ID, active[0].QuestionID, &SubmitResponseRequest{
		StudentName:  "Dave",
		ResponseText: "Channels move values between goroutines.",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	results, err := sessions.FetchResults(ctx, joined.ID)
	if err != nil {
		t.Fatalf("FetchResults: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].QuestionText != "Explain channels." {
		t.Errorf("QuestionText = %q", results[0].QuestionText)
	}
	if len(results[0].Responses) != 1 {
		t.Fatalf("len(responses) = %d, want 1", len(results[0].Responses))
	}

	response := results[0].Responses[0]
	if response.StudentName != "Dave" || response.AIScore != 3 {
		t.Errorf("response = %+v, want Dave with score 3", response)
	}
	if response.AIFeedback != "This is mocked feedback for the E2E test suite." {
		t.Errorf("AIFeedback = %q", response.AIFeedback)
	}
}

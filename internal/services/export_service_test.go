package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/classpulse/feedback-service/internal/validator"
)

func buildExportFixture(t *testing.T) (ExportService, uint) {
	t.Helper()

	repo := newTestRepo(t)
	sessions := newTestSessionService(t, repo)
	submissions := NewSubmissionService(repo, newTestGrader(), discardLogger(), validator.New())
	ctx := context.Background()

	session := mustCreateSession(t, sessions, "test-model")
	question := mustCreateQuestion(t, repo, "Explain channels.", 0)

	// Launch twice: export must still list each response once.
	if _, err := sessions.LaunchQuestion(ctx, session.ID, question.ID); err != nil {
		t.Fatalf("LaunchQuestion: %v", err)
	}
	if _, err := sessions.LaunchQuestion(ctx, session.ID, question.ID); err != nil {
		t.Fatalf("LaunchQuestion: %v", err)
	}

	for _, student := range []string{"Alice", "Bob"} {
		if _, err := submissions.Submit(ctx, session.ID, question.ID, &SubmitResponseRequest{
			StudentName:  student,
			ResponseText: "An answer from " + student,
		}); err != nil {
			t.Fatalf("Submit for %s: %v", student, err)
		}
	}

	return NewExportService(sessions, discardLogger()), session.ID
}

func TestCSVExport(t *testing.T) {
	svc, sessionID := buildExportFixture(t)

	data, err := svc.CSV(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse exported CSV: %v", err)
	}

	wantHeader := []string{"Question", "Student Name", "Response", "AI Score", "AI Feedback", "Timestamp"}
	if len(records) == 0 {
		t.Fatal("export has no rows")
	}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}

	if len(records) != 3 {
		t.Fatalf("exported %d rows, want header plus 2 responses", len(records)-1)
	}
	if records[1][0] != "Explain channels." || records[1][1] != "Alice" || records[1][3] != "3" {
		t.Errorf("first data row = %v", records[1])
	}
	if records[2][1] != "Bob" {
		t.Errorf("second data row = %v", records[2])
	}
}

func TestXLSXExport(t *testing.T) {
	svc, sessionID := buildExportFixture(t)

	file, err := svc.XLSX(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}

	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("sheet has %d rows, want header plus 2 responses", len(rows))
	}
	if rows[0][0] != "Question" {
		t.Errorf("header cell = %q, want Question", rows[0][0])
	}
	if rows[1][1] != "Alice" || rows[2][1] != "Bob" {
		t.Errorf("data rows = %v / %v", rows[1], rows[2])
	}
}

func TestExportUnknownSession(t *testing.T) {
	repo := newTestRepo(t)
	sessions := newTestSessionService(t, repo)
	svc := NewExportService(sessions, discardLogger())

	if _, err := svc.CSV(context.Background(), 999); !IsNotFound(err) {
		t.Errorf("CSV for unknown session returned %v, want not found", err)
	}
}

package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"Question", "Student Name", "Response", "AI Score", "AI Feedback", "Timestamp"}

type exportService struct {
	sessions SessionService
	logger   *slog.Logger
}

func NewExportService(sessions SessionService, logger *slog.Logger) ExportService {
	return &exportService{
		sessions: sessions,
		logger:   logger,
	}
}

// CSV renders every response of a session, one row per response, grouped by
// launched question.
func (s *exportService) CSV(ctx context.Context, sessionID uint) ([]byte, error) {
	rows, err := s.rows(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}

	s.logger.Info("Session exported as CSV", "session_id", sessionID, "rows", len(rows))
	return buf.Bytes(), nil
}

// XLSX renders the same rows as CSV into a single-sheet workbook.
func (s *exportService) XLSX(ctx context.Context, sessionID uint) (*excelize.File, error) {
	rows, err := s.rows(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	writeRow := func(rowIdx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		converted := make([]interface{}, len(values))
		for i, v := range values {
			converted[i] = v
		}
		return f.SetSheetRow(sheet, cell, &converted)
	}

	if err := writeRow(1, exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	s.logger.Info("Session exported as XLSX", "session_id", sessionID, "rows", len(rows))
	return f, nil
}

func (s *exportService) rows(ctx context.Context, sessionID uint) ([][]string, error) {
	results, err := s.sessions.FetchResults(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Repeated launches of one question share a response list; export each
	// question's responses once.
	seen := make(map[uint]bool)

	var rows [][]string
	for _, result := range results {
		if seen[result.QuestionID] {
			continue
		}
		seen[result.QuestionID] = true
		for _, response := range result.Responses {
			rows = append(rows, []string{
				result.QuestionText,
				response.StudentName,
				response.ResponseText,
				strconv.Itoa(response.AIScore),
				response.AIFeedback,
				response.CreatedAt.Format(time.RFC3339),
			})
		}
	}
	return rows, nil
}

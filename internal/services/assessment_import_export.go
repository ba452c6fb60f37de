package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet layout for bulk question exchange. One question per row:
// question | option 1..4 (blank options skipped) | correct option number (1-based) | explanation
var questionSheetHeaders = []string{"Question", "Option 1", "Option 2", "Option 3", "Option 4", "Correct Option", "Explanation"}

const maxQuestionOptions = 4

func (s *assessmentService) ImportQuestions(ctx context.Context, quizID string, data []byte, managerID string) (int, error) {
	school, err := s.managedSchool(ctx, managerID)
	if err != nil {
		return 0, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrQuizNotFound
		}
		return 0, fmt.Errorf("failed to load quiz: %w", err)
	}
	if quiz.SchoolID != school.ID {
		return 0, NewPermissionError(managerID, "quiz", "import", "quiz belongs to another school")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return 0, NewBusinessRuleError("question_sheet_format", "file is not a readable spreadsheet")
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet: %w", err)
	}

	imported, errs := parseQuestionRows(rows)
	if errs.HasErrors() {
		return 0, errs
	}
	if len(imported) == 0 {
		return 0, NewBusinessRuleError("question_sheet_empty", "spreadsheet contains no questions")
	}

	existing, err := quiz.GetQuestions()
	if err != nil {
		return 0, fmt.Errorf("failed to decode questions: %w", err)
	}
	if err := quiz.SetQuestions(append(existing, imported...)); err != nil {
		return 0, fmt.Errorf("failed to encode questions: %w", err)
	}

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return 0, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("questions imported", "quiz_id", quizID, "count", len(imported))
	return len(imported), nil
}

func (s *assessmentService) ExportQuestions(ctx context.Context, quizID, managerID string) ([]byte, error) {
	school, err := s.managedSchool(ctx, managerID)
	if err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	if quiz.SchoolID != school.ID {
		return nil, NewPermissionError(managerID, "quiz", "export", "quiz belongs to another school")
	}

	questions, err := quiz.GetQuestions()
	if err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for col, header := range questionSheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, q := range questions {
		row := i + 2
		values := make([]interface{}, len(questionSheetHeaders))
		values[0] = q.Question
		for j := 0; j < maxQuestionOptions; j++ {
			if j < len(q.Options) {
				values[j+1] = q.Options[j]
			}
		}
		values[5] = q.CorrectAnswer + 1
		values[6] = q.Explanation

		for col, value := range values {
			if value == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sheet: %w", err)
	}
	return buf.Bytes(), nil
}

// parseQuestionRows converts sheet rows into questions, skipping the header
// row and blank rows. Errors carry 1-based row numbers for the uploader.
func parseQuestionRows(rows [][]string) ([]models.QuizQuestion, ValidationErrors) {
	var questions []models.QuizQuestion
	var errs ValidationErrors

	for i, row := range rows {
		if i == 0 && isHeaderRow(row) {
			continue
		}
		if rowIsBlank(row) {
			continue
		}

		rowNum := i + 1
		q := models.QuizQuestion{Question: strings.TrimSpace(cellAt(row, 0))}
		if q.Question == "" {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("row %d", rowNum),
				Message: "question text is required",
				Rule:    "required",
			})
			continue
		}

		for j := 1; j <= maxQuestionOptions; j++ {
			if opt := strings.TrimSpace(cellAt(row, j)); opt != "" {
				q.Options = append(q.Options, opt)
			}
		}
		if len(q.Options) < 2 {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("row %d", rowNum),
				Message: "at least two options are required",
				Rule:    "min_options",
			})
			continue
		}

		correct, err := strconv.Atoi(strings.TrimSpace(cellAt(row, 5)))
		if err != nil || correct < 1 || correct > len(q.Options) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("row %d", rowNum),
				Message: fmt.Sprintf("correct option must be a number between 1 and %d", len(q.Options)),
				Value:   cellAt(row, 5),
				Rule:    "answer_in_range",
			})
			continue
		}
		q.CorrectAnswer = correct - 1
		q.Explanation = strings.TrimSpace(cellAt(row, 6))

		questions = append(questions, q)
	}

	return questions, errs
}

func isHeaderRow(row []string) bool {
	return strings.EqualFold(strings.TrimSpace(cellAt(row, 0)), questionSheetHeaders[0])
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

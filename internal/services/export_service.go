package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/SAP-F-2025/gradebook-service/internal/events"
	"github.com/SAP-F-2025/gradebook-service/internal/models"
	"github.com/SAP-F-2025/gradebook-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// ExportService produces grade sheets for a whole gradebook: one row per
// enrollment, one column per root category plus the final grade.
type ExportService interface {
	ExportGrades(ctx context.Context, gradebookID uint, format string, actorID uint) (*GradeExport, error)
}

// GradeExport is a rendered grade sheet ready to stream to the caller.
type GradeExport struct {
	FileName    string
	ContentType string
	Data        []byte
}

type exportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.EventPublisher
}

func NewExportService(repo repositories.Repository, logger *slog.Logger, publisher events.EventPublisher) ExportService {
	return &exportService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
	}
}

func (s *exportService) ExportGrades(ctx context.Context, gradebookID uint, format string, actorID uint) (*GradeExport, error) {
	s.logger.Info("Exporting grade sheet", "gradebook_id", gradebookID, "format", format, "actor_id", actorID)

	if format != "csv" && format != "xlsx" {
		return nil, NewValidationError("format", "unsupported export format", format)
	}

	sheet, err := s.buildGradeSheet(ctx, gradebookID)
	if err != nil {
		return nil, err
	}

	var export *GradeExport
	if format == "csv" {
		export, err = renderCSV(gradebookID, sheet)
	} else {
		export, err = renderExcel(gradebookID, sheet)
	}
	if err != nil {
		return nil, err
	}

	s.publishExported(ctx, gradebookID, format, len(sheet.rows), actorID)

	return export, nil
}

// gradeSheet is the format-independent table both renderers consume.
type gradeSheet struct {
	headers []string
	rows    [][]interface{}
}

func (s *exportService) buildGradeSheet(ctx context.Context, gradebookID uint) (*gradeSheet, error) {
	exists, err := s.repo.Gradebook().Exists(ctx, gradebookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check gradebook: %w", err)
	}
	if !exists {
		return nil, ErrGradebookNotFound
	}

	categories, err := s.repo.Category().ListByGradebook(ctx, gradebookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	items, err := s.repo.Item().ListByGradebook(ctx, gradebookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	enrollments, err := s.repo.Score().ListEnrollments(ctx, gradebookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	// One column per root category, in display order, then the totals.
	var roots []*models.GradebookCategory
	for _, c := range categories {
		if c.ParentID == nil {
			roots = append(roots, c)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].SortOrder < roots[j].SortOrder })

	headers := []string{"Enrollment ID"}
	for _, root := range roots {
		headers = append(headers, root.Name+" (%)")
	}
	headers = append(headers, "Final (%)", "Earned Points", "Possible Points")

	sheet := &gradeSheet{headers: headers}

	for _, enrollmentID := range enrollments {
		scores, err := s.repo.Score().GetByEnrollment(ctx, gradebookID, enrollmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load scores for enrollment %d: %w", enrollmentID, err)
		}
		scoreSet := models.ToScoreSet(scores)

		row := []interface{}{enrollmentID}

		for _, root := range roots {
			result, err := ComputeGrade(&root.ID, categories, items, scoreSet)
			if err != nil {
				return nil, err
			}
			row = append(row, percentageCell(result.Percentage))
		}

		final, err := ComputeGrade(nil, categories, items, scoreSet)
		if err != nil {
			return nil, err
		}
		row = append(row,
			percentageCell(final.Percentage),
			final.EarnedPoints,
			final.PossiblePoints,
		)

		sheet.rows = append(sheet.rows, row)
	}

	return sheet, nil
}

// percentageCell renders an ungraded scope as an empty cell rather than a
// zero, so a missing grade never reads as a failing one.
func percentageCell(pct *float64) interface{} {
	if pct == nil {
		return ""
	}
	return *pct
}

func renderCSV(gradebookID uint, sheet *gradeSheet) (*GradeExport, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(sheet.headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range sheet.rows {
		record := make([]string, len(row))
		for i, value := range row {
			record[i] = csvField(value)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return &GradeExport{
		FileName:    exportFileName(gradebookID, "csv"),
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}

func csvField(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case float64:
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderExcel(gradebookID uint, sheet *gradeSheet) (*GradeExport, error) {
	f := excelize.NewFile()
	sheetName := "Grades"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range sheet.headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to address header cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, row := range sheet.rows {
		for colIndex, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			if err != nil {
				return nil, fmt.Errorf("failed to address data cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return &GradeExport{
		FileName:    exportFileName(gradebookID, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

func exportFileName(gradebookID uint, ext string) string {
	return fmt.Sprintf("gradebook_%d_grades_%s.%s", gradebookID, time.Now().UTC().Format("20060102"), ext)
}

func (s *exportService) publishExported(ctx context.Context, gradebookID uint, format string, count int, actorID uint) {
	event := events.NewGradebookEvent(events.EventGradesExported, events.GradesExportedEvent{
		GradebookID:     gradebookID,
		Format:          format,
		EnrollmentCount: count,
		ActorID:         actorID,
	})
	if err := s.publisher.PublishGradebookEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish export event", "error", err)
	}
}

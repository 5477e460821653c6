package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/SAP-F-2025/gradebook-service/internal/events"
	"github.com/SAP-F-2025/gradebook-service/internal/models"
	"github.com/SAP-F-2025/gradebook-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xuri/excelize/v2"
)

func setupExportMocks(repo *MockRepository) {
	repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	repo.category.On("ListByGradebook", mock.Anything, uint(1)).
		Return([]*models.GradebookCategory{
			{ID: 1, GradebookID: 1, Name: "Homework", Weight: floatPtr(60), SortOrder: 1},
			{ID: 2, GradebookID: 1, Name: "Exams", Weight: floatPtr(40), SortOrder: 2},
		}, nil)
	repo.item.On("ListByGradebook", mock.Anything, uint(1)).
		Return([]*models.GradebookItem{
			{ID: 10, GradebookID: 1, CategoryID: uintPtr(1), Weight: floatPtr(100), MaxGrade: 100, SortOrder: 1},
			{ID: 11, GradebookID: 1, CategoryID: uintPtr(2), Weight: floatPtr(100), MaxGrade: 100, SortOrder: 1},
		}, nil)
	repo.score.On("ListEnrollments", mock.Anything, uint(1)).Return([]uint{55, 56}, nil)
	repo.score.On("GetByEnrollment", mock.Anything, uint(1), uint(55)).
		Return([]*models.ItemScore{
			{ItemID: 10, EnrollmentID: 55, RawScore: 80},
			{ItemID: 11, EnrollmentID: 55, RawScore: 90},
		}, nil)
	// Enrollment 56 has no exam score yet.
	repo.score.On("GetByEnrollment", mock.Anything, uint(1), uint(56)).
		Return([]*models.ItemScore{
			{ItemID: 10, EnrollmentID: 56, RawScore: 70},
		}, nil)
}

func newTestExportService(repo *MockRepository, publisher *events.MockEventPublisher) ExportService {
	return NewExportService(repo, utils.ToSlogLogger(utils.NewDevelopmentLogger()), publisher)
}

func TestExportService_CSV(t *testing.T) {
	repo := newMockRepository()
	publisher := newTestPublisher()
	setupExportMocks(repo)

	service := newTestExportService(repo, publisher)
	export, err := service.ExportGrades(context.Background(), 1, "csv", 7)

	assert.NoError(t, err)
	assert.Equal(t, "text/csv", export.ContentType)
	assert.Contains(t, export.FileName, ".csv")

	records, err := csv.NewReader(bytes.NewReader(export.Data)).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, []string{"Enrollment ID", "Homework (%)", "Exams (%)", "Final (%)", "Earned Points", "Possible Points"}, records[0])

	// 80 * 0.6 + 90 * 0.4
	assert.Equal(t, []string{"55", "80.00", "90.00", "84.00", "170.00", "200.00"}, records[1])

	// The ungraded exam column stays empty and the final re-normalizes to
	// the homework grade alone.
	assert.Equal(t, []string{"56", "70.00", "", "70.00", "70.00", "100.00"}, records[2])

	published := publisher.GetPublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventGradesExported, published[0].Type)
	repo.assertExpectations(t)
}

func TestExportService_Excel(t *testing.T) {
	repo := newMockRepository()
	publisher := newTestPublisher()
	setupExportMocks(repo)

	service := newTestExportService(repo, publisher)
	export, err := service.ExportGrades(context.Background(), 1, "xlsx", 7)

	assert.NoError(t, err)
	assert.Contains(t, export.FileName, ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(export.Data))
	assert.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Grades", "B1")
	assert.NoError(t, err)
	assert.Equal(t, "Homework (%)", header)

	final, err := f.GetCellValue("Grades", "D2")
	assert.NoError(t, err)
	assert.Equal(t, "84", final)
}

func TestExportService_UnsupportedFormat(t *testing.T) {
	repo := newMockRepository()
	service := newTestExportService(repo, newTestPublisher())

	_, err := service.ExportGrades(context.Background(), 1, "pdf", 7)

	assert.Error(t, err)
	assert.True(t, IsValidation(err))
	repo.assertExpectations(t)
}

func TestExportService_MissingGradebook(t *testing.T) {
	repo := newMockRepository()
	repo.gradebook.On("Exists", mock.Anything, uint(9)).Return(false, nil)

	service := newTestExportService(repo, newTestPublisher())
	_, err := service.ExportGrades(context.Background(), 9, "csv", 7)

	assert.ErrorIs(t, err, ErrGradebookNotFound)
	repo.assertExpectations(t)
}

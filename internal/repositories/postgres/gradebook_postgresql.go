package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/gradebook-service/internal/models"
	"github.com/SAP-F-2025/gradebook-service/internal/repositories"
	"gorm.io/gorm"
)

type GradebookPostgreSQL struct {
	db *gorm.DB
}

func NewGradebookPostgreSQL(db *gorm.DB) repositories.GradebookRepository {
	return &GradebookPostgreSQL{db: db}
}

// Create creates a new gradebook for a course
func (g *GradebookPostgreSQL) Create(ctx context.Context, gradebook *models.Gradebook) error {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.Gradebook{}).
		Where("course_id = ?", gradebook.CourseID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check course gradebook: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("course %d already has a gradebook", gradebook.CourseID)
	}

	return g.db.WithContext(ctx).Create(gradebook).Error
}

// GetByID retrieves a gradebook by ID
func (g *GradebookPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Gradebook, error) {
	var gradebook models.Gradebook
	err := g.db.WithContext(ctx).First(&gradebook, id).Error
	if err != nil {
		return nil, err
	}
	return &gradebook, nil
}

// GetByCourseID retrieves the gradebook owned by a course
func (g *GradebookPostgreSQL) GetByCourseID(ctx context.Context, courseID uint) (*models.Gradebook, error) {
	var gradebook models.Gradebook
	err := g.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		First(&gradebook).Error
	if err != nil {
		return nil, err
	}
	return &gradebook, nil
}

// Update updates gradebook metadata
func (g *GradebookPostgreSQL) Update(ctx context.Context, gradebook *models.Gradebook) error {
	return g.db.WithContext(ctx).Save(gradebook).Error
}

// Delete soft deletes a gradebook
func (g *GradebookPostgreSQL) Delete(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Delete(&models.Gradebook{}, id).Error
}

// Exists checks whether a gradebook id refers to a live record
func (g *GradebookPostgreSQL) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.Gradebook{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

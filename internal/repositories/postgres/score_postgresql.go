package postgres

import (
	"context"

	"github.com/SAP-F-2025/gradebook-service/internal/models"
	"github.com/SAP-F-2025/gradebook-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScorePostgreSQL struct {
	db *gorm.DB
}

func NewScorePostgreSQL(db *gorm.DB) repositories.ScoreRepository {
	return &ScorePostgreSQL{db: db}
}

// Upsert writes a raw score, replacing any previous score for the same
// (item, enrollment) pair
func (s *ScorePostgreSQL) Upsert(ctx context.Context, score *models.ItemScore) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "enrollment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"raw_score", "graded_by", "feedback", "updated_at"}),
		}).
		Create(score).Error
}

// GetByEnrollment returns one enrollment's raw scores across a gradebook's
// items. Absent rows mean ungraded.
func (s *ScorePostgreSQL) GetByEnrollment(ctx context.Context, gradebookID, enrollmentID uint) ([]*models.ItemScore, error) {
	var scores []*models.ItemScore
	err := s.db.WithContext(ctx).
		Joins("JOIN gradebook_items gi ON gi.id = gradebook_item_scores.item_id").
		Where("gi.gradebook_id = ? AND gradebook_item_scores.enrollment_id = ?", gradebookID, enrollmentID).
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// ListEnrollments returns the distinct enrollments with at least one score
// in the gradebook, for export sheets
func (s *ScorePostgreSQL) ListEnrollments(ctx context.Context, gradebookID uint) ([]uint, error) {
	var enrollmentIDs []uint
	err := s.db.WithContext(ctx).
		Model(&models.ItemScore{}).
		Distinct("gradebook_item_scores.enrollment_id").
		Joins("JOIN gradebook_items gi ON gi.id = gradebook_item_scores.item_id").
		Where("gi.gradebook_id = ?", gradebookID).
		Order("gradebook_item_scores.enrollment_id ASC").
		Pluck("gradebook_item_scores.enrollment_id", &enrollmentIDs).Error
	if err != nil {
		return nil, err
	}
	return enrollmentIDs, nil
}

// DeleteByItem removes all scores attached to a deleted item
func (s *ScorePostgreSQL) DeleteByItem(ctx context.Context, itemID uint) error {
	return s.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.ItemScore{}).Error
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// ItemScore is one enrollment's raw score on one gradebook item. A missing
// row means the item is ungraded for that enrollment; the aggregator treats
// that as "not yet contributing", never as zero.
type ItemScore struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	ItemID       uint    `json:"item_id" gorm:"not null;uniqueIndex:idx_score_item_enrollment"`
	EnrollmentID uint    `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_score_item_enrollment"`
	RawScore     float64 `json:"raw_score" validate:"min=0"`
	GradedBy     *uint   `json:"graded_by"`
	Feedback     *string `json:"feedback" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ItemScore) TableName() string {
	return "gradebook_item_scores"
}

// ScoreSet is the per-enrollment view the aggregator consumes: item id to
// raw score, with absent keys meaning ungraded.
type ScoreSet map[uint]float64

// ToScoreSet collapses score rows into the lookup shape used by grade
// computation.
func ToScoreSet(scores []*ItemScore) ScoreSet {
	set := make(ScoreSet, len(scores))
	for _, s := range scores {
		set[s.ItemID] = s.RawScore
	}
	return set
}

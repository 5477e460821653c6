package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Gradebook owns the root scope of a course's grading scheme. There is
// exactly one gradebook per course.
type Gradebook struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;uniqueIndex"`
	Name     string `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`

	// Display/grading preferences (rounding, letter scale, release rules)
	Settings datatypes.JSON `json:"settings" gorm:"type:jsonb"`

	CreatedBy uint           `json:"created_by" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Categories []GradebookCategory `json:"categories" gorm:"foreignKey:GradebookID"`
	Items      []GradebookItem     `json:"items" gorm:"foreignKey:GradebookID"`
}

// GradebookCategory is a weighted grouping of items and subcategories.
// Weight is meaningful only relative to siblings in the same scope
// (same ParentID; nil ParentID means gradebook root).
type GradebookCategory struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	GradebookID uint     `json:"gradebook_id" gorm:"not null;index;uniqueIndex:idx_category_scope_order"`
	ParentID    *uint    `json:"parent_id" gorm:"index;uniqueIndex:idx_category_scope_order"`
	Name        string   `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string  `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Weight      *float64 `json:"weight" validate:"omitempty,min=0"`
	ExtraCredit bool     `json:"extra_credit" gorm:"default:false"`
	SortOrder   int      `json:"sort_order" gorm:"not null;uniqueIndex:idx_category_scope_order,where:deleted_at IS NULL"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Subcategories []GradebookCategory `json:"subcategories" gorm:"foreignKey:ParentID"`
	Items         []GradebookItem     `json:"items" gorm:"foreignKey:CategoryID"`
}

// GradebookItem is a leaf that carries one raw score per enrollment.
// A nil CategoryID places the item at gradebook root. Items linked to an
// external activity carry an ActivityRef; items without one are manual.
type GradebookItem struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	GradebookID uint     `json:"gradebook_id" gorm:"not null;index;uniqueIndex:idx_item_scope_order"`
	CategoryID  *uint    `json:"category_id" gorm:"index;uniqueIndex:idx_item_scope_order"`
	Name        string   `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string  `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	MaxGrade    float64  `json:"max_grade" gorm:"not null" validate:"required,gt=0"`
	MinGrade    float64  `json:"min_grade" gorm:"default:0" validate:"min=0"`
	Weight      *float64 `json:"weight" validate:"omitempty,min=0"`
	ExtraCredit bool     `json:"extra_credit" gorm:"default:false"`
	SortOrder   int      `json:"sort_order" gorm:"not null;uniqueIndex:idx_item_scope_order,where:deleted_at IS NULL"`

	// External activity linkage; nil for manual items
	ActivityRef datatypes.JSON `json:"activity_ref" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// ActivityRef identifies the external activity that produces an item's raw
// score (assignment, quiz, discussion). Stored as jsonb on GradebookItem.
type ActivityRef struct {
	ModuleType string `json:"module_type" validate:"required,activity_module"`
	ModuleName string `json:"module_name" validate:"required,max=200"`
	ModuleID   *uint  `json:"module_id,omitempty"`
}

func (Gradebook) TableName() string {
	return "gradebooks"
}

func (GradebookCategory) TableName() string {
	return "gradebook_categories"
}

func (GradebookItem) TableName() string {
	return "gradebook_items"
}

// IsManual reports whether the item's score is entered directly rather than
// produced by a linked activity.
func (i *GradebookItem) IsManual() bool {
	return len(i.ActivityRef) == 0
}

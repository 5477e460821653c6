package services

import (
	"context"

	"github.com/SAP-F-2025/gradebook-service/internal/models"
)

// GradebookService is the lifecycle manager plus the read-side entry points
// the route layer calls. Authorization happens upstream; every operation
// assumes the caller may touch the gradebook it names.
type GradebookService interface {
	// Category lifecycle
	CreateCategory(ctx context.Context, req *CreateCategoryRequest, actorID uint) (*models.GradebookCategory, error)
	GetCategory(ctx context.Context, id uint) (*models.GradebookCategory, error)
	UpdateCategory(ctx context.Context, id uint, req *UpdateCategoryRequest, actorID uint) (*models.GradebookCategory, error)
	DeleteCategory(ctx context.Context, id uint, actorID uint) error
	MoveCategory(ctx context.Context, id uint, req *MoveRequest, actorID uint) (*models.GradebookCategory, error)

	// Item lifecycle
	CreateItem(ctx context.Context, req *CreateItemRequest, actorID uint) (*models.GradebookItem, error)
	GetItem(ctx context.Context, id uint) (*models.GradebookItem, error)
	UpdateItem(ctx context.Context, id uint, req *UpdateItemRequest, actorID uint) (*models.GradebookItem, error)
	DeleteItem(ctx context.Context, id uint, actorID uint) error
	MoveItem(ctx context.Context, id uint, req *MoveRequest, actorID uint) (*models.GradebookItem, error)

	// Scores
	RecordScore(ctx context.Context, itemID, enrollmentID uint, req *RecordScoreRequest, actorID uint) (*models.ItemScore, error)

	// Read side
	GetStructure(ctx context.Context, gradebookID uint, scopeID *uint) ([]models.StructureNode, error)
	GetWeightReport(ctx context.Context, gradebookID uint) (*WeightReport, error)
	ComputeEnrollmentGrade(ctx context.Context, gradebookID, enrollmentID uint) (*GradeResult, error)
}

// ===== REQUEST STRUCTURES =====

type CreateCategoryRequest struct {
	GradebookID uint     `json:"gradebook_id" validate:"required"`
	ParentID    *uint    `json:"parent_id"`
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Weight      *float64 `json:"weight" validate:"omitempty,weight_percentage"`
	ExtraCredit bool     `json:"extra_credit"`
}

type UpdateCategoryRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Weight      *float64 `json:"weight" validate:"omitempty,weight_percentage"`
	ExtraCredit *bool    `json:"extra_credit"`
}

type CreateItemRequest struct {
	GradebookID uint                `json:"gradebook_id" validate:"required"`
	CategoryID  *uint               `json:"category_id"`
	Name        string              `json:"name" validate:"required,min=1,max=200"`
	Description *string             `json:"description" validate:"omitempty,max=1000"`
	MaxGrade    float64             `json:"max_grade" validate:"required,gt=0"`
	MinGrade    float64             `json:"min_grade" validate:"min=0"`
	Weight      *float64            `json:"weight" validate:"omitempty,weight_percentage"`
	ExtraCredit bool                `json:"extra_credit"`
	ActivityRef *models.ActivityRef `json:"activity_ref" validate:"omitempty"`
}

type UpdateItemRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	MaxGrade    *float64 `json:"max_grade" validate:"omitempty,gt=0"`
	MinGrade    *float64 `json:"min_grade" validate:"omitempty,min=0"`
	Weight      *float64 `json:"weight" validate:"omitempty,weight_percentage"`
	ExtraCredit *bool    `json:"extra_credit"`
}

// RecordScoreRequest writes one enrollment's raw score on an item, replacing
// any previous score for the pair. Activity-linked items normally receive
// scores from their activity's own grading flow; this request covers manual
// items and instructor overrides.
type RecordScoreRequest struct {
	RawScore float64 `json:"raw_score" validate:"min=0"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

// MoveRequest re-parents a node. Moving is deliberately separate from
// update: it recomputes sort order in the target scope and, for categories,
// re-checks the acyclicity invariant.
type MoveRequest struct {
	NewParentID *uint `json:"new_parent_id"`
}

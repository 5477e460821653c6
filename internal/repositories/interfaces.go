package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/gradebook-service/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates the per-entity repositories behind one handle so
// services can be constructed with a single dependency.
type Repository interface {
	Gradebook() GradebookRepository
	Category() CategoryRepository
	Item() ItemRepository
	Score() ScoreRepository
}

// TransactionRepository is implemented by repositories that can scope all
// their operations to one database transaction. Begin returns a Repository
// whose writes are isolated until Commit.
type TransactionRepository interface {
	Repository
	Begin(ctx context.Context) (TransactionRepository, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type GradebookRepository interface {
	Create(ctx context.Context, gradebook *models.Gradebook) error
	GetByID(ctx context.Context, id uint) (*models.Gradebook, error)
	GetByCourseID(ctx context.Context, courseID uint) (*models.Gradebook, error)
	Update(ctx context.Context, gradebook *models.Gradebook) error
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, id uint) (bool, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.GradebookCategory) error
	GetByID(ctx context.Context, id uint) (*models.GradebookCategory, error)
	Update(ctx context.Context, category *models.GradebookCategory) error
	Delete(ctx context.Context, id uint) error

	// ListByGradebook returns the full flat category set of one gradebook;
	// a course's structure is expected to fit in memory.
	ListByGradebook(ctx context.Context, gradebookID uint) ([]*models.GradebookCategory, error)

	// ListScope returns the direct child categories of one scope
	// (nil parentID = gradebook root), the sibling set sort-order
	// allocation works over.
	ListScope(ctx context.Context, gradebookID uint, parentID *uint) ([]*models.GradebookCategory, error)

	// HasChildren reports whether any subcategory or item still references
	// the category.
	HasChildren(ctx context.Context, id uint) (bool, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *models.GradebookItem) error
	GetByID(ctx context.Context, id uint) (*models.GradebookItem, error)
	Update(ctx context.Context, item *models.GradebookItem) error
	Delete(ctx context.Context, id uint) error

	ListByGradebook(ctx context.Context, gradebookID uint) ([]*models.GradebookItem, error)
	ListScope(ctx context.Context, gradebookID uint, categoryID *uint) ([]*models.GradebookItem, error)
}

type ScoreRepository interface {
	Upsert(ctx context.Context, score *models.ItemScore) error
	GetByEnrollment(ctx context.Context, gradebookID, enrollmentID uint) ([]*models.ItemScore, error)
	ListEnrollments(ctx context.Context, gradebookID uint) ([]uint, error)
	DeleteByItem(ctx context.Context, itemID uint) error
}

// IsNotFoundError reports whether err is the driver's missing-record error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is the driver's unique-violation
// error, raised when an insert or move collides on (scope, sort_order).
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

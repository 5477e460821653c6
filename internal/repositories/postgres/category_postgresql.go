package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/gradebook-service/internal/models"
	"github.com/SAP-F-2025/gradebook-service/internal/repositories"
	"gorm.io/gorm"
)

type CategoryPostgreSQL struct {
	db *gorm.DB
}

func NewCategoryPostgreSQL(db *gorm.DB) repositories.CategoryRepository {
	return &CategoryPostgreSQL{db: db}
}

// Create inserts a category. The ordinal is checked against both sibling
// tables inside the same transaction, since categories and items in one
// scope share one sort-order space and the per-table unique index cannot
// see across tables.
func (c *CategoryPostgreSQL) Create(ctx context.Context, category *models.GradebookCategory) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := scopeSortOrderTaken(tx, category.GradebookID, category.ParentID, category.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to check sort order: %w", err)
		}
		if taken {
			return fmt.Errorf("sort order %d already used in scope: %w", category.SortOrder, gorm.ErrDuplicatedKey)
		}

		return tx.Create(category).Error
	})
}

// GetByID retrieves a category by ID
func (c *CategoryPostgreSQL) GetByID(ctx context.Context, id uint) (*models.GradebookCategory, error) {
	var category models.GradebookCategory
	err := c.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Update saves mutable category fields. ParentID is deliberately written
// back as-is; the service layer never changes it through update.
func (c *CategoryPostgreSQL) Update(ctx context.Context, category *models.GradebookCategory) error {
	return c.db.WithContext(ctx).Save(category).Error
}

// Delete soft deletes a category
func (c *CategoryPostgreSQL) Delete(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Delete(&models.GradebookCategory{}, id).Error
}

// ListByGradebook returns every category of a gradebook, ordered for
// deterministic processing
func (c *CategoryPostgreSQL) ListByGradebook(ctx context.Context, gradebookID uint) ([]*models.GradebookCategory, error) {
	var categories []*models.GradebookCategory
	err := c.db.WithContext(ctx).
		Where("gradebook_id = ?", gradebookID).
		Order("sort_order ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// ListScope returns the direct child categories of one scope
func (c *CategoryPostgreSQL) ListScope(ctx context.Context, gradebookID uint, parentID *uint) ([]*models.GradebookCategory, error) {
	query := c.db.WithContext(ctx).Where("gradebook_id = ?", gradebookID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var categories []*models.GradebookCategory
	err := query.Order("sort_order ASC").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// HasChildren reports whether any live subcategory or item still points at
// the category
func (c *CategoryPostgreSQL) HasChildren(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.GradebookCategory{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = c.db.WithContext(ctx).
		Model(&models.GradebookItem{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// scopeSortOrderTaken reports whether any sibling, category or item, already
// holds the ordinal within the scope. The unique indexes back this up per
// table; the combined check covers the cross-table and NULL-scope cases they
// cannot express.
func scopeSortOrderTaken(tx *gorm.DB, gradebookID uint, scopeID *uint, sortOrder int) (bool, error) {
	taken, err := ordinalTaken(tx, &models.GradebookCategory{}, "parent_id", gradebookID, scopeID, sortOrder)
	if err != nil || taken {
		return taken, err
	}
	return ordinalTaken(tx, &models.GradebookItem{}, "category_id", gradebookID, scopeID, sortOrder)
}

func ordinalTaken(tx *gorm.DB, model interface{}, scopeColumn string, gradebookID uint, scopeID *uint, sortOrder int) (bool, error) {
	query := tx.Model(model).
		Where("gradebook_id = ? AND sort_order = ?", gradebookID, sortOrder)
	if scopeID == nil {
		query = query.Where(scopeColumn + " IS NULL")
	} else {
		query = query.Where(scopeColumn+" = ?", *scopeID)
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

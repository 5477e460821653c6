package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/gradebook-service/internal/models"
	"github.com/SAP-F-2025/gradebook-service/internal/repositories"
	"gorm.io/gorm"
)

type ItemPostgreSQL struct {
	db *gorm.DB
}

func NewItemPostgreSQL(db *gorm.DB) repositories.ItemRepository {
	return &ItemPostgreSQL{db: db}
}

// Create inserts an item, enforcing sort-order uniqueness across both
// sibling kinds inside the same transaction as the insert
func (i *ItemPostgreSQL) Create(ctx context.Context, item *models.GradebookItem) error {
	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := scopeSortOrderTaken(tx, item.GradebookID, item.CategoryID, item.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to check sort order: %w", err)
		}
		if taken {
			return fmt.Errorf("sort order %d already used in scope: %w", item.SortOrder, gorm.ErrDuplicatedKey)
		}

		return tx.Create(item).Error
	})
}

// GetByID retrieves an item by ID
func (i *ItemPostgreSQL) GetByID(ctx context.Context, id uint) (*models.GradebookItem, error) {
	var item models.GradebookItem
	err := i.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update saves mutable item fields
func (i *ItemPostgreSQL) Update(ctx context.Context, item *models.GradebookItem) error {
	return i.db.WithContext(ctx).Save(item).Error
}

// Delete soft deletes an item
func (i *ItemPostgreSQL) Delete(ctx context.Context, id uint) error {
	return i.db.WithContext(ctx).Delete(&models.GradebookItem{}, id).Error
}

// ListByGradebook returns every item of a gradebook
func (i *ItemPostgreSQL) ListByGradebook(ctx context.Context, gradebookID uint) ([]*models.GradebookItem, error) {
	var items []*models.GradebookItem
	err := i.db.WithContext(ctx).
		Where("gradebook_id = ?", gradebookID).
		Order("sort_order ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListScope returns the direct child items of one scope
func (i *ItemPostgreSQL) ListScope(ctx context.Context, gradebookID uint, categoryID *uint) ([]*models.GradebookItem, error) {
	query := i.db.WithContext(ctx).Where("gradebook_id = ?", gradebookID)
	if categoryID == nil {
		query = query.Where("category_id IS NULL")
	} else {
		query = query.Where("category_id = ?", *categoryID)
	}

	var items []*models.GradebookItem
	err := query.Order("sort_order ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

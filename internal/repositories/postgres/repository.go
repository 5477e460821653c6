package postgres

import (
	"context"

	"github.com/SAP-F-2025/gradebook-service/internal/repositories"
	"gorm.io/gorm"
)

// gormRepository hands out per-entity repositories backed by one *gorm.DB,
// which may be either the root connection or an open transaction.
type gormRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewRepository(db *gorm.DB) repositories.TransactionRepository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Gradebook() repositories.GradebookRepository {
	return NewGradebookPostgreSQL(r.db)
}

func (r *gormRepository) Category() repositories.CategoryRepository {
	return NewCategoryPostgreSQL(r.db)
}

func (r *gormRepository) Item() repositories.ItemRepository {
	return NewItemPostgreSQL(r.db)
}

func (r *gormRepository) Score() repositories.ScoreRepository {
	return NewScorePostgreSQL(r.db)
}

// Begin opens a transaction and returns a repository scoped to it; callers
// finish the transaction through Commit or Rollback on the returned value.
func (r *gormRepository) Begin(ctx context.Context) (repositories.TransactionRepository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormRepository{db: tx, inTx: true}, nil
}

func (r *gormRepository) Commit(ctx context.Context) error {
	if !r.inTx {
		return gorm.ErrInvalidTransaction
	}
	return r.db.Commit().Error
}

func (r *gormRepository) Rollback(ctx context.Context) error {
	if !r.inTx {
		return gorm.ErrInvalidTransaction
	}
	return r.db.Rollback().Error
}

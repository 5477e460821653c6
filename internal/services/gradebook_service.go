package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/gradebook-service/internal/cache"
	"github.com/SAP-F-2025/gradebook-service/internal/events"
	"github.com/SAP-F-2025/gradebook-service/internal/models"
	"github.com/SAP-F-2025/gradebook-service/internal/repositories"
	"github.com/SAP-F-2025/gradebook-service/internal/utils"
)

const structureCacheTTL = 5 * time.Minute

type gradebookService struct {
	repo      repositories.TransactionRepository
	logger    *slog.Logger
	validator *utils.Validator
	publisher events.EventPublisher
	cache     cache.CacheService
}

func NewGradebookService(
	repo repositories.TransactionRepository,
	logger *slog.Logger,
	validator *utils.Validator,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
) GradebookService {
	return &gradebookService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		cache:     cacheService,
	}
}

// ===== CATEGORY LIFECYCLE =====

func (s *gradebookService) CreateCategory(ctx context.Context, req *CreateCategoryRequest, actorID uint) (*models.GradebookCategory, error) {
	s.logger.Info("Creating gradebook category", "gradebook_id", req.GradebookID, "name", req.Name, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.checkParentScope(ctx, req.GradebookID, req.ParentID); err != nil {
		return nil, err
	}

	// Begin transaction: sort-order allocation must see the sibling set the
	// insert will join, or two concurrent creates race to the same ordinal.
	txRepo, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txRepo.Rollback(ctx)
		}
	}()

	var sortOrder int
	if sortOrder, err = s.nextScopeOrdinal(ctx, txRepo, req.GradebookID, req.ParentID); err != nil {
		return nil, err
	}

	category := &models.GradebookCategory{
		GradebookID: req.GradebookID,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		Weight:      req.Weight,
		ExtraCredit: req.ExtraCredit,
		SortOrder:   sortOrder,
	}

	if err = txRepo.Category().Create(ctx, category); err != nil {
		if repositories.IsDuplicateError(err) {
			err = ErrDuplicateSortOrder
			return nil, err
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	if err = txRepo.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Gradebook category created", "category_id", category.ID, "sort_order", category.SortOrder)

	s.invalidateGradebook(ctx, req.GradebookID)
	s.publishCategoryEvent(ctx, events.EventCategoryCreated, category, actorID)

	return category, nil
}

func (s *gradebookService) GetCategory(ctx context.Context, id uint) (*models.GradebookCategory, error) {
	category, err := s.repo.Category().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *gradebookService) UpdateCategory(ctx context.Context, id uint, req *UpdateCategoryRequest, actorID uint) (*models.GradebookCategory, error) {
	s.logger.Info("Updating gradebook category", "category_id", id, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	// Patch mutable fields only; ParentID never changes through update.
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.Weight != nil {
		category.Weight = req.Weight
	}
	if req.ExtraCredit != nil {
		category.ExtraCredit = *req.ExtraCredit
	}

	if err := s.repo.Category().Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidateGradebook(ctx, category.GradebookID)
	s.publishCategoryEvent(ctx, events.EventCategoryUpdated, category, actorID)

	return category, nil
}

// DeleteCategory removes an empty category. A category that still contains
// subcategories or items is rejected with ErrCategoryNotEmpty; callers must
// empty or move the children first. The emptiness check and the delete run
// in one transaction so a concurrent create cannot leave a child pointing at
// a deleted parent.
func (s *gradebookService) DeleteCategory(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deleting gradebook category", "category_id", id, "actor_id", actorID)

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	txRepo, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txRepo.Rollback(ctx)
		}
	}()

	hasChildren, err := txRepo.Category().HasChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category children: %w", err)
	}
	if hasChildren {
		err = ErrCategoryNotEmpty
		return err
	}

	if err = txRepo.Category().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if err = txRepo.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Gradebook category deleted", "category_id", id)

	s.invalidateGradebook(ctx, category.GradebookID)
	s.publishCategoryEvent(ctx, events.EventCategoryDeleted, category, actorID)

	return nil
}

func (s *gradebookService) MoveCategory(ctx context.Context, id uint, req *MoveRequest, actorID uint) (*models.GradebookCategory, error) {
	s.logger.Info("Moving gradebook category", "category_id", id, "actor_id", actorID)

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.NewParentID != nil && *req.NewParentID == id {
		return nil, NewStructuralError("acyclic", "category cannot be its own parent",
			map[string]interface{}{"category_id": id})
	}

	if err := s.checkParentScope(ctx, category.GradebookID, req.NewParentID); err != nil {
		return nil, err
	}

	// Reject a move that would make the category its own ancestor.
	if req.NewParentID != nil {
		all, err := s.repo.Category().ListByGradebook(ctx, category.GradebookID)
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		if isDescendant(all, id, *req.NewParentID) {
			return nil, NewStructuralError("acyclic", "target parent is a descendant of the category",
				map[string]interface{}{"category_id": id, "new_parent_id": *req.NewParentID})
		}
	}

	txRepo, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txRepo.Rollback(ctx)
		}
	}()

	var sortOrder int
	if sortOrder, err = s.nextScopeOrdinal(ctx, txRepo, category.GradebookID, req.NewParentID); err != nil {
		return nil, err
	}

	category.ParentID = req.NewParentID
	category.SortOrder = sortOrder

	if err = txRepo.Category().Update(ctx, category); err != nil {
		if repositories.IsDuplicateError(err) {
			err = ErrDuplicateSortOrder
			return nil, err
		}
		return nil, fmt.Errorf("failed to move category: %w", err)
	}

	if err = txRepo.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidateGradebook(ctx, category.GradebookID)
	s.publishStructureChanged(ctx, category.GradebookID, actorID)

	return category, nil
}

// ===== ITEM LIFECYCLE =====

func (s *gradebookService) CreateItem(ctx context.Context, req *CreateItemRequest, actorID uint) (*models.GradebookItem, error) {
	s.logger.Info("Creating gradebook item", "gradebook_id", req.GradebookID, "name", req.Name, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.MinGrade > req.MaxGrade {
		return nil, NewValidationError("min_grade", "must not exceed max_grade", req.MinGrade)
	}
	if req.ActivityRef != nil {
		if err := s.validator.Validate(req.ActivityRef); err != nil {
			return nil, err
		}
	}

	if err := s.checkParentScope(ctx, req.GradebookID, req.CategoryID); err != nil {
		return nil, err
	}

	var activityRef []byte
	if req.ActivityRef != nil {
		var err error
		activityRef, err = json.Marshal(req.ActivityRef)
		if err != nil {
			return nil, fmt.Errorf("failed to encode activity ref: %w", err)
		}
	}

	txRepo, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txRepo.Rollback(ctx)
		}
	}()

	var sortOrder int
	if sortOrder, err = s.nextScopeOrdinal(ctx, txRepo, req.GradebookID, req.CategoryID); err != nil {
		return nil, err
	}

	item := &models.GradebookItem{
		GradebookID: req.GradebookID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		MaxGrade:    req.MaxGrade,
		MinGrade:    req.MinGrade,
		Weight:      req.Weight,
		ExtraCredit: req.ExtraCredit,
		SortOrder:   sortOrder,
		ActivityRef: activityRef,
	}

	if err = txRepo.Item().Create(ctx, item); err != nil {
		if repositories.IsDuplicateError(err) {
			err = ErrDuplicateSortOrder
			return nil, err
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	if err = txRepo.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Gradebook item created", "item_id", item.ID, "sort_order", item.SortOrder)

	s.invalidateGradebook(ctx, req.GradebookID)
	s.publishItemEvent(ctx, events.EventItemCreated, item, actorID)

	return item, nil
}

func (s *gradebookService) GetItem(ctx context.Context, id uint) (*models.GradebookItem, error) {
	item, err := s.repo.Item().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (s *gradebookService) UpdateItem(ctx context.Context, id uint, req *UpdateItemRequest, actorID uint) (*models.GradebookItem, error) {
	s.logger.Info("Updating gradebook item", "item_id", id, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.MaxGrade != nil {
		item.MaxGrade = *req.MaxGrade
	}
	if req.MinGrade != nil {
		item.MinGrade = *req.MinGrade
	}
	if req.Weight != nil {
		item.Weight = req.Weight
	}
	if req.ExtraCredit != nil {
		item.ExtraCredit = *req.ExtraCredit
	}
	if item.MinGrade > item.MaxGrade {
		return nil, NewValidationError("min_grade", "must not exceed max_grade", item.MinGrade)
	}

	if err := s.repo.Item().Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	s.invalidateGradebook(ctx, item.GradebookID)
	s.publishItemEvent(ctx, events.EventItemUpdated, item, actorID)

	return item, nil
}

// DeleteItem removes an item together with its stored scores, in one
// transaction so readers never see scores pointing at a missing item.
func (s *gradebookService) DeleteItem(ctx context.Context, id uint, actorID uint) error {
	s.logger.Info("Deleting gradebook item", "item_id", id, "actor_id", actorID)

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	txRepo, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txRepo.Rollback(ctx)
		}
	}()

	if err = txRepo.Score().DeleteByItem(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item scores: %w", err)
	}
	if err = txRepo.Item().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if err = txRepo.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Gradebook item deleted", "item_id", id)

	s.invalidateGradebook(ctx, item.GradebookID)
	s.publishItemEvent(ctx, events.EventItemDeleted, item, actorID)

	return nil
}

func (s *gradebookService) MoveItem(ctx context.Context, id uint, req *MoveRequest, actorID uint) (*models.GradebookItem, error) {
	s.logger.Info("Moving gradebook item", "item_id", id, "actor_id", actorID)

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkParentScope(ctx, item.GradebookID, req.NewParentID); err != nil {
		return nil, err
	}

	txRepo, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txRepo.Rollback(ctx)
		}
	}()

	var sortOrder int
	if sortOrder, err = s.nextScopeOrdinal(ctx, txRepo, item.GradebookID, req.NewParentID); err != nil {
		return nil, err
	}

	item.CategoryID = req.NewParentID
	item.SortOrder = sortOrder

	if err = txRepo.Item().Update(ctx, item); err != nil {
		if repositories.IsDuplicateError(err) {
			err = ErrDuplicateSortOrder
			return nil, err
		}
		return nil, fmt.Errorf("failed to move item: %w", err)
	}

	if err = txRepo.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidateGradebook(ctx, item.GradebookID)
	s.publishStructureChanged(ctx, item.GradebookID, actorID)

	return item, nil
}

// ===== SCORES =====

func (s *gradebookService) RecordScore(ctx context.Context, itemID, enrollmentID uint, req *RecordScoreRequest, actorID uint) (*models.ItemScore, error) {
	s.logger.Info("Recording item score", "item_id", itemID, "enrollment_id", enrollmentID, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	score := &models.ItemScore{
		ItemID:       itemID,
		EnrollmentID: enrollmentID,
		RawScore:     req.RawScore,
		GradedBy:     &actorID,
		Feedback:     req.Feedback,
	}

	if err := s.repo.Score().Upsert(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to record score: %w", err)
	}

	event := events.NewGradebookEvent(events.EventScoreRecorded, events.ScoreRecordedEvent{
		GradebookID:  item.GradebookID,
		ItemID:       itemID,
		EnrollmentID: enrollmentID,
		RawScore:     req.RawScore,
		ActorID:      actorID,
	})
	if err := s.publisher.PublishGradebookEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish score event", "error", err)
	}

	return score, nil
}

// ===== READ SIDE =====

func (s *gradebookService) GetStructure(ctx context.Context, gradebookID uint, scopeID *uint) ([]models.StructureNode, error) {
	cacheKey := structureCacheKey(gradebookID, scopeID)

	var cached []models.StructureNode
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Structure cache read failed", "gradebook_id", gradebookID, "error", err)
	}

	categories, items, err := s.loadGradebook(ctx, gradebookID)
	if err != nil {
		return nil, err
	}

	structure, err := BuildCategoryStructure(scopeID, categories, items)
	if err != nil {
		return nil, err
	}
	if scopeID == nil {
		// The category walk leaves root items to this second pass so they
		// surface exactly once.
		structure = append(structure, RootItemNodes(items)...)
	}

	if err := s.cache.Set(ctx, cacheKey, structure, structureCacheTTL); err != nil {
		s.logger.Warn("Structure cache write failed", "gradebook_id", gradebookID, "error", err)
	}

	return structure, nil
}

func (s *gradebookService) GetWeightReport(ctx context.Context, gradebookID uint) (*WeightReport, error) {
	cacheKey := fmt.Sprintf("gradebook:%d:weights", gradebookID)

	var cached WeightReport
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Weight report cache read failed", "gradebook_id", gradebookID, "error", err)
	}

	categories, items, err := s.loadGradebook(ctx, gradebookID)
	if err != nil {
		return nil, err
	}

	report, err := BuildWeightReport(categories, items)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, report, structureCacheTTL); err != nil {
		s.logger.Warn("Weight report cache write failed", "gradebook_id", gradebookID, "error", err)
	}

	return report, nil
}

func (s *gradebookService) ComputeEnrollmentGrade(ctx context.Context, gradebookID, enrollmentID uint) (*GradeResult, error) {
	categories, items, err := s.loadGradebook(ctx, gradebookID)
	if err != nil {
		return nil, err
	}

	scores, err := s.repo.Score().GetByEnrollment(ctx, gradebookID, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}

	return ComputeGrade(nil, categories, items, models.ToScoreSet(scores))
}

// ===== HELPERS =====

// loadGradebook fetches the full flat structure of one gradebook; the whole
// course fits in memory and the two reads form the snapshot the pure
// functions walk.
func (s *gradebookService) loadGradebook(ctx context.Context, gradebookID uint) ([]*models.GradebookCategory, []*models.GradebookItem, error) {
	exists, err := s.repo.Gradebook().Exists(ctx, gradebookID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check gradebook: %w", err)
	}
	if !exists {
		return nil, nil, ErrGradebookNotFound
	}

	categories, err := s.repo.Category().ListByGradebook(ctx, gradebookID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load categories: %w", err)
	}
	items, err := s.repo.Item().ListByGradebook(ctx, gradebookID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load items: %w", err)
	}
	return categories, items, nil
}

// nextScopeOrdinal allocates the next sort order for a scope. Sibling
// categories and items share one ordinal space, so both kinds are listed,
// through the caller's transactional repository so the allocation sees the
// sibling set the insert will join.
func (s *gradebookService) nextScopeOrdinal(ctx context.Context, repo repositories.Repository, gradebookID uint, scopeID *uint) (int, error) {
	siblingCategories, err := repo.Category().ListScope(ctx, gradebookID, scopeID)
	if err != nil {
		return 0, fmt.Errorf("failed to list sibling categories: %w", err)
	}
	siblingItems, err := repo.Item().ListScope(ctx, gradebookID, scopeID)
	if err != nil {
		return 0, fmt.Errorf("failed to list sibling items: %w", err)
	}
	return NextScopeSortOrder(siblingCategories, siblingItems), nil
}

// checkParentScope verifies a referenced parent category exists and belongs
// to the same gradebook. A nil parent is the gradebook root and always
// valid once the gradebook itself exists.
func (s *gradebookService) checkParentScope(ctx context.Context, gradebookID uint, parentID *uint) error {
	exists, err := s.repo.Gradebook().Exists(ctx, gradebookID)
	if err != nil {
		return fmt.Errorf("failed to check gradebook: %w", err)
	}
	if !exists {
		return ErrGradebookNotFound
	}

	if parentID == nil {
		return nil
	}

	parent, err := s.repo.Category().GetByID(ctx, *parentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCategoryParentMissing
		}
		return fmt.Errorf("failed to check parent category: %w", err)
	}
	if parent.GradebookID != gradebookID {
		return ErrCategoryWrongGradebook
	}
	return nil
}

// isDescendant walks child's parent chain looking for ancestor candidacy of
// candidate under rootID; used to reject re-parenting a category beneath
// its own subtree. The walk is bounded by the category count, so corrupted
// parent chains cannot loop it forever.
func isDescendant(all []*models.GradebookCategory, rootID, candidate uint) bool {
	parents := make(map[uint]*uint, len(all))
	for _, c := range all {
		parents[c.ID] = c.ParentID
	}

	current := candidate
	for range all {
		if current == rootID {
			return true
		}
		p, ok := parents[current]
		if !ok || p == nil {
			return false
		}
		current = *p
	}
	return false
}

func structureCacheKey(gradebookID uint, scopeID *uint) string {
	if scopeID == nil {
		return fmt.Sprintf("gradebook:%d:structure:root", gradebookID)
	}
	return fmt.Sprintf("gradebook:%d:structure:%d", gradebookID, *scopeID)
}

func (s *gradebookService) invalidateGradebook(ctx context.Context, gradebookID uint) {
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("gradebook:%d:*", gradebookID)); err != nil {
		s.logger.Warn("Cache invalidation failed", "gradebook_id", gradebookID, "error", err)
	}
}

func (s *gradebookService) publishCategoryEvent(ctx context.Context, eventType events.EventType, category *models.GradebookCategory, actorID uint) {
	event := events.NewGradebookEvent(eventType, events.CategoryChangedEvent{
		GradebookID: category.GradebookID,
		CategoryID:  category.ID,
		ParentID:    category.ParentID,
		Name:        category.Name,
		Weight:      category.Weight,
		ExtraCredit: category.ExtraCredit,
		ActorID:     actorID,
	})
	if err := s.publisher.PublishGradebookEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish category event", "event_type", eventType, "error", err)
	}
}

func (s *gradebookService) publishItemEvent(ctx context.Context, eventType events.EventType, item *models.GradebookItem, actorID uint) {
	event := events.NewGradebookEvent(eventType, events.ItemChangedEvent{
		GradebookID: item.GradebookID,
		ItemID:      item.ID,
		CategoryID:  item.CategoryID,
		Name:        item.Name,
		Weight:      item.Weight,
		ExtraCredit: item.ExtraCredit,
		MaxGrade:    item.MaxGrade,
		ActorID:     actorID,
	})
	if err := s.publisher.PublishGradebookEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish item event", "event_type", eventType, "error", err)
	}
}

func (s *gradebookService) publishStructureChanged(ctx context.Context, gradebookID, actorID uint) {
	event := events.NewGradebookEvent(events.EventStructureChanged, events.StructureChangedEvent{
		GradebookID: gradebookID,
		ActorID:     actorID,
	})
	if err := s.publisher.PublishGradebookEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish structure event", "error", err)
	}
}

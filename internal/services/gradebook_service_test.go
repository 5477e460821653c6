package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/gradebook-service/internal/cache"
	"github.com/SAP-F-2025/gradebook-service/internal/events"
	"github.com/SAP-F-2025/gradebook-service/internal/models"
	"github.com/SAP-F-2025/gradebook-service/internal/repositories"
	"github.com/SAP-F-2025/gradebook-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockGradebookRepository is a mock implementation of GradebookRepository
type MockGradebookRepository struct {
	mock.Mock
}

func (m *MockGradebookRepository) Create(ctx context.Context, gradebook *models.Gradebook) error {
	args := m.Called(ctx, gradebook)
	return args.Error(0)
}

func (m *MockGradebookRepository) GetByID(ctx context.Context, id uint) (*models.Gradebook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gradebook), args.Error(1)
}

func (m *MockGradebookRepository) GetByCourseID(ctx context.Context, courseID uint) (*models.Gradebook, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gradebook), args.Error(1)
}

func (m *MockGradebookRepository) Update(ctx context.Context, gradebook *models.Gradebook) error {
	args := m.Called(ctx, gradebook)
	return args.Error(0)
}

func (m *MockGradebookRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGradebookRepository) Exists(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.GradebookCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uint) (*models.GradebookCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GradebookCategory), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.GradebookCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) ListByGradebook(ctx context.Context, gradebookID uint) ([]*models.GradebookCategory, error) {
	args := m.Called(ctx, gradebookID)
	return args.Get(0).([]*models.GradebookCategory), args.Error(1)
}

func (m *MockCategoryRepository) ListScope(ctx context.Context, gradebookID uint, parentID *uint) ([]*models.GradebookCategory, error) {
	args := m.Called(ctx, gradebookID, parentID)
	return args.Get(0).([]*models.GradebookCategory), args.Error(1)
}

func (m *MockCategoryRepository) HasChildren(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockItemRepository is a mock implementation of ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, item *models.GradebookItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id uint) (*models.GradebookItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GradebookItem), args.Error(1)
}

func (m *MockItemRepository) Update(ctx context.Context, item *models.GradebookItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockItemRepository) ListByGradebook(ctx context.Context, gradebookID uint) ([]*models.GradebookItem, error) {
	args := m.Called(ctx, gradebookID)
	return args.Get(0).([]*models.GradebookItem), args.Error(1)
}

func (m *MockItemRepository) ListScope(ctx context.Context, gradebookID uint, categoryID *uint) ([]*models.GradebookItem, error) {
	args := m.Called(ctx, gradebookID, categoryID)
	return args.Get(0).([]*models.GradebookItem), args.Error(1)
}

// MockScoreRepository is a mock implementation of ScoreRepository
type MockScoreRepository struct {
	mock.Mock
}

func (m *MockScoreRepository) Upsert(ctx context.Context, score *models.ItemScore) error {
	args := m.Called(ctx, score)
	return args.Error(0)
}

func (m *MockScoreRepository) GetByEnrollment(ctx context.Context, gradebookID, enrollmentID uint) ([]*models.ItemScore, error) {
	args := m.Called(ctx, gradebookID, enrollmentID)
	return args.Get(0).([]*models.ItemScore), args.Error(1)
}

func (m *MockScoreRepository) ListEnrollments(ctx context.Context, gradebookID uint) ([]uint, error) {
	args := m.Called(ctx, gradebookID)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockScoreRepository) DeleteByItem(ctx context.Context, itemID uint) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

// MockRepository bundles the entity mocks behind the Repository interface.
// Begin hands back the same instance so transactional flows exercise the
// same expectations as direct calls; the counters record how the service
// drove the transaction.
type MockRepository struct {
	gradebook *MockGradebookRepository
	category  *MockCategoryRepository
	item      *MockItemRepository
	score     *MockScoreRepository

	beginCalls    int
	commitCalls   int
	rollbackCalls int
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		gradebook: &MockGradebookRepository{},
		category:  &MockCategoryRepository{},
		item:      &MockItemRepository{},
		score:     &MockScoreRepository{},
	}
}

func (m *MockRepository) Gradebook() repositories.GradebookRepository { return m.gradebook }
func (m *MockRepository) Category() repositories.CategoryRepository   { return m.category }
func (m *MockRepository) Item() repositories.ItemRepository           { return m.item }
func (m *MockRepository) Score() repositories.ScoreRepository         { return m.score }

func (m *MockRepository) Begin(ctx context.Context) (repositories.TransactionRepository, error) {
	m.beginCalls++
	return m, nil
}

func (m *MockRepository) Commit(ctx context.Context) error {
	m.commitCalls++
	return nil
}

func (m *MockRepository) Rollback(ctx context.Context) error {
	m.rollbackCalls++
	return nil
}

func (m *MockRepository) assertExpectations(t *testing.T) {
	m.gradebook.AssertExpectations(t)
	m.category.AssertExpectations(t)
	m.item.AssertExpectations(t)
	m.score.AssertExpectations(t)
}

func newTestPublisher() *events.MockEventPublisher {
	return events.NewMockEventPublisher(utils.ToSlogLogger(utils.NewDevelopmentLogger()))
}

func newTestService(repo *MockRepository, publisher *events.MockEventPublisher) GradebookService {
	return NewGradebookService(
		repo,
		utils.ToSlogLogger(utils.NewDevelopmentLogger()),
		utils.NewValidator(),
		publisher,
		cache.NoopCache{},
	)
}

func TestGradebookService_CreateCategory(t *testing.T) {
	tests := []struct {
		name        string
		request     *CreateCategoryRequest
		setupMocks  func(*MockRepository)
		expectError error
		expectOrder int
	}{
		{
			name: "first category in empty scope gets sort order 1",
			request: &CreateCategoryRequest{
				GradebookID: 1,
				Name:        "Homework",
				Weight:      floatPtr(40),
			},
			setupMocks: func(repo *MockRepository) {
				repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
				repo.category.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
					Return([]*models.GradebookCategory{}, nil)
				repo.item.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
					Return([]*models.GradebookItem{}, nil)
				repo.category.On("Create", mock.Anything, mock.MatchedBy(func(c *models.GradebookCategory) bool {
					return c.Name == "Homework" && c.SortOrder == 1
				})).Return(nil)
			},
			expectOrder: 1,
		},
		{
			name: "sort order continues from densest sibling",
			request: &CreateCategoryRequest{
				GradebookID: 1,
				Name:        "Exams",
			},
			setupMocks: func(repo *MockRepository) {
				repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
				repo.category.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
					Return([]*models.GradebookCategory{
						{ID: 1, SortOrder: 1},
						{ID: 2, SortOrder: 2},
					}, nil)
				repo.item.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
					Return([]*models.GradebookItem{}, nil)
				repo.category.On("Create", mock.Anything, mock.MatchedBy(func(c *models.GradebookCategory) bool {
					return c.SortOrder == 3
				})).Return(nil)
			},
			expectOrder: 3,
		},
		{
			name: "ordinal space is shared with sibling items",
			request: &CreateCategoryRequest{
				GradebookID: 1,
				Name:        "Projects",
			},
			setupMocks: func(repo *MockRepository) {
				repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
				repo.category.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
					Return([]*models.GradebookCategory{}, nil)
				repo.item.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
					Return([]*models.GradebookItem{
						{ID: 6, SortOrder: 1},
						{ID: 7, SortOrder: 2},
					}, nil)
				repo.category.On("Create", mock.Anything, mock.MatchedBy(func(c *models.GradebookCategory) bool {
					return c.SortOrder == 3
				})).Return(nil)
			},
			expectOrder: 3,
		},
		{
			name: "duplicate ordinal surfaces as a sort-order conflict",
			request: &CreateCategoryRequest{
				GradebookID: 1,
				Name:        "Raced",
			},
			setupMocks: func(repo *MockRepository) {
				repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
				repo.category.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
					Return([]*models.GradebookCategory{}, nil)
				repo.item.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
					Return([]*models.GradebookItem{}, nil)
				repo.category.On("Create", mock.Anything, mock.Anything).
					Return(gorm.ErrDuplicatedKey)
			},
			expectError: ErrDuplicateSortOrder,
		},
		{
			name: "missing gradebook",
			request: &CreateCategoryRequest{
				GradebookID: 99,
				Name:        "Orphan",
			},
			setupMocks: func(repo *MockRepository) {
				repo.gradebook.On("Exists", mock.Anything, uint(99)).Return(false, nil)
			},
			expectError: ErrGradebookNotFound,
		},
		{
			name: "missing parent category",
			request: &CreateCategoryRequest{
				GradebookID: 1,
				ParentID:    uintPtr(42),
				Name:        "Nested",
			},
			setupMocks: func(repo *MockRepository) {
				repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
				repo.category.On("GetByID", mock.Anything, uint(42)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectError: ErrCategoryParentMissing,
		},
		{
			name: "parent from another gradebook",
			request: &CreateCategoryRequest{
				GradebookID: 1,
				ParentID:    uintPtr(5),
				Name:        "Nested",
			},
			setupMocks: func(repo *MockRepository) {
				repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
				repo.category.On("GetByID", mock.Anything, uint(5)).
					Return(&models.GradebookCategory{ID: 5, GradebookID: 2}, nil)
			},
			expectError: ErrCategoryWrongGradebook,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			publisher := newTestPublisher()
			tt.setupMocks(repo)

			service := newTestService(repo, publisher)
			category, err := service.CreateCategory(context.Background(), tt.request, 7)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, category)
				assert.Empty(t, publisher.GetPublishedEvents())
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, category)
				assert.Equal(t, tt.expectOrder, category.SortOrder)

				published := publisher.GetPublishedEvents()
				assert.Len(t, published, 1)
				assert.Equal(t, events.EventCategoryCreated, published[0].Type)
			}
			repo.assertExpectations(t)
		})
	}
}

func TestGradebookService_CreateCategory_ValidationFailure(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo, newTestPublisher())

	_, err := service.CreateCategory(context.Background(), &CreateCategoryRequest{
		GradebookID: 1,
		Name:        "",
	}, 7)

	assert.Error(t, err)
	assert.True(t, IsValidation(err))
	repo.assertExpectations(t)
}

func TestGradebookService_DeleteCategory(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(*MockRepository)
		expectError error
	}{
		{
			name: "deletes an empty category",
			setupMocks: func(repo *MockRepository) {
				repo.category.On("GetByID", mock.Anything, uint(3)).
					Return(&models.GradebookCategory{ID: 3, GradebookID: 1, Name: "Old"}, nil)
				repo.category.On("HasChildren", mock.Anything, uint(3)).Return(false, nil)
				repo.category.On("Delete", mock.Anything, uint(3)).Return(nil)
			},
		},
		{
			name: "rejects a category that still has children",
			setupMocks: func(repo *MockRepository) {
				repo.category.On("GetByID", mock.Anything, uint(3)).
					Return(&models.GradebookCategory{ID: 3, GradebookID: 1, Name: "Busy"}, nil)
				repo.category.On("HasChildren", mock.Anything, uint(3)).Return(true, nil)
			},
			expectError: ErrCategoryNotEmpty,
		},
		{
			name: "missing category",
			setupMocks: func(repo *MockRepository) {
				repo.category.On("GetByID", mock.Anything, uint(3)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectError: ErrCategoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			publisher := newTestPublisher()
			tt.setupMocks(repo)

			service := newTestService(repo, publisher)
			err := service.DeleteCategory(context.Background(), 3, 7)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Empty(t, publisher.GetPublishedEvents())
			} else {
				assert.NoError(t, err)
				published := publisher.GetPublishedEvents()
				assert.Len(t, published, 1)
				assert.Equal(t, events.EventCategoryDeleted, published[0].Type)
			}
			repo.assertExpectations(t)
		})
	}
}

func TestGradebookService_DeleteCategory_ChecksAndDeletesInOneTransaction(t *testing.T) {
	repo := newMockRepository()
	repo.category.On("GetByID", mock.Anything, uint(3)).
		Return(&models.GradebookCategory{ID: 3, GradebookID: 1, Name: "Old"}, nil)
	repo.category.On("HasChildren", mock.Anything, uint(3)).Return(false, nil)
	repo.category.On("Delete", mock.Anything, uint(3)).Return(nil)

	service := newTestService(repo, newTestPublisher())
	err := service.DeleteCategory(context.Background(), 3, 7)

	assert.NoError(t, err)
	assert.Equal(t, 1, repo.beginCalls)
	assert.Equal(t, 1, repo.commitCalls)
	assert.Zero(t, repo.rollbackCalls)
	repo.assertExpectations(t)
}

func TestGradebookService_DeleteCategory_RollsBackWhenNotEmpty(t *testing.T) {
	repo := newMockRepository()
	repo.category.On("GetByID", mock.Anything, uint(3)).
		Return(&models.GradebookCategory{ID: 3, GradebookID: 1, Name: "Busy"}, nil)
	repo.category.On("HasChildren", mock.Anything, uint(3)).Return(true, nil)

	service := newTestService(repo, newTestPublisher())
	err := service.DeleteCategory(context.Background(), 3, 7)

	assert.ErrorIs(t, err, ErrCategoryNotEmpty)
	assert.Equal(t, 1, repo.beginCalls)
	assert.Zero(t, repo.commitCalls)
	assert.Equal(t, 1, repo.rollbackCalls)
	repo.assertExpectations(t)
}

func TestGradebookService_MoveCategory_RejectsCycle(t *testing.T) {
	repo := newMockRepository()
	publisher := newTestPublisher()

	// 1 -> 2 -> 3; moving 1 under 3 would close the loop.
	repo.category.On("GetByID", mock.Anything, uint(1)).
		Return(&models.GradebookCategory{ID: 1, GradebookID: 1, Name: "Root"}, nil)
	repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	repo.category.On("GetByID", mock.Anything, uint(3)).
		Return(&models.GradebookCategory{ID: 3, GradebookID: 1, ParentID: uintPtr(2)}, nil)
	repo.category.On("ListByGradebook", mock.Anything, uint(1)).
		Return([]*models.GradebookCategory{
			{ID: 1, GradebookID: 1},
			{ID: 2, GradebookID: 1, ParentID: uintPtr(1)},
			{ID: 3, GradebookID: 1, ParentID: uintPtr(2)},
		}, nil)

	service := newTestService(repo, publisher)
	_, err := service.MoveCategory(context.Background(), 1, &MoveRequest{NewParentID: uintPtr(3)}, 7)

	assert.Error(t, err)
	assert.True(t, IsStructural(err))
	assert.Empty(t, publisher.GetPublishedEvents())
	repo.assertExpectations(t)
}

func TestGradebookService_MoveCategory_RejectsSelfParent(t *testing.T) {
	repo := newMockRepository()
	repo.category.On("GetByID", mock.Anything, uint(1)).
		Return(&models.GradebookCategory{ID: 1, GradebookID: 1, Name: "Root"}, nil)

	service := newTestService(repo, newTestPublisher())
	_, err := service.MoveCategory(context.Background(), 1, &MoveRequest{NewParentID: uintPtr(1)}, 7)

	assert.Error(t, err)
	assert.True(t, IsStructural(err))
	repo.assertExpectations(t)
}

func TestGradebookService_MoveCategory_ReordersInTargetScope(t *testing.T) {
	repo := newMockRepository()
	publisher := newTestPublisher()

	repo.category.On("GetByID", mock.Anything, uint(4)).
		Return(&models.GradebookCategory{ID: 4, GradebookID: 1, ParentID: uintPtr(1), SortOrder: 2}, nil)
	repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	repo.category.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
		Return([]*models.GradebookCategory{{ID: 1, SortOrder: 1}}, nil)
	// A root item holds ordinal 3, so the moved category must land at 4.
	repo.item.On("ListScope", mock.Anything, uint(1), (*uint)(nil)).
		Return([]*models.GradebookItem{{ID: 6, SortOrder: 3}}, nil)
	repo.category.On("Update", mock.Anything, mock.MatchedBy(func(c *models.GradebookCategory) bool {
		return c.ID == 4 && c.ParentID == nil && c.SortOrder == 4
	})).Return(nil)

	service := newTestService(repo, publisher)
	moved, err := service.MoveCategory(context.Background(), 4, &MoveRequest{NewParentID: nil}, 7)

	assert.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, 4, moved.SortOrder)

	published := publisher.GetPublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventStructureChanged, published[0].Type)
	repo.assertExpectations(t)
}

func TestGradebookService_MoveItem_ReordersInTargetScope(t *testing.T) {
	repo := newMockRepository()
	publisher := newTestPublisher()

	repo.item.On("GetByID", mock.Anything, uint(6)).
		Return(&models.GradebookItem{ID: 6, GradebookID: 1, CategoryID: uintPtr(1), SortOrder: 1, MaxGrade: 100}, nil)
	repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	repo.category.On("GetByID", mock.Anything, uint(2)).
		Return(&models.GradebookCategory{ID: 2, GradebookID: 1}, nil)
	repo.category.On("ListScope", mock.Anything, uint(1), uintPtr(2)).
		Return([]*models.GradebookCategory{{ID: 3, SortOrder: 2}}, nil)
	repo.item.On("ListScope", mock.Anything, uint(1), uintPtr(2)).
		Return([]*models.GradebookItem{{ID: 9, SortOrder: 1}}, nil)
	repo.item.On("Update", mock.Anything, mock.MatchedBy(func(i *models.GradebookItem) bool {
		return i.ID == 6 && i.CategoryID != nil && *i.CategoryID == 2 && i.SortOrder == 3
	})).Return(nil)

	service := newTestService(repo, publisher)
	moved, err := service.MoveItem(context.Background(), 6, &MoveRequest{NewParentID: uintPtr(2)}, 7)

	assert.NoError(t, err)
	assert.Equal(t, 3, moved.SortOrder)

	published := publisher.GetPublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventStructureChanged, published[0].Type)
	repo.assertExpectations(t)
}

func TestGradebookService_CreateItem(t *testing.T) {
	repo := newMockRepository()
	publisher := newTestPublisher()

	repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	repo.category.On("GetByID", mock.Anything, uint(2)).
		Return(&models.GradebookCategory{ID: 2, GradebookID: 1}, nil)
	// A subcategory holds ordinal 5, past the highest sibling item; the new
	// item continues from the combined maximum.
	repo.category.On("ListScope", mock.Anything, uint(1), uintPtr(2)).
		Return([]*models.GradebookCategory{{ID: 3, SortOrder: 5}}, nil)
	repo.item.On("ListScope", mock.Anything, uint(1), uintPtr(2)).
		Return([]*models.GradebookItem{{ID: 9, SortOrder: 4}}, nil)
	repo.item.On("Create", mock.Anything, mock.MatchedBy(func(i *models.GradebookItem) bool {
		return i.Name == "Quiz 1" && i.SortOrder == 6 && !i.IsManual()
	})).Return(nil)

	service := newTestService(repo, publisher)
	item, err := service.CreateItem(context.Background(), &CreateItemRequest{
		GradebookID: 1,
		CategoryID:  uintPtr(2),
		Name:        "Quiz 1",
		MaxGrade:    20,
		Weight:      floatPtr(10),
		ActivityRef: &models.ActivityRef{ModuleType: "quiz", ModuleName: "Quiz 1"},
	}, 7)

	assert.NoError(t, err)
	assert.Equal(t, 6, item.SortOrder)

	published := publisher.GetPublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventItemCreated, published[0].Type)
	repo.assertExpectations(t)
}

func TestGradebookService_CreateItem_MinAboveMax(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo, newTestPublisher())

	_, err := service.CreateItem(context.Background(), &CreateItemRequest{
		GradebookID: 1,
		Name:        "Broken",
		MaxGrade:    10,
		MinGrade:    20,
	}, 7)

	assert.Error(t, err)
	assert.True(t, IsValidation(err))
	repo.assertExpectations(t)
}

func TestGradebookService_DeleteItem_RemovesScores(t *testing.T) {
	repo := newMockRepository()
	publisher := newTestPublisher()

	repo.item.On("GetByID", mock.Anything, uint(6)).
		Return(&models.GradebookItem{ID: 6, GradebookID: 1, Name: "HW 1", MaxGrade: 100}, nil)
	repo.score.On("DeleteByItem", mock.Anything, uint(6)).Return(nil)
	repo.item.On("Delete", mock.Anything, uint(6)).Return(nil)

	service := newTestService(repo, publisher)
	err := service.DeleteItem(context.Background(), 6, 7)

	assert.NoError(t, err)
	published := publisher.GetPublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventItemDeleted, published[0].Type)
	repo.assertExpectations(t)
}

func TestGradebookService_RecordScore(t *testing.T) {
	repo := newMockRepository()
	publisher := newTestPublisher()

	repo.item.On("GetByID", mock.Anything, uint(6)).
		Return(&models.GradebookItem{ID: 6, GradebookID: 1, Name: "HW 1", MaxGrade: 100}, nil)
	repo.score.On("Upsert", mock.Anything, mock.MatchedBy(func(s *models.ItemScore) bool {
		return s.ItemID == 6 && s.EnrollmentID == 55 && s.RawScore == 87.5 &&
			s.GradedBy != nil && *s.GradedBy == 7
	})).Return(nil)

	service := newTestService(repo, publisher)
	score, err := service.RecordScore(context.Background(), 6, 55, &RecordScoreRequest{RawScore: 87.5}, 7)

	assert.NoError(t, err)
	assert.Equal(t, 87.5, score.RawScore)

	published := publisher.GetPublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventScoreRecorded, published[0].Type)
	repo.assertExpectations(t)
}

func TestGradebookService_RecordScore_MissingItem(t *testing.T) {
	repo := newMockRepository()
	repo.item.On("GetByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

	service := newTestService(repo, newTestPublisher())
	_, err := service.RecordScore(context.Background(), 99, 55, &RecordScoreRequest{RawScore: 10}, 7)

	assert.ErrorIs(t, err, ErrItemNotFound)
	repo.assertExpectations(t)
}

func TestGradebookService_GetStructure_IncludesRootItemsOnce(t *testing.T) {
	repo := newMockRepository()

	repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	repo.category.On("ListByGradebook", mock.Anything, uint(1)).
		Return([]*models.GradebookCategory{
			{ID: 1, GradebookID: 1, Name: "Homework", SortOrder: 1},
		}, nil)
	repo.item.On("ListByGradebook", mock.Anything, uint(1)).
		Return([]*models.GradebookItem{
			{ID: 6, GradebookID: 1, Name: "Participation", MaxGrade: 10, SortOrder: 2},
			{ID: 3, GradebookID: 1, CategoryID: uintPtr(1), Name: "HW 1", MaxGrade: 100, SortOrder: 1},
		}, nil)

	service := newTestService(repo, newTestPublisher())
	nodes, err := service.GetStructure(context.Background(), 1, nil)

	assert.NoError(t, err)
	assert.Len(t, nodes, 2)
	assert.Equal(t, uint(1), nodes[0].ID)
	assert.Equal(t, models.NodeCategory, nodes[0].Type)
	assert.Equal(t, uint(6), nodes[1].ID)
	assert.Equal(t, models.NodeManualItem, nodes[1].Type)

	// The nested item renders inside its category, never beside it.
	assert.Len(t, nodes[0].Entries, 1)
	assert.Equal(t, uint(3), nodes[0].Entries[0].ID)
	repo.assertExpectations(t)
}

func TestGradebookService_ComputeEnrollmentGrade(t *testing.T) {
	repo := newMockRepository()

	repo.gradebook.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	repo.category.On("ListByGradebook", mock.Anything, uint(1)).
		Return([]*models.GradebookCategory{
			{ID: 1, GradebookID: 1, Name: "Homework", Weight: floatPtr(100), SortOrder: 1},
		}, nil)
	repo.item.On("ListByGradebook", mock.Anything, uint(1)).
		Return([]*models.GradebookItem{
			{ID: 3, GradebookID: 1, CategoryID: uintPtr(1), Weight: floatPtr(100), MaxGrade: 100, SortOrder: 1},
		}, nil)
	repo.score.On("GetByEnrollment", mock.Anything, uint(1), uint(55)).
		Return([]*models.ItemScore{
			{ItemID: 3, EnrollmentID: 55, RawScore: 85},
		}, nil)

	service := newTestService(repo, newTestPublisher())
	result, err := service.ComputeEnrollmentGrade(context.Background(), 1, 55)

	assert.NoError(t, err)
	assert.NotNil(t, result.Percentage)
	assert.InDelta(t, 85, *result.Percentage, 1e-9)
	repo.assertExpectations(t)
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"innovative-sphere-api/internal/domain/entity"
	apperrors "innovative-sphere-api/pkg/errors"
)

type mockRepo struct {
	mock.Mock
	kind entity.CatalogKind
}

func (m *mockRepo) Kind() entity.CatalogKind { return m.kind }

func (m *mockRepo) Create(ctx context.Context, item *entity.CatalogItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*entity.CatalogItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*entity.CatalogItem)
	return item, args.Error(1)
}

func (m *mockRepo) GetBySlug(ctx context.Context, slug string) (*entity.CatalogItem, error) {
	args := m.Called(ctx, slug)
	item, _ := args.Get(0).(*entity.CatalogItem)
	return item, args.Error(1)
}

func (m *mockRepo) ListActive(ctx context.Context) ([]*entity.CatalogItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]*entity.CatalogItem)
	return items, args.Error(1)
}

func (m *mockRepo) Search(ctx context.Context, query string) ([]*entity.CatalogItem, error) {
	args := m.Called(ctx, query)
	items, _ := args.Get(0).([]*entity.CatalogItem)
	return items, args.Error(1)
}

func (m *mockRepo) FindActive(ctx context.Context, slugOrName string) (*entity.CatalogItem, error) {
	args := m.Called(ctx, slugOrName)
	item, _ := args.Get(0).(*entity.CatalogItem)
	return item, args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, item *entity.CatalogItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) Deactivate(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) Upsert(ctx context.Context, item *entity.CatalogItem) error {
	return m.Called(ctx, item).Error(0)
}

// memoryCache 进程内缓存，模拟读穿语义
type memoryCache struct {
	data    map[string][]byte
	deleted []string
	failGet error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) GetOrLoadSafe(ctx context.Context, key string, _ time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, bool, error) {
	if c.failGet != nil {
		return nil, false, c.failGet
	}
	if v, ok := c.data[key]; ok {
		return v, true, nil
	}
	v, err := loader(ctx)
	if err != nil {
		return nil, false, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	c.data[key] = b
	return b, false, nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

const healthcareID = "3f2b8c1e-6a4d-4f7b-9c2e-1d5a7b9e0f11"

func healthcare() *entity.CatalogItem {
	return &entity.CatalogItem{ID: healthcareID, Slug: "healthcare", Name: "Healthcare", IsActive: true}
}

func TestList_UsesCache(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("ListActive", mock.Anything).Return([]*entity.CatalogItem{healthcare()}, nil).Once()
	cache := newMemoryCache()
	svc := NewService(repo, cache, time.Minute)

	for i := 0; i < 3; i++ {
		items, err := svc.List(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Healthcare", items[0].Name)
	}
	repo.AssertNumberOfCalls(t, "ListActive", 1)
}

func TestList_FallsBackWhenCacheFails(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("ListActive", mock.Anything).Return([]*entity.CatalogItem{healthcare()}, nil)
	cache := newMemoryCache()
	cache.failGet = errors.New("redis: connection refused")

	items, err := NewService(repo, cache, time.Minute).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestList_DatabaseError(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogProjectType}
	repo.On("ListActive", mock.Anything).Return(nil, errors.New("conn refused"))

	_, err := NewService(repo, newMemoryCache(), time.Minute).List(context.Background())
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.CodeOf(err))
}

func TestList_EmptyIsNotNil(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("ListActive", mock.Anything).Return(nil, nil)

	items, err := NewService(repo, nil, 0).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSearch(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("Search", mock.Anything, "health").Return([]*entity.CatalogItem{healthcare()}, nil)
	svc := NewService(repo, nil, 0)

	items, err := svc.Search(context.Background(), "  health ")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.Search(context.Background(), "   ")
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeInvalidParam, appErr.Code)
	assert.Equal(t, "Search query is required", appErr.Message)
}

func TestGet_ByIDAndSlug(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("GetByID", mock.Anything, healthcareID).Return(healthcare(), nil)
	repo.On("GetBySlug", mock.Anything, "healthcare").Return(healthcare(), nil)
	svc := NewService(repo, nil, 0)

	byID, err := svc.Get(context.Background(), healthcareID)
	require.NoError(t, err)
	bySlug, err := svc.Get(context.Background(), "healthcare")
	require.NoError(t, err)
	assert.Equal(t, byID, bySlug)
}

func TestGet_NotFoundCodes(t *testing.T) {
	cases := []struct {
		kind    entity.CatalogKind
		code    apperrors.ErrorCode
		message string
	}{
		{entity.CatalogIndustry, apperrors.CodeIndustryNotFound, "Industry not found"},
		{entity.CatalogProjectType, apperrors.CodeProjectTypeNotFound, "Project type not found"},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			repo := &mockRepo{kind: tc.kind}
			repo.On("GetBySlug", mock.Anything, "missing").Return(nil, nil)

			_, err := NewService(repo, nil, 0).Get(context.Background(), "missing")
			appErr := apperrors.AsAppError(err)
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestGet_InactiveIsNotFound(t *testing.T) {
	inactive := healthcare()
	inactive.IsActive = false
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("GetBySlug", mock.Anything, "healthcare").Return(inactive, nil)

	_, err := NewService(repo, nil, 0).Get(context.Background(), "healthcare")
	assert.Equal(t, apperrors.CodeIndustryNotFound, apperrors.CodeOf(err))
}

func TestCreate_InvalidatesCache(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(item *entity.CatalogItem) bool {
		return item.Slug == "e-commerce" && item.Name == "E-commerce" && item.IsActive
	})).Return(nil)
	cache := newMemoryCache()
	svc := NewService(repo, cache, time.Minute)

	item, err := svc.Create(context.Background(), CreateInput{Name: " E-commerce ", Description: "Online retail"})
	require.NoError(t, err)
	assert.Equal(t, "Online retail", item.Description)
	assert.Equal(t, []string{"industry:active"}, cache.deleted)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(&mockRepo{kind: entity.CatalogIndustry}, nil, 0)

	_, err := svc.Create(context.Background(), CreateInput{Name: "  "})
	assert.Equal(t, "name is required", apperrors.AsAppError(err).Message)

	_, err = svc.Create(context.Background(), CreateInput{Name: "Energy", Description: strings.Repeat("a", 501)})
	assert.Equal(t, "description must be at most 500 characters", apperrors.AsAppError(err).Message)

	_, err = svc.Create(context.Background(), CreateInput{Name: "!!!"})
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.CodeOf(err))
}

func TestCreate_DuplicateSlugIsConflict(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogProjectType}
	repo.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("failed to create project type: %w", gorm.ErrDuplicatedKey))

	_, err := NewService(repo, nil, 0).Create(context.Background(), CreateInput{Name: "IoT Project"})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Equal(t, `project type with slug "iot-project" already exists`, appErr.Message)
}

func TestUpdate_AppliesPartialChanges(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("GetByID", mock.Anything, healthcareID).Return(healthcare(), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	svc := NewService(repo, nil, 0)

	desc := "Hospitals and clinics"
	item, err := svc.Update(context.Background(), healthcareID, UpdateInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Healthcare", item.Name)
	assert.Equal(t, desc, item.Description)
	assert.True(t, item.IsActive)

	blank := " "
	_, err = svc.Update(context.Background(), healthcareID, UpdateInput{Name: &blank})
	assert.Equal(t, "name is required", apperrors.AsAppError(err).Message)
}

func TestDelete(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("GetBySlug", mock.Anything, "healthcare").Return(healthcare(), nil)
	repo.On("Delete", mock.Anything, healthcareID).Return(true, nil)
	cache := newMemoryCache()

	require.NoError(t, NewService(repo, cache, time.Minute).Delete(context.Background(), "healthcare"))
	assert.Equal(t, []string{"industry:active"}, cache.deleted)
}

func TestDeactivate(t *testing.T) {
	repo := &mockRepo{kind: entity.CatalogIndustry}
	repo.On("GetByID", mock.Anything, healthcareID).Return(healthcare(), nil)
	repo.On("Deactivate", mock.Anything, healthcareID).Return(false, nil)

	_, err := NewService(repo, nil, 0).Deactivate(context.Background(), healthcareID)
	assert.Equal(t, apperrors.CodeIndustryNotFound, apperrors.CodeOf(err))
}

func TestRegistry_IsActive(t *testing.T) {
	industries := &mockRepo{kind: entity.CatalogIndustry}
	industries.On("ListActive", mock.Anything).Return([]*entity.CatalogItem{healthcare()}, nil)
	projectTypes := &mockRepo{kind: entity.CatalogProjectType}
	projectTypes.On("ListActive", mock.Anything).Return([]*entity.CatalogItem{}, nil)

	reg := NewRegistry(NewService(industries, nil, 0), NewService(projectTypes, nil, 0))

	ok, err := reg.IsActive(context.Background(), entity.CatalogIndustry, "HEALTHCARE")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.IsActive(context.Background(), entity.CatalogProjectType, "web-application")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = reg.IsActive(context.Background(), entity.CatalogKind("unknown"), "x")
	assert.Error(t, err)
}

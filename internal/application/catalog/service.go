// Package catalog 提供行业与项目类型目录的应用服务
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"innovative-sphere-api/internal/domain/entity"
	"innovative-sphere-api/internal/domain/repository"
	apperrors "innovative-sphere-api/pkg/errors"
	"innovative-sphere-api/pkg/logger"
	"innovative-sphere-api/pkg/metrics"
	"innovative-sphere-api/pkg/tracer"
)

// DefaultCacheTTL 列表缓存默认过期时间
const DefaultCacheTTL = 10 * time.Minute

// SearchQueryMaxLen 搜索关键字最大长度
const SearchQueryMaxLen = 100

// Cache 读穿缓存
type Cache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// CreateInput 创建条目参数
type CreateInput struct {
	Name        string `validate:"required,max=100"`
	Slug        string `validate:"max=100"`
	Description string `validate:"max=500"`
}

// UpdateInput 更新条目参数，nil 字段保持不变
type UpdateInput struct {
	Name        *string `validate:"omitnil,min=1,max=100"`
	Description *string `validate:"omitnil,max=500"`
	IsActive    *bool
}

// Service 单一目录类型的服务
type Service struct {
	repo     repository.CatalogRepository
	cache    Cache
	ttl      time.Duration
	validate *validator.Validate
}

// NewService 创建目录服务，cache 为 nil 时直接读库
func NewService(repo repository.CatalogRepository, cache Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		ttl:      ttl,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Kind 返回目录类型
func (s *Service) Kind() entity.CatalogKind {
	return s.repo.Kind()
}

func (s *Service) listKey() string {
	return string(s.repo.Kind()) + ":active"
}

// List 获取全部启用条目，按名称排序
func (s *Service) List(ctx context.Context) ([]*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.List")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.kind", string(s.Kind())))

	if s.cache == nil {
		return s.loadActive(ctx)
	}

	collection := s.Kind().Table()
	data, hit, err := s.cache.GetOrLoadSafe(ctx, s.listKey(), s.ttl, func(ctx context.Context) (any, error) {
		return s.loadActive(ctx)
	})
	if err != nil {
		// 加载函数返回的错误直接上抛，缓存自身故障时降级读库
		if apperrors.IsAppError(err) {
			return nil, err
		}
		metrics.CatalogCacheTotal.WithLabelValues(collection, "error").Inc()
		logger.Warn(ctx, "catalog cache unavailable, reading from database",
			"collection", collection, "error", err.Error())
		return s.loadActive(ctx)
	}

	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CatalogCacheTotal.WithLabelValues(collection, result).Inc()

	var items []*entity.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn(ctx, "corrupted catalog cache entry", "collection", collection, "error", err.Error())
		s.invalidate(ctx)
		return s.loadActive(ctx)
	}
	return items, nil
}

func (s *Service) loadActive(ctx context.Context) ([]*entity.CatalogItem, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, fmt.Sprintf("failed to fetch %s", s.Kind().Table()))
	}
	if items == nil {
		items = []*entity.CatalogItem{}
	}
	return items, nil
}

// Search 按名称模糊搜索启用条目
func (s *Service) Search(ctx context.Context, query string) ([]*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "Search query is required")
	}
	if len([]rune(query)) > SearchQueryMaxLen {
		return nil, apperrors.Newf(apperrors.CodeInvalidParam, "Search query must be at most %d characters", SearchQueryMaxLen)
	}

	items, err := s.repo.Search(ctx, query)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, fmt.Sprintf("failed to search %s", s.Kind().Table()))
	}
	if items == nil {
		items = []*entity.CatalogItem{}
	}
	return items, nil
}

// Get 根据 ID 或 slug 获取启用条目
func (s *Service) Get(ctx context.Context, idOrSlug string) (*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.Get")
	defer span.End()

	item, err := s.lookup(ctx, idOrSlug)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	if !item.IsActive {
		return nil, s.notFound()
	}
	return item, nil
}

// lookup 不区分启用状态
func (s *Service) lookup(ctx context.Context, idOrSlug string) (*entity.CatalogItem, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, apperrors.Newf(apperrors.CodeInvalidParam, "%s ID is required", capitalize(s.Kind().Label()))
	}

	var (
		item *entity.CatalogItem
		err  error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		item, err = s.repo.GetByID(ctx, idOrSlug)
	} else {
		item, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, fmt.Sprintf("failed to fetch %s", s.Kind().Label()))
	}
	if item == nil {
		return nil, s.notFound()
	}
	return item, nil
}

// Create 创建条目
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.Create")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return nil, s.validationError(err)
	}

	item := entity.NewCatalogItem(in.Name, in.Slug, in.Description)
	if item.Slug == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "slug must contain letters or digits")
	}

	if err := s.repo.Create(ctx, item); err != nil {
		tracer.RecordError(span, err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Newf(apperrors.CodeConflict, "%s with slug %q already exists", s.Kind().Label(), item.Slug)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, fmt.Sprintf("failed to create %s", s.Kind().Label()))
	}

	s.invalidate(ctx)
	logger.Info(ctx, "catalog item created", "kind", string(s.Kind()), "id", item.ID, "slug", item.Slug)
	return item, nil
}

// Update 更新条目
func (s *Service) Update(ctx context.Context, idOrSlug string, in UpdateInput) (*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.Update")
	defer span.End()

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return nil, s.validationError(err)
	}

	item, err := s.lookup(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}

	if err := s.repo.Update(ctx, item); err != nil {
		tracer.RecordError(span, err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, fmt.Sprintf("failed to update %s", s.Kind().Label()))
	}

	s.invalidate(ctx)
	return item, nil
}

// Delete 物理删除条目
func (s *Service) Delete(ctx context.Context, idOrSlug string) error {
	ctx, span := tracer.Start(ctx, "catalog.Service.Delete")
	defer span.End()

	item, err := s.lookup(ctx, idOrSlug)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, item.ID)
	if err != nil {
		tracer.RecordError(span, err)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, fmt.Sprintf("failed to delete %s", s.Kind().Label()))
	}
	if !deleted {
		return s.notFound()
	}

	s.invalidate(ctx)
	logger.Info(ctx, "catalog item deleted", "kind", string(s.Kind()), "id", item.ID)
	return nil
}

// Deactivate 软删除条目
func (s *Service) Deactivate(ctx context.Context, idOrSlug string) (*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.Deactivate")
	defer span.End()

	item, err := s.lookup(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Deactivate(ctx, item.ID)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, fmt.Sprintf("failed to deactivate %s", s.Kind().Label()))
	}
	if !updated {
		return nil, s.notFound()
	}

	item.IsActive = false
	s.invalidate(ctx)
	return item, nil
}

// IsActive 判断 slug 或名称是否命中启用条目
func (s *Service) IsActive(ctx context.Context, slugOrName string) (bool, error) {
	items, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item.Matches(slugOrName) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.listKey()); err != nil {
		logger.Warn(ctx, "failed to invalidate catalog cache", "key", s.listKey(), "error", err.Error())
	}
}

func (s *Service) notFound() *apperrors.AppError {
	if s.Kind() == entity.CatalogProjectType {
		return apperrors.New(apperrors.CodeProjectTypeNotFound, "Project type not found")
	}
	return apperrors.New(apperrors.CodeIndustryNotFound, "Industry not found")
}

func (s *Service) validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid request")
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required", "min":
		return apperrors.Newf(apperrors.CodeInvalidParam, "%s is required", field)
	case "max":
		return apperrors.Newf(apperrors.CodeInvalidParam, "%s must be at most %s characters", field, fe.Param())
	default:
		return apperrors.Newf(apperrors.CodeInvalidParam, "%s is invalid", field)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

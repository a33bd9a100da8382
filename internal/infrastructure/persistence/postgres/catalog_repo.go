// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"innovative-sphere-api/internal/domain/entity"
)

// CatalogRepository 目录仓储实现，industries 与 project_types 共用
type CatalogRepository struct {
	client *Client
	kind   entity.CatalogKind
}

// NewCatalogRepository 创建目录仓储
func NewCatalogRepository(client *Client, kind entity.CatalogKind) *CatalogRepository {
	return &CatalogRepository{client: client, kind: kind}
}

// NewIndustryRepository 创建行业仓储
func NewIndustryRepository(client *Client) *CatalogRepository {
	return NewCatalogRepository(client, entity.CatalogIndustry)
}

// NewProjectTypeRepository 创建项目类型仓储
func NewProjectTypeRepository(client *Client) *CatalogRepository {
	return NewCatalogRepository(client, entity.CatalogProjectType)
}

// Kind 返回目录类型
func (r *CatalogRepository) Kind() entity.CatalogKind {
	return r.kind
}

func (r *CatalogRepository) table(ctx context.Context) *gorm.DB {
	return getDB(ctx, r.client.db).Table(r.kind.Table())
}

func (r *CatalogRepository) spanName(op string) string {
	return fmt.Sprintf("postgres.CatalogRepository[%s].%s", r.kind, op)
}

// Create 创建条目
func (r *CatalogRepository) Create(ctx context.Context, item *entity.CatalogItem) error {
	ctx, span := tracer.Start(ctx, r.spanName("Create"))
	defer span.End()

	if err := r.table(ctx).Create(item).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create %s: %w", r.kind.Label(), err)
	}
	return nil
}

// GetByID 根据 ID 获取条目
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, r.spanName("GetByID"))
	defer span.End()

	item, err := r.first(ctx, "id = ?", id)
	if err != nil {
		span.RecordError(err)
	}
	return item, err
}

// GetBySlug 根据 slug 获取条目
func (r *CatalogRepository) GetBySlug(ctx context.Context, slug string) (*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, r.spanName("GetBySlug"))
	defer span.End()

	item, err := r.first(ctx, "slug = ?", strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		span.RecordError(err)
	}
	return item, err
}

// FindActive 根据 slug 或名称获取启用的条目
func (r *CatalogRepository) FindActive(ctx context.Context, slugOrName string) (*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, r.spanName("FindActive"))
	defer span.End()

	v := strings.ToLower(strings.TrimSpace(slugOrName))
	item, err := r.first(ctx, "is_active = ? AND (slug = ? OR LOWER(name) = ?)", true, v, v)
	if err != nil {
		span.RecordError(err)
	}
	return item, err
}

// first 查询单条记录，未找到时返回 (nil, nil)
func (r *CatalogRepository) first(ctx context.Context, query string, args ...any) (*entity.CatalogItem, error) {
	var item entity.CatalogItem
	if err := r.table(ctx).Where(query, args...).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", r.kind.Label(), err)
	}
	return &item, nil
}

// ListActive 获取启用的条目
func (r *CatalogRepository) ListActive(ctx context.Context) ([]*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, r.spanName("ListActive"))
	defer span.End()

	var items []*entity.CatalogItem
	if err := r.table(ctx).Where("is_active = ?", true).Order("name ASC").Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list %s: %w", r.kind.Table(), err)
	}
	return items, nil
}

// Search 按名称模糊搜索启用的条目
func (r *CatalogRepository) Search(ctx context.Context, query string) ([]*entity.CatalogItem, error) {
	ctx, span := tracer.Start(ctx, r.spanName("Search"))
	defer span.End()

	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	var items []*entity.CatalogItem
	if err := r.table(ctx).
		Where("is_active = ? AND name ILIKE ? ESCAPE '\\'", true, pattern).
		Order("name ASC").
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search %s: %w", r.kind.Table(), err)
	}
	return items, nil
}

// Update 更新条目
func (r *CatalogRepository) Update(ctx context.Context, item *entity.CatalogItem) error {
	ctx, span := tracer.Start(ctx, r.spanName("Update"))
	defer span.End()

	item.UpdatedAt = time.Now()
	if err := r.table(ctx).Save(item).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update %s: %w", r.kind.Label(), err)
	}
	return nil
}

// Delete 物理删除条目
func (r *CatalogRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, r.spanName("Delete"))
	defer span.End()

	result := r.table(ctx).Where("id = ?", id).Delete(&entity.CatalogItem{})
	if result.Error != nil {
		span.RecordError(result.Error)
		return false, fmt.Errorf("failed to delete %s: %w", r.kind.Label(), result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Deactivate 软删除条目
func (r *CatalogRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, r.spanName("Deactivate"))
	defer span.End()

	result := r.table(ctx).Where("id = ?", id).Updates(map[string]any{
		"is_active":  false,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		span.RecordError(result.Error)
		return false, fmt.Errorf("failed to deactivate %s: %w", r.kind.Label(), result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Upsert 按 slug 插入或更新条目
func (r *CatalogRepository) Upsert(ctx context.Context, item *entity.CatalogItem) error {
	ctx, span := tracer.Start(ctx, r.spanName("Upsert"))
	defer span.End()

	err := r.table(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "is_active", "updated_at"}),
	}).Create(item).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert %s %q: %w", r.kind.Label(), item.Slug, err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 模式中的通配符
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

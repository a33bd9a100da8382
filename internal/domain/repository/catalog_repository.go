// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"innovative-sphere-api/internal/domain/entity"
)

// CatalogRepository 行业/项目类型目录仓储接口
// 未找到记录时返回 (nil, nil)
type CatalogRepository interface {
	// Kind 返回仓储负责的目录类型
	Kind() entity.CatalogKind

	// Create 创建条目，slug 冲突时返回包装后的 gorm.ErrDuplicatedKey
	Create(ctx context.Context, item *entity.CatalogItem) error

	// GetByID 根据 ID 获取条目（不区分启用状态）
	GetByID(ctx context.Context, id string) (*entity.CatalogItem, error)

	// GetBySlug 根据 slug 获取条目（不区分启用状态）
	GetBySlug(ctx context.Context, slug string) (*entity.CatalogItem, error)

	// ListActive 获取启用的条目，按名称排序
	ListActive(ctx context.Context) ([]*entity.CatalogItem, error)

	// Search 按名称模糊搜索启用的条目
	Search(ctx context.Context, query string) ([]*entity.CatalogItem, error)

	// FindActive 根据 slug 或名称（忽略大小写）获取启用的条目
	FindActive(ctx context.Context, slugOrName string) (*entity.CatalogItem, error)

	// Update 更新条目
	Update(ctx context.Context, item *entity.CatalogItem) error

	// Delete 物理删除条目，返回是否存在被删除的记录
	Delete(ctx context.Context, id string) (bool, error)

	// Deactivate 软删除条目，返回是否存在被更新的记录
	Deactivate(ctx context.Context, id string) (bool, error)

	// Upsert 按 slug 插入或更新条目
	Upsert(ctx context.Context, item *entity.CatalogItem) error
}

package catalog

import (
	"context"
	"fmt"

	"innovative-sphere-api/internal/domain/entity"
)

// Registry 按目录类型查找服务
type Registry struct {
	services map[entity.CatalogKind]*Service
}

// NewRegistry 创建目录服务注册表
func NewRegistry(services ...*Service) *Registry {
	r := &Registry{services: make(map[entity.CatalogKind]*Service, len(services))}
	for _, s := range services {
		r.services[s.Kind()] = s
	}
	return r
}

// For 返回指定类型的服务，不存在时返回 nil
func (r *Registry) For(kind entity.CatalogKind) *Service {
	return r.services[kind]
}

// Industries 行业目录服务
func (r *Registry) Industries() *Service {
	return r.For(entity.CatalogIndustry)
}

// ProjectTypes 项目类型目录服务
func (r *Registry) ProjectTypes() *Service {
	return r.For(entity.CatalogProjectType)
}

// IsActive 判断值是否为指定目录中的启用条目
func (r *Registry) IsActive(ctx context.Context, kind entity.CatalogKind, slugOrName string) (bool, error) {
	s := r.For(kind)
	if s == nil {
		return false, fmt.Errorf("catalog %q is not registered", kind)
	}
	return s.IsActive(ctx, slugOrName)
}

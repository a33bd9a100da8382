package dto

import (
	"time"

	"innovative-sphere-api/internal/application/catalog"
	"innovative-sphere-api/internal/domain/entity"
)

// CreateCatalogItemRequest 创建行业/项目类型请求
type CreateCatalogItemRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// ToInput 转换为应用层参数
func (r *CreateCatalogItemRequest) ToInput() catalog.CreateInput {
	return catalog.CreateInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
	}
}

// UpdateCatalogItemRequest 更新行业/项目类型请求，未提供的字段保持不变
type UpdateCatalogItemRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// ToInput 转换为应用层参数
func (r *UpdateCatalogItemRequest) ToInput() catalog.UpdateInput {
	return catalog.UpdateInput{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
}

// CatalogItemResponse 行业/项目类型响应
type CatalogItemResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// ToCatalogItemResponse 转换目录条目
func ToCatalogItemResponse(item *entity.CatalogItem) *CatalogItemResponse {
	if item == nil {
		return nil
	}
	return &CatalogItemResponse{
		ID:          item.ID,
		Slug:        item.Slug,
		Name:        item.Name,
		Description: item.Description,
		IsActive:    item.IsActive,
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}

// ToCatalogItemList 转换目录条目列表
func ToCatalogItemList(items []*entity.CatalogItem) []*CatalogItemResponse {
	out := make([]*CatalogItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ToCatalogItemResponse(item))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"innovative-sphere-api/internal/application/catalog"
	"innovative-sphere-api/internal/domain/entity"
	"innovative-sphere-api/internal/interfaces/http/dto"
)

// CatalogService 目录服务
type CatalogService interface {
	List(ctx context.Context) ([]*entity.CatalogItem, error)
	Search(ctx context.Context, query string) ([]*entity.CatalogItem, error)
	Get(ctx context.Context, idOrSlug string) (*entity.CatalogItem, error)
	Create(ctx context.Context, in catalog.CreateInput) (*entity.CatalogItem, error)
	Update(ctx context.Context, idOrSlug string, in catalog.UpdateInput) (*entity.CatalogItem, error)
	Delete(ctx context.Context, idOrSlug string) error
	Deactivate(ctx context.Context, idOrSlug string) (*entity.CatalogItem, error)
}

// CatalogHandler 行业/项目类型处理器，两类目录共用
type CatalogHandler struct {
	svc CatalogService
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// Register 注册目录路由
func (h *CatalogHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.GET("/search", h.Search)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/deactivate", h.Deactivate)
}

// List 获取启用条目
// @Summary 获取目录列表
// @Tags Catalog
// @Produce json
// @Router /api/v1/industries [get]
// @Router /api/v1/project-types [get]
func (h *CatalogHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.SuccessList(c, dto.MessageDataRetrieved, dto.ToCatalogItemList(items))
}

// Search 按名称搜索
func (h *CatalogHandler) Search(c *gin.Context) {
	items, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.SuccessList(c, dto.MessageDataRetrieved, dto.ToCatalogItemList(items))
}

// Get 根据 ID 或 slug 获取
func (h *CatalogHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.Success(c, dto.MessageDataRetrieved, dto.ToCatalogItemResponse(item))
}

// Create 创建条目
func (h *CatalogHandler) Create(c *gin.Context) {
	var req dto.CreateCatalogItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.svc.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.Created(c, dto.ToCatalogItemResponse(item))
}

// Update 更新条目
func (h *CatalogHandler) Update(c *gin.Context) {
	var req dto.UpdateCatalogItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), req.ToInput())
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.Success(c, dto.MessageUpdated, dto.ToCatalogItemResponse(item))
}

// Delete 物理删除
func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.Success[any](c, dto.MessageDeleted, nil)
}

// Deactivate 软删除
func (h *CatalogHandler) Deactivate(c *gin.Context) {
	item, err := h.svc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.Success(c, dto.MessageUpdated, dto.ToCatalogItemResponse(item))
}

// compile-time check
var _ CatalogService = (*catalog.Service)(nil)

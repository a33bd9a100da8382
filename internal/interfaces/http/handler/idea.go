package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"innovative-sphere-api/internal/application/idea"
	"innovative-sphere-api/internal/domain/entity"
	"innovative-sphere-api/internal/interfaces/http/dto"
)

// IdeaGenerator 创意生成
type IdeaGenerator interface {
	Generate(ctx context.Context, req idea.GenerationRequest) (*entity.Idea, error)
}

// IdeaHandler 创意处理器
type IdeaHandler struct {
	generator IdeaGenerator
}

// NewIdeaHandler 创建创意处理器，generator 为 nil 表示功能关闭
func NewIdeaHandler(generator IdeaGenerator) *IdeaHandler {
	return &IdeaHandler{generator: generator}
}

// Generate 生成项目创意
// @Summary 生成项目创意
// @Tags Ideas
// @Accept json
// @Produce json
// @Param body body dto.GenerateIdeaRequest true "生成参数"
// @Success 200 {object} dto.Response[dto.GenerateIdeaResponse]
// @Router /api/v1/ideas/generate [post]
func (h *IdeaHandler) Generate(c *gin.Context) {
	if h.generator == nil {
		dto.Error(c, http.StatusServiceUnavailable, "idea generation is disabled")
		return
	}

	var req dto.GenerateIdeaRequest
	if !bindJSON(c, &req) {
		return
	}

	generated, err := h.generator.Generate(c.Request.Context(), req.ToGenerationRequest())
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	resp := dto.ToIdeaResponse(generated)
	dto.Success(c, dto.MessageIdeaGenerated, &dto.GenerateIdeaResponse{
		Idea:        resp,
		GeneratedAt: resp.GeneratedAt,
	})
}

// bindJSON 解析请求体，空请求体视为空对象交由业务校验
func bindJSON(c *gin.Context, out any) bool {
	err := c.ShouldBindJSON(out)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		dto.Error(c, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	dto.BadRequest(c, dto.MessageInvalidJSON)
	return false
}

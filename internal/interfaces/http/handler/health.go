// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"innovative-sphere-api/internal/interfaces/http/dto"
)

// HealthChecker 依赖健康检查
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	pg          HealthChecker
	redis       HealthChecker
	environment string
	startedAt   time.Time
}

// NewHealthHandler 创建健康检查处理器，redis 为 nil 表示未启用
func NewHealthHandler(pg, redis HealthChecker, environment string) *HealthHandler {
	return &HealthHandler{
		pg:          pg,
		redis:       redis,
		environment: environment,
		startedAt:   time.Now(),
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	Version     string  `json:"version"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Success:     true,
		Message:     dto.MessageAPIRunning,
		Version:     dto.APIVersion,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Uptime:      time.Since(h.startedAt).Seconds(),
		Environment: h.environment,
	})
}

// Ready 就绪检查接口
// Postgres 为必需依赖，Redis 故障只标记为 degraded
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"postgres": probe(ctx, h.pg, "missing", "error"),
		"redis":    probe(ctx, h.redis, "disabled", "degraded"),
	}

	pgStatus := checks["postgres"].Status
	if pgStatus != "ok" {
		c.JSON(http.StatusServiceUnavailable, readinessResponse{Status: "not_ready", Checks: checks})
		return
	}
	c.JSON(http.StatusOK, readinessResponse{Status: "ok", Checks: checks})
}

// probe 执行单项检查，checker 为 nil 时返回 absent 状态
func probe(ctx context.Context, checker HealthChecker, absent, failed string) *readinessCheck {
	if checker == nil {
		return &readinessCheck{Status: absent}
	}
	start := time.Now()
	err := checker.HealthCheck(ctx)
	check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = failed
		check.Error = err.Error()
	}
	return check
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"innovative-sphere-api/internal/infrastructure/persistence/redis"
	"innovative-sphere-api/internal/interfaces/http/dto"
	"innovative-sphere-api/pkg/logger"
	"innovative-sphere-api/pkg/metrics"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
	// MaxRequests 窗口内允许的最大请求数
	MaxRequests int
	// Window 滑动窗口长度
	Window time.Duration
	// Scope 限流键的作用域
	Scope string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, remaining int, err error)
}

// RateLimit 按客户端 IP 的滑动窗口限流中间件
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}
	retryAfter := strconv.Itoa(int(math.Ceil(cfg.Window.Seconds())))
	limit := strconv.Itoa(cfg.MaxRequests)

	return func(c *gin.Context) {
		key := redis.BuildRateLimitKey(c.ClientIP(), cfg.Scope)

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, cfg.MaxRequests, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		c.Header("RateLimit-Limit", limit)
		c.Header("RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))

		if !allowed {
			path := c.FullPath()
			if path == "" {
				path = "unmatched"
			}
			metrics.RateLimitRejected.WithLabelValues(path).Inc()
			c.Header("Retry-After", retryAfter)
			dto.AbortWithError(c, http.StatusTooManyRequests, dto.MessageTooManyRequest)
			return
		}

		c.Next()
	}
}

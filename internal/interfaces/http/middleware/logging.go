// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"innovative-sphere-api/pkg/logger"
)

// RequestLogger 访问日志中间件
func RequestLogger(skipPaths ...string) gin.HandlerFunc {
	if len(skipPaths) == 0 {
		skipPaths = SystemPaths
	}

	return func(c *gin.Context) {
		if slices.Contains(skipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"user_agent", c.Request.UserAgent(),
			"body_size", c.Writer.Size(),
		}

		switch {
		case status >= 500:
			logger.Warn(c.Request.Context(), "api request failed", fields...)
		default:
			logger.Info(c.Request.Context(), "api request", fields...)
		}
	}
}

// BodyLimit 限制请求体大小
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

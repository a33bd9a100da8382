// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"innovative-sphere-api/internal/interfaces/http/dto"
	"innovative-sphere-api/pkg/logger"
)

// Recovery Panic 恢复中间件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", err),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				dto.AbortWithError(c, http.StatusInternalServerError, "Internal Server Error")
			}
		}()

		c.Next()
	}
}

// NotFound 未匹配路由
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		dto.ErrorWithDetail(c, http.StatusNotFound, dto.MessageRouteNotFound, &dto.ErrorDetail{
			Details: fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.Path),
		})
	}
}

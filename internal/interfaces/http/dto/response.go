// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "innovative-sphere-api/pkg/errors"
	"innovative-sphere-api/pkg/logger"
)

// APIVersion 对外暴露的 API 版本
const APIVersion = "1.0.0"

// 成功提示
const (
	MessageAPIRunning     = "InnovativeSphere API is running"
	MessageDataRetrieved  = "Data retrieved successfully"
	MessageIdeaGenerated  = "Idea generated successfully"
	MessageCreated        = "Created successfully"
	MessageUpdated        = "Updated successfully"
	MessageDeleted        = "Deleted successfully"
	MessageInvalidJSON    = "Request body contains invalid JSON"
	MessageRouteNotFound  = "Route not found"
	MessageTooManyRequest = "Too many requests from this IP, please try again later."
)

// Response 统一响应结构
type Response[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

// Meta 响应元数据
type Meta struct {
	APIVersion string `json:"apiVersion"`
	Timestamp  string `json:"timestamp"`
	Count      *int   `json:"count,omitempty"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	ErrorCode string `json:"errorCode,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Success bool         `json:"success"`
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"traceId,omitempty"`
}

// NewMeta 创建响应元数据
func NewMeta() *Meta {
	return &Meta{
		APIVersion: APIVersion,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Success 返回成功响应
func Success[T any](c *gin.Context, message string, data T) {
	c.JSON(http.StatusOK, Response[T]{
		Success: true,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
		Meta:    NewMeta(),
		TraceID: c.GetString("trace_id"),
	})
}

// SuccessList 返回列表响应，meta 中携带条目数
func SuccessList[T any](c *gin.Context, message string, items []T) {
	meta := NewMeta()
	count := len(items)
	meta.Count = &count
	c.JSON(http.StatusOK, Response[[]T]{
		Success: true,
		Code:    http.StatusOK,
		Message: message,
		Data:    items,
		Meta:    meta,
		TraceID: c.GetString("trace_id"),
	})
}

// Created 返回创建成功响应 (201)
func Created[T any](c *gin.Context, data T) {
	c.JSON(http.StatusCreated, Response[T]{
		Success: true,
		Code:    http.StatusCreated,
		Message: MessageCreated,
		Data:    data,
		Meta:    NewMeta(),
		TraceID: c.GetString("trace_id"),
	})
}

// Error 返回错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, ErrorResponse{
		Code:    httpCode,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// ErrorWithDetail 返回带详情的错误响应
func ErrorWithDetail(c *gin.Context, httpCode int, message string, detail *ErrorDetail) {
	c.JSON(httpCode, ErrorResponse{
		Code:    httpCode,
		Message: message,
		Error:   detail,
		TraceID: c.GetString("trace_id"),
	})
}

// AbortWithError 终止请求并返回错误响应，供中间件使用
func AbortWithError(c *gin.Context, httpCode int, message string) {
	c.AbortWithStatusJSON(httpCode, ErrorResponse{
		Code:    httpCode,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// FromAppError 将错误映射为 HTTP 响应
// 未分类错误只返回通用信息，5xx 错误记录日志
func FromAppError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	message := appErr.Message
	if appErr.Code == apperrors.CodeUnknown {
		message = "Internal Server Error"
	}

	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", err,
			"code", string(appErr.Code),
			"status", status,
			"path", c.Request.URL.Path,
		)
	}

	_ = c.Error(err)
	ErrorWithDetail(c, status, message, &ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	})
}

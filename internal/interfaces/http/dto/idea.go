package dto

import (
	"time"

	"innovative-sphere-api/internal/application/idea"
	"innovative-sphere-api/internal/domain/entity"
)

// GenerateIdeaRequest 创意生成请求
type GenerateIdeaRequest struct {
	Industry      string   `json:"industry"`
	ProjectType   string   `json:"projectType"`
	UserInterests []string `json:"userInterests"`
	Complexity    string   `json:"complexity,omitempty"`
}

// ToGenerationRequest 转换为应用层请求
func (r *GenerateIdeaRequest) ToGenerationRequest() idea.GenerationRequest {
	return idea.GenerationRequest{
		Industry:      r.Industry,
		ProjectType:   r.ProjectType,
		UserInterests: r.UserInterests,
		Complexity:    entity.Complexity(r.Complexity),
	}
}

// IdeaResponse 创意响应
type IdeaResponse struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Industry          string   `json:"industry"`
	ProjectType       string   `json:"projectType"`
	Complexity        string   `json:"complexity"`
	EstimatedDuration string   `json:"estimatedDuration"`
	Technologies      []string `json:"technologies"`
	Features          []string `json:"features"`
	Objectives        []string `json:"objectives"`
	Challenges        []string `json:"challenges"`
	GeneratedAt       string   `json:"generatedAt"`
}

// GenerateIdeaResponse 创意生成响应数据
type GenerateIdeaResponse struct {
	Idea        *IdeaResponse `json:"idea"`
	GeneratedAt string        `json:"generatedAt"`
}

// ToIdeaResponse 转换创意实体
func ToIdeaResponse(i *entity.Idea) *IdeaResponse {
	if i == nil {
		return nil
	}
	return &IdeaResponse{
		ID:                i.ID,
		Title:             i.Title,
		Description:       i.Description,
		Industry:          i.Industry,
		ProjectType:       i.ProjectType,
		Complexity:        string(i.Complexity),
		EstimatedDuration: i.EstimatedDuration,
		Technologies:      nonNil(i.Technologies),
		Features:          nonNil(i.Features),
		Objectives:        nonNil(i.Objectives),
		Challenges:        nonNil(i.Challenges),
		GeneratedAt:       i.GeneratedAt.UTC().Format(time.RFC3339Nano),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

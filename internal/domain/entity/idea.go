package entity

import (
	"time"
)

// Complexity 项目复杂度
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// DefaultComplexity 未指定时的复杂度
const DefaultComplexity = ComplexityIntermediate

// IsValid 检查复杂度是否合法
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexityBeginner, ComplexityIntermediate, ComplexityAdvanced:
		return true
	}
	return false
}

// 解析后字段的上限
const (
	IdeaTitleMaxRunes   = 100
	IdeaTechnologiesMax = 10
	IdeaFeaturesMax     = 15
	IdeaObjectivesMax   = 10
	IdeaChallengesMax   = 8
)

// IdeaContent 从模型回复中解析出的创意内容
type IdeaContent struct {
	Title             string
	Description       string
	Technologies      []string
	Features          []string
	Objectives        []string
	Challenges        []string
	EstimatedDuration string
}

// Idea 生成的项目创意，仅返回给调用方，不持久化
type Idea struct {
	IdeaContent

	ID          string
	Industry    string
	ProjectType string
	Complexity  Complexity
	GeneratedAt time.Time
}

package idea

import (
	"encoding/json"
	"strconv"
	"strings"

	"innovative-sphere-api/internal/domain/entity"
	apperrors "innovative-sphere-api/pkg/errors"
)

// 解析失败原因，用于指标标签
const (
	parseReasonNoJSON        = "no_json"
	parseReasonInvalidJSON   = "invalid_json"
	parseReasonInvalidFormat = "invalid_format"
)

// ParseError 描述模型回复无法还原为创意结构的原因
type ParseError struct {
	Reason string
	*apperrors.AppError
}

func newParseError(reason, message string, cause error) *ParseError {
	return &ParseError{
		Reason:   reason,
		AppError: apperrors.Wrap(cause, apperrors.CodeIdeaParseFailed, message),
	}
}

// Unwrap 返回内部 AppError，使 errors.As 可以找到它
func (e *ParseError) Unwrap() error {
	return e.AppError
}

// ParseIdea 从模型回复中提取 JSON 对象并规整为创意内容
// 先尝试整体严格解析，失败后退回到首个 '{' 与最后一个 '}' 之间的片段
func ParseIdea(raw string) (*entity.IdeaContent, error) {
	obj, err := extractObject(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}

	title, ok := requiredText(obj, "title")
	if !ok {
		return nil, newParseError(parseReasonInvalidFormat, "invalid format", nil)
	}
	description, ok := requiredText(obj, "description")
	if !ok {
		return nil, newParseError(parseReasonInvalidFormat, "invalid format", nil)
	}

	return &entity.IdeaContent{
		Title:             truncateRunes(title, entity.IdeaTitleMaxRunes),
		Description:       description,
		Technologies:      stringList(obj["technologies"], entity.IdeaTechnologiesMax),
		Features:          stringList(obj["features"], entity.IdeaFeaturesMax),
		Objectives:        stringList(obj["objectives"], entity.IdeaObjectivesMax),
		Challenges:        stringList(obj["challenges"], entity.IdeaChallengesMax),
		EstimatedDuration: optionalText(obj["estimatedDuration"]),
	}, nil
}

func extractObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, nil
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, newParseError(parseReasonNoJSON, "no JSON found", nil)
	}

	obj = nil
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, newParseError(parseReasonInvalidJSON, "failed to parse JSON from model response", err)
	}
	if obj == nil {
		return nil, newParseError(parseReasonInvalidFormat, "invalid format", nil)
	}
	return obj, nil
}

// requiredText 字段必须存在且为真值
func requiredText(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key]
	if !ok || !truthy(v) {
		return "", false
	}
	return stringify(v), true
}

func optionalText(v any) string {
	if v == nil {
		return ""
	}
	return stringify(v)
}

// truthy 空字符串、0、false、null 视为缺失
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// stringList 非数组值视为空列表，null 元素被丢弃，其余元素转为字符串
func stringList(v any, max int) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, min(len(items), max))
	for _, item := range items {
		if len(out) == max {
			break
		}
		if item == nil {
			continue
		}
		out = append(out, stringify(item))
	}
	return out
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

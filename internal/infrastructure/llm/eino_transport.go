package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/meguminnnnnnnnn/go-openai"

	apperrors "innovative-sphere-api/pkg/errors"
)

// EinoTransportConfig Eino OpenAI ChatModel 配置
type EinoTransportConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// EinoTransport 通过 Eino ChatModel 调用 OpenAI 兼容接口
type EinoTransport struct {
	chatModel model.BaseChatModel
}

// NewEinoTransport 使用 Eino 的 OpenAI 适配器创建传输
func NewEinoTransport(ctx context.Context, cfg EinoTransportConfig) (*EinoTransport, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model: %w", err)
	}
	return NewEinoTransportFromModel(chatModel), nil
}

// NewEinoTransportFromModel 包装已有的 ChatModel
func NewEinoTransportFromModel(chatModel model.BaseChatModel) *EinoTransport {
	return &EinoTransport{chatModel: chatModel}
}

// Chat 实现 Transport，采样参数通过 model.Option 逐次传入
func (t *EinoTransport) Chat(ctx context.Context, messages []Message, params SamplingParams, maxTokens int) (*ChatResult, error) {
	input := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			input = append(input, schema.SystemMessage(m.Content))
		default:
			input = append(input, schema.UserMessage(m.Content))
		}
	}

	out, err := t.chatModel.Generate(ctx, input,
		model.WithTemperature(float32(params.Temperature)),
		model.WithTopP(float32(params.TopP)),
		model.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return nil, classifyEinoError(err)
	}
	if out == nil || out.Content == "" {
		return nil, apperrors.New(apperrors.CodeUpstreamMalformed, "invalid response format from completion service")
	}

	result := &ChatResult{Content: out.Content}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		result.PromptTokens = out.ResponseMeta.Usage.PromptTokens
		result.CompletionTokens = out.ResponseMeta.Usage.CompletionTokens
	}
	return result, nil
}

var statusCodePattern = regexp.MustCompile(`status code: (\d{3})`)

// classifyEinoError 从 go-openai 错误中取出 HTTP 状态码后按 HTTPTransport 相同规则分类
func classifyEinoError(err error) error {
	if isTimeout(err) {
		return apperrors.Wrap(err, apperrors.CodeUpstreamTimeout, "request timeout")
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return statusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusError(reqErr.HTTPStatusCode, err.Error())
	}
	// 适配层未用 %w 包装时，退回到错误文本中的状态码
	if m := statusCodePattern.FindStringSubmatch(err.Error()); m != nil {
		if status, convErr := strconv.Atoi(m[1]); convErr == nil {
			return statusError(status, err.Error())
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperrors.Wrap(err, apperrors.CodeUpstreamMalformed, "invalid response format from completion service")
	}
	return fmt.Errorf("completion request failed: %w", err)
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "innovative-sphere-api/pkg/errors"
)

const (
	maxResponseBytes = 4 << 20
	errorBodyPreview = 256
)

// HTTPTransportConfig OpenAI 兼容接口的直连配置
type HTTPTransportConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// Client 为 nil 时按 Timeout 创建
	Client *http.Client
}

// HTTPTransport 直接 POST {base_url}/chat/completions
type HTTPTransport struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewHTTPTransport 创建直连传输
func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPTransport{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:   cfg.APIKey,
		model:    orDefault(cfg.Model, DefaultModel),
		client:   client,
	}
}

// Chat 实现 Transport
func (t *HTTPTransport) Chat(ctx context.Context, messages []Message, params SamplingParams, maxTokens int) (*ChatResult, error) {
	req := &chatRequest{
		Model:       t.model,
		Messages:    make([]chatMessage, 0, len(messages)),
		Temperature: params.Temperature,
		TopP:        params.TopP,
		MaxTokens:   maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, transportError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(httpResp.Body, errorBodyPreview))
		return nil, statusError(httpResp.StatusCode, string(preview))
	}

	var resp chatResponse
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, maxResponseBytes)).Decode(&resp); err != nil {
		if isTimeout(err) {
			return nil, apperrors.Wrap(err, apperrors.CodeUpstreamTimeout, "request timeout")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeUpstreamMalformed, "invalid response format from completion service")
	}

	if len(resp.Choices) == 0 {
		return nil, apperrors.New(apperrors.CodeUpstreamMalformed, "no response generated from completion service")
	}
	msg := resp.Choices[0].Message
	if msg == nil || msg.Content == "" {
		return nil, apperrors.New(apperrors.CodeUpstreamMalformed, "invalid response format from completion service")
	}

	result := &ChatResult{Content: msg.Content}
	if resp.Usage != nil {
		result.PromptTokens = resp.Usage.PromptTokens
		result.CompletionTokens = resp.Usage.CompletionTokens
	}
	return result, nil
}

// statusError 按上游 HTTP 状态码分类，429/401 以外的非 2xx 不分类
func statusError(status int, body string) error {
	switch status {
	case http.StatusTooManyRequests:
		return apperrors.New(apperrors.CodeUpstreamRateLimited, "rate limit exceeded")
	case http.StatusUnauthorized:
		return apperrors.New(apperrors.CodeUpstreamUnauthorized, "invalid credentials")
	}
	return fmt.Errorf("completion request failed: status=%d body=%s", status, strings.TrimSpace(body))
}

// transportError 网络层错误，超时单独分类
func transportError(err error) error {
	if isTimeout(err) {
		return apperrors.Wrap(err, apperrors.CodeUpstreamTimeout, "request timeout")
	}
	return fmt.Errorf("completion request failed: %w", err)
}

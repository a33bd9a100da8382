// Package llm 提供大模型 Chat Completion 客户端
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"innovative-sphere-api/internal/config"
	apperrors "innovative-sphere-api/pkg/errors"
	"innovative-sphere-api/pkg/logger"
	"innovative-sphere-api/pkg/metrics"
)

var tracer = otel.Tracer("llm")

// SystemPrompt 固定的系统指令
const SystemPrompt = "You are an expert project advisor who generates innovative, feasible capstone project ideas. Always respond with valid JSON format containing project details."

// 采样参数
const (
	baseTemperature     = 0.95
	temperatureSpanUp   = 0.15
	temperatureSpanDown = 0.05
	minTemperature      = 0.9
	maxTemperature      = 1.1

	baseTopP = 0.96
	topPSpan = 0.03
	minTopP  = 0.90
	maxTopP  = 0.99
)

// 默认值
const (
	DefaultModel          = "mistral-small-latest"
	DefaultMaxTokens      = 2000
	DefaultTimeout        = 30 * time.Second
	DefaultMaxAttempts    = 3
	DefaultRetryBaseDelay = time.Second
)

// Options 客户端参数
type Options struct {
	// Provider 仅用于指标与日志
	Provider       string
	BaseURL        string
	APIKey         string
	Model          string
	MaxTokens      int
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	SamplingJitter bool

	// Breaker 可选熔断器，为 nil 时不启用
	Breaker *gobreaker.CircuitBreaker
	// Transport 为 nil 时使用 HTTPTransport
	Transport Transport
	// HTTPClient 仅用于默认 HTTPTransport，为 nil 时按 Timeout 创建
	HTTPClient *http.Client
	// Float64 随机源，为 nil 时使用 math/rand/v2
	Float64 func() float64
}

// CompletionClient 调用 /chat/completions 的客户端，负责重试、退避与错误分类
type CompletionClient struct {
	opts      Options
	transport Transport
	random    func() float64
	sleep     func(ctx context.Context, d time.Duration) error
}

// SamplingParams 单次尝试使用的采样参数
type SamplingParams struct {
	Temperature float64
	TopP        float64
}

// Message 对话消息
type Message struct {
	Role    string
	Content string
}

// ChatResult 单次调用结果
type ChatResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Transport 执行单次 chat completion 调用
// 实现需将 429/401/超时/响应格式异常分类为对应的 AppError
type Transport interface {
	Chat(ctx context.Context, messages []Message, params SamplingParams, maxTokens int) (*ChatResult, error)
}

// NewCompletionClient 创建客户端
func NewCompletionClient(opts Options) *CompletionClient {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if opts.Provider == "" {
		opts.Provider = "mistral"
	}

	transport := opts.Transport
	if transport == nil {
		transport = NewHTTPTransport(HTTPTransportConfig{
			BaseURL: opts.BaseURL,
			APIKey:  opts.APIKey,
			Model:   opts.Model,
			Timeout: opts.Timeout,
			Client:  opts.HTTPClient,
		})
	}
	random := opts.Float64
	if random == nil {
		random = rand.Float64
	}

	return &CompletionClient{
		opts:      opts,
		transport: transport,
		random:    random,
		sleep:     sleepContext,
	}
}

// 传输方式
const (
	TransportEino = "eino"
	TransportHTTP = "http"
)

// NewCompletionClientFromConfig 根据配置创建创意生成使用的客户端
func NewCompletionClientFromConfig(ctx context.Context, cfg *config.Config) (*CompletionClient, error) {
	provider, ok := cfg.IdeaProvider()
	if !ok {
		return nil, fmt.Errorf("llm provider %q is not configured", cfg.LLM.Idea.Provider)
	}
	if provider.APIKey == "" {
		return nil, fmt.Errorf("llm provider %q has no api key", cfg.LLM.Idea.Provider)
	}

	idea := cfg.LLM.Idea
	opts := Options{
		Provider:       idea.Provider,
		BaseURL:        provider.BaseURL,
		APIKey:         provider.APIKey,
		Model:          provider.Model,
		MaxTokens:      provider.MaxTokens,
		Timeout:        provider.Timeout,
		MaxAttempts:    idea.MaxAttempts,
		RetryBaseDelay: idea.RetryBaseDelay,
		SamplingJitter: idea.SamplingJitter,
	}

	switch idea.Transport {
	case "", TransportEino:
		transport, err := NewEinoTransport(ctx, EinoTransportConfig{
			BaseURL: provider.BaseURL,
			APIKey:  provider.APIKey,
			Model:   orDefault(provider.Model, DefaultModel),
			Timeout: provider.Timeout,
		})
		if err != nil {
			return nil, err
		}
		opts.Transport = transport
	case TransportHTTP:
	default:
		return nil, fmt.Errorf("unknown llm transport %q", idea.Transport)
	}

	if idea.CircuitBreaker.Enabled {
		opts.Breaker = NewBreaker(idea.Provider, idea.CircuitBreaker)
	}
	return NewCompletionClient(opts), nil
}

// NewBreaker 创建熔断器，失败率达到阈值后打开
func NewBreaker(name string, cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm." + name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Complete 发送提示词并返回第一条回复内容（原样返回）
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.CompletionClient.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.opts.Provider),
		attribute.String("llm.model", c.opts.Model),
	)

	messages := []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: prompt},
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		attempts = attempt
		params := c.sample()

		content, err := c.attempt(ctx, messages, params)
		if err == nil {
			span.SetAttributes(attribute.Int("llm.attempts", attempt))
			return content, nil
		}
		lastErr = err

		if !c.retryable(ctx, err) || attempt == c.opts.MaxAttempts {
			break
		}

		delay := c.backoff(attempt, err)
		reason := retryReason(err)
		metrics.LLMRetriesTotal.WithLabelValues(c.opts.Provider, reason).Inc()
		logger.Warn(ctx, "completion attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", c.opts.MaxAttempts,
			"reason", reason,
			"delay_ms", delay.Milliseconds(),
			"error", err.Error(),
		)

		if err := c.sleep(ctx, delay); err != nil {
			lastErr = contextError(err)
			break
		}
	}

	span.SetAttributes(attribute.Int("llm.attempts", attempts))
	span.RecordError(lastErr)
	return "", c.exhausted(lastErr, attempts)
}

// attempt 执行一次调用，启用熔断时经由熔断器
func (c *CompletionClient) attempt(ctx context.Context, messages []Message, params SamplingParams) (string, error) {
	if c.opts.Breaker == nil {
		return c.call(ctx, messages, params)
	}

	result, err := c.opts.Breaker.Execute(func() (any, error) {
		return c.call(ctx, messages, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.LLMCallTotal.WithLabelValues(c.opts.Provider, c.opts.Model, "circuit_open").Inc()
		return "", apperrors.Wrap(err, apperrors.CodeUpstreamCircuitOpened, "completion service temporarily unavailable")
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// call 经由 Transport 执行一次调用并记录指标
func (c *CompletionClient) call(ctx context.Context, messages []Message, params SamplingParams) (content string, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = string(apperrors.CodeOf(err))
		}
		metrics.LLMCallTotal.WithLabelValues(c.opts.Provider, c.opts.Model, status).Inc()
		metrics.LLMCallDuration.WithLabelValues(c.opts.Provider, c.opts.Model).Observe(time.Since(start).Seconds())
	}()

	result, err := c.transport.Chat(ctx, messages, params, c.opts.MaxTokens)
	if err != nil {
		return "", err
	}
	if result.PromptTokens > 0 || result.CompletionTokens > 0 {
		metrics.LLMTokensUsed.WithLabelValues(c.opts.Provider, c.opts.Model, "prompt").Add(float64(result.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(c.opts.Provider, c.opts.Model, "completion").Add(float64(result.CompletionTokens))
	}
	return result.Content, nil
}

// sample 生成本次尝试的采样参数
func (c *CompletionClient) sample() SamplingParams {
	if !c.opts.SamplingJitter {
		return SamplingParams{Temperature: baseTemperature, TopP: baseTopP}
	}

	// 以 0.95 为中心，向下至多 0.05，向上至多 0.15
	var temperature float64
	if c.random() < 0.5 {
		temperature = baseTemperature - c.random()*temperatureSpanDown
	} else {
		temperature = baseTemperature + c.random()*temperatureSpanUp
	}
	topP := baseTopP + (c.random()*2-1)*topPSpan

	return SamplingParams{
		Temperature: round4(clamp(temperature, minTemperature, maxTemperature)),
		TopP:        round4(clamp(topP, minTopP, maxTopP)),
	}
}

// retryable 未授权与熔断错误立即失败，调用方取消后不再重试
func (c *CompletionClient) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch apperrors.CodeOf(err) {
	case apperrors.CodeUpstreamUnauthorized, apperrors.CodeUpstreamCircuitOpened:
		return false
	}
	return true
}

// backoff 限流使用指数退避，其余为线性退避
func (c *CompletionClient) backoff(attempt int, err error) time.Duration {
	base := c.opts.RetryBaseDelay
	if apperrors.HasCode(err, apperrors.CodeUpstreamRateLimited) {
		return base * time.Duration(1<<(attempt-1))
	}
	return base * time.Duration(attempt)
}

// exhausted 已分类错误原样返回，未分类错误附带尝试次数
func (c *CompletionClient) exhausted(err error, attempts int) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Newf(apperrors.CodeGenerationFailed,
		"failed to generate idea after %d attempts: %v", attempts, err).WithError(err)
}

func retryReason(err error) string {
	switch code := apperrors.CodeOf(err); code {
	case apperrors.CodeUpstreamRateLimited:
		return "rate_limited"
	case apperrors.CodeUpstreamTimeout:
		return "timeout"
	case apperrors.CodeUpstreamMalformed:
		return "malformed"
	default:
		return "error"
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeUpstreamTimeout, "request timeout")
	}
	return apperrors.Wrap(err, apperrors.CodeGenerationFailed, "idea generation cancelled")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

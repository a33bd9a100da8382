package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "innovative-sphere-api/pkg/errors"
)

type fakeChatModel struct {
	input   []*schema.Message
	options *model.Options
	calls   int
	reply   *schema.Message
	err     error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	f.input = input
	f.options = model.GetCommonOptions(&model.Options{}, opts...)
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestEinoTransport_PassesSamplingPerCall(t *testing.T) {
	reply := schema.AssistantMessage(`{"title":"X"}`, nil)
	reply.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 12, CompletionTokens: 34, TotalTokens: 46}}
	fake := &fakeChatModel{reply: reply}
	transport := NewEinoTransportFromModel(fake)

	result, err := transport.Chat(context.Background(), []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: "generate something"},
	}, SamplingParams{Temperature: 1.02, TopP: 0.95}, 2000)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"X"}`, result.Content)
	assert.Equal(t, 12, result.PromptTokens)
	assert.Equal(t, 34, result.CompletionTokens)

	require.Len(t, fake.input, 2)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, schema.User, fake.input[1].Role)
	assert.Equal(t, "generate something", fake.input[1].Content)

	require.NotNil(t, fake.options.Temperature)
	require.NotNil(t, fake.options.TopP)
	require.NotNil(t, fake.options.MaxTokens)
	assert.InDelta(t, 1.02, *fake.options.Temperature, 1e-6)
	assert.InDelta(t, 0.95, *fake.options.TopP, 1e-6)
	assert.Equal(t, 2000, *fake.options.MaxTokens)
}

func TestEinoTransport_EmptyContentIsMalformed(t *testing.T) {
	transport := NewEinoTransportFromModel(&fakeChatModel{reply: schema.AssistantMessage("", nil)})

	_, err := transport.Chat(context.Background(), nil, SamplingParams{}, 10)
	assert.Equal(t, apperrors.CodeUpstreamMalformed, apperrors.CodeOf(err))
}

func TestClassifyEinoError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"api error 429", fmt.Errorf("failed to create chat completion: %w", &goopenai.APIError{HTTPStatusCode: 429, Message: "slow down"}), apperrors.CodeUpstreamRateLimited},
		{"api error 401", fmt.Errorf("failed to create chat completion: %w", &goopenai.APIError{HTTPStatusCode: 401, Message: "bad key"}), apperrors.CodeUpstreamUnauthorized},
		{"request error 429", fmt.Errorf("wrapped: %w", &goopenai.RequestError{HTTPStatusCode: 429, Err: errors.New("too many")}), apperrors.CodeUpstreamRateLimited},
		{"status only in text", errors.New("error, status code: 401, status: 401 Unauthorized, message: bad key"), apperrors.CodeUpstreamUnauthorized},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), apperrors.CodeUpstreamTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, apperrors.CodeOf(classifyEinoError(tc.err)))
		})
	}

	t.Run("server error stays unclassified", func(t *testing.T) {
		err := classifyEinoError(&goopenai.APIError{HTTPStatusCode: 502, Message: "upstream down"})
		assert.False(t, apperrors.IsAppError(err))
		assert.Contains(t, err.Error(), "status=502")
	})
}

func TestComplete_OverEinoTransportRetriesRateLimit(t *testing.T) {
	fake := &fakeChatModel{err: &goopenai.APIError{HTTPStatusCode: 429, Message: "slow down"}}
	client := NewCompletionClient(Options{
		Transport:      NewEinoTransportFromModel(fake),
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
	})
	var delays []time.Duration
	client.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := client.Complete(context.Background(), "p")
	assert.Equal(t, apperrors.CodeUpstreamRateLimited, apperrors.CodeOf(err))
	assert.Equal(t, 3, fake.calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

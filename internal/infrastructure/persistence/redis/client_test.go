package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestHealthCheck_RecordsCatalogCacheSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	client := NewClientFromRedis(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))
	t.Cleanup(func() { _ = client.Close() })

	err := client.HealthCheck(context.Background())
	require.Error(t, err)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	span := spans[len(spans)-1]
	assert.Equal(t, "catalog.cache.HealthCheck", span.Name())

	var usage []string
	for _, kv := range span.Attributes() {
		if kv.Key == "redis.usage" {
			usage = kv.Value.AsStringSlice()
		}
	}
	assert.Equal(t, []string{"catalog_cache", "rate_limit"}, usage)
}

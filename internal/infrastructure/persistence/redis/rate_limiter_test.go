package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:api:10.0.0.1", BuildRateLimitKey("10.0.0.1", "api"))
}

func TestCacheKeyPrefix(t *testing.T) {
	assert.Equal(t, "catalog:industry:active", NewCache(nil, "catalog").key("industry:active"))
	assert.Equal(t, "plain", NewCache(nil, "").key("plain"))
}

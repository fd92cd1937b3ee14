package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpos/backend/internal/domain"
)

// Nothing listens on port 1, so every command fails at dial time.
func newUnreachableCache(t *testing.T) *RedisRecommendationCache {
	t.Helper()
	c := NewRedisRecommendationCache("127.0.0.1:1", "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisKeysAreNamespaced(t *testing.T) {
	c := NewRedisRecommendationCache("127.0.0.1:1", "", 0)
	defer c.Close()

	assert.Equal(t, "stockpos:recommendation:order:prd-rice-5kg", c.key("recommendation:order:prd-rice-5kg"))
}

func TestRedisErrorsReachCaller(t *testing.T) {
	c := newUnreachableCache(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Error(t, c.Delete(ctx, "recommendation:order:prd-rice-5kg"))
	require.Error(t, c.Set(ctx, "recommendation:order:prd-rice-5kg", &domain.OrderRecommendation{ProductID: "prd-rice-5kg"}, time.Minute))

	rec, hit, err := c.Get(ctx, "recommendation:order:prd-rice-5kg")
	require.Error(t, err)
	assert.False(t, hit)
	assert.Nil(t, rec)
}

func TestRedisSetSkipsNil(t *testing.T) {
	c := newUnreachableCache(t)

	assert.NoError(t, c.Set(context.Background(), "recommendation:order:prd-rice-5kg", nil, time.Minute))
}

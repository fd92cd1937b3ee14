package cache

import (
	"context"
	"time"

	"stockpos/backend/internal/domain"
)

type RecommendationCache interface {
	Get(ctx context.Context, key string) (*domain.OrderRecommendation, bool, error)
	Set(ctx context.Context, key string, value *domain.OrderRecommendation, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type NoopRecommendationCache struct{}

func (NoopRecommendationCache) Get(_ context.Context, _ string) (*domain.OrderRecommendation, bool, error) {
	return nil, false, nil
}

func (NoopRecommendationCache) Set(_ context.Context, _ string, _ *domain.OrderRecommendation, _ time.Duration) error {
	return nil
}

func (NoopRecommendationCache) Delete(_ context.Context, _ string) error {
	return nil
}

package recommendation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stockpos/backend/internal/cache"
	"stockpos/backend/internal/domain"
)

const (
	PriceSourceLastPurchase = "last_purchase"
	PriceSourceAverage      = "historical_average"
	PriceSourceNone         = "none"

	// DefaultOrderQty is suggested when a product has no alert threshold.
	DefaultOrderQty = 10
	thresholdFactor = 3
)

// Source is the read side the engine needs from the repository.
type Source interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetPurchaseHistory(ctx context.Context, productID string) (domain.PurchaseHistory, error)
}

type Engine struct {
	cache    cache.RecommendationCache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewEngine(cacheStore cache.RecommendationCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopRecommendationCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Recommend suggests how much of a product to reorder, from whom and at what
// price. Cache failures degrade to a fresh computation.
func (e *Engine) Recommend(ctx context.Context, src Source, productID string) (domain.OrderRecommendation, error) {
	key := cacheKey(productID)
	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		return *cached, nil
	}

	product, err := src.GetProduct(ctx, productID)
	if err != nil {
		return domain.OrderRecommendation{}, err
	}
	history, err := src.GetPurchaseHistory(ctx, productID)
	if err != nil {
		return domain.OrderRecommendation{}, err
	}

	rec := Build(*product, history, e.now())
	_ = e.cache.Set(ctx, key, &rec, e.cacheTTL)
	return rec, nil
}

// Invalidate drops the cached recommendation for a product.
func (e *Engine) Invalidate(ctx context.Context, productID string) error {
	return e.cache.Delete(ctx, cacheKey(productID))
}

func Build(product domain.Product, history domain.PurchaseHistory, at time.Time) domain.OrderRecommendation {
	qty := product.AlertThreshold * thresholdFactor
	if product.AlertThreshold <= 0 {
		qty = DefaultOrderQty
	}

	supplierID := product.SupplierID
	if supplierID == "" {
		supplierID = history.LastSupplierID
	}

	price := decimal.Zero
	source := PriceSourceNone
	switch {
	case product.LastPurchasePrice.IsPositive():
		price = product.LastPurchasePrice
		source = PriceSourceLastPurchase
	case history.AverageUnitPrice.IsPositive():
		price = history.AverageUnitPrice.Round(2)
		source = PriceSourceAverage
	}

	return domain.OrderRecommendation{
		ProductID:      product.ID,
		ProductName:    product.Name,
		CurrentStock:   product.Stock,
		Threshold:      product.AlertThreshold,
		SuggestedQty:   qty,
		SupplierID:     supplierID,
		UnitPrice:      price,
		EstimatedTotal: price.Mul(decimal.NewFromInt(int64(qty))).Round(2),
		PriceSource:    source,
		GeneratedAt:    at,
	}
}

func cacheKey(productID string) string {
	return "recommendation:order:" + productID
}

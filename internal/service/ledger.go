package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
)

func (s *Service) RecordMovement(ctx context.Context, req domain.MovementRequest) (domain.StockMovement, error) {
	actor := actorOf(ctx)

	req.ProductID = strings.TrimSpace(req.ProductID)
	req.Type = domain.MovementType(strings.ToUpper(strings.TrimSpace(string(req.Type))))
	if req.ProductID == "" {
		return domain.StockMovement{}, store.Invalid("product_id", "is required")
	}
	if !req.Type.Valid() {
		return domain.StockMovement{}, store.Invalid("type", "must be ENTRY, EXIT or ADJUSTMENT")
	}
	if req.Quantity <= 0 {
		return domain.StockMovement{}, store.Invalid("quantity", "must be > 0")
	}

	recorded, err := s.repo.RecordMovement(ctx, domain.StockMovement{
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		ActorID:   actor.ID,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.StockMovement{}, storageErr(err)
	}
	s.invalidateRecommendation(ctx, recorded.ProductID)

	s.logAudit(ctx, "stock_movement", "product", recorded.ProductID,
		fmt.Sprintf("type=%s,qty=%d,before=%d,after=%d", recorded.Type, recorded.Quantity, recorded.StockBefore, recorded.StockAfter))
	return *recorded, nil
}

func (s *Service) ListMovements(ctx context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	productID = strings.TrimSpace(productID)
	if productID != "" {
		if _, err := s.repo.GetProduct(ctx, productID); err != nil {
			return nil, storageErr(err)
		}
	}
	if limit < 0 {
		limit = 0
	}
	movements, err := s.repo.ListMovements(ctx, productID, limit)
	return movements, storageErr(err)
}

// VerifyStock recomputes baseline + entries - exits from the ledger and
// compares it with the recorded stock. Adjustments are reported but never
// counted.
func (s *Service) VerifyStock(ctx context.Context, productID string) (domain.StockVerification, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.StockVerification{}, storageErr(err)
	}
	movements, err := s.repo.ListMovements(ctx, product.ID, 0)
	if err != nil {
		return domain.StockVerification{}, storageErr(err)
	}

	result := domain.StockVerification{
		ProductID:     product.ID,
		BaselineStock: product.BaselineStock,
		RecordedStock: product.Stock,
	}
	for _, m := range movements {
		switch m.Type {
		case domain.MovementEntry:
			result.TotalEntries += m.Quantity
		case domain.MovementExit:
			result.TotalExits += m.Quantity
		case domain.MovementAdjustment:
			result.Adjustments++
		}
	}
	result.ExpectedStock = result.BaselineStock + result.TotalEntries - result.TotalExits
	result.Consistent = result.ExpectedStock == result.RecordedStock
	return result, nil
}

// ReplenishmentNeeds lists tracked products at or below their threshold,
// lowest stock first, suggesting enough to reach twice the threshold.
func (s *Service) ReplenishmentNeeds(ctx context.Context) (domain.ReplenishmentResponse, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.ReplenishmentResponse{}, storageErr(err)
	}
	alerts, err := s.repo.ListAlerts(ctx, store.AlertFilter{
		Statuses: []domain.AlertStatus{domain.AlertUnread, domain.AlertSeen, domain.AlertInProgress, domain.AlertOrderPlaced},
	})
	if err != nil {
		return domain.ReplenishmentResponse{}, storageErr(err)
	}
	alerted := make(map[string]struct{}, len(alerts))
	for _, alert := range alerts {
		alerted[alert.ProductID] = struct{}{}
	}

	needs := make([]domain.ReplenishmentNeed, 0, 16)
	for _, p := range products {
		if p.AlertThreshold <= 0 || p.Stock > p.AlertThreshold {
			continue
		}
		_, open := alerted[p.ID]
		needs = append(needs, domain.ReplenishmentNeed{
			ProductID:    p.ID,
			Name:         p.Name,
			CurrentStock: p.Stock,
			Threshold:    p.AlertThreshold,
			SuggestedQty: 2*p.AlertThreshold - p.Stock,
			OpenAlert:    open,
		})
	}
	sort.Slice(needs, func(i, j int) bool {
		if needs[i].CurrentStock == needs[j].CurrentStock {
			return needs[i].Name < needs[j].Name
		}
		return needs[i].CurrentStock < needs[j].CurrentStock
	})

	return domain.ReplenishmentResponse{
		GeneratedAt: s.now().Format(time.RFC3339),
		Needs:       needs,
	}, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

func (s *Service) CreatePurchaseOrder(ctx context.Context, req domain.PurchaseOrderCreateRequest) (domain.PurchaseOrderResponse, error) {
	actor := actorOf(ctx)

	req.SupplierID = strings.TrimSpace(req.SupplierID)
	if req.SupplierID == "" {
		return domain.PurchaseOrderResponse{}, store.Invalid("supplier_id", "is required")
	}
	if len(req.Lines) == 0 {
		return domain.PurchaseOrderResponse{}, store.Invalid("lines", "at least one line is required")
	}

	lines := make([]domain.PurchaseOrderLine, 0, len(req.Lines))
	for i, line := range req.Lines {
		productID := strings.TrimSpace(line.ProductID)
		if productID == "" {
			return domain.PurchaseOrderResponse{}, store.Invalid(fmt.Sprintf("lines[%d].product_id", i), "is required")
		}
		if line.Quantity < 1 {
			return domain.PurchaseOrderResponse{}, store.Invalid(fmt.Sprintf("lines[%d].quantity", i), "must be >= 1")
		}
		if line.UnitPrice.IsNegative() {
			return domain.PurchaseOrderResponse{}, store.Invalid(fmt.Sprintf("lines[%d].unit_price", i), "must be >= 0")
		}
		lines = append(lines, domain.PurchaseOrderLine{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	alertIDs := make([]string, 0, len(req.LinkedAlertIDs))
	for _, id := range req.LinkedAlertIDs {
		if id = strings.TrimSpace(id); id != "" {
			alertIDs = append(alertIDs, id)
		}
	}

	po, linked, err := s.repo.CreatePurchaseOrder(ctx, domain.PurchaseOrder{
		ID:         xid.New("po"),
		SupplierID: req.SupplierID,
		Status:     domain.OrderPending,
		CreatedBy:  actor.ID,
		CreatedAt:  s.now(),
		Lines:      lines,
	}, alertIDs)
	if err != nil {
		return domain.PurchaseOrderResponse{}, storageErr(err)
	}
	// Pending orders feed the purchase history behind recommendations.
	for _, line := range po.Lines {
		s.invalidateRecommendation(ctx, line.ProductID)
	}

	total := po.Total()
	s.logAudit(ctx, "purchase_order_create", "purchase_order", po.ID,
		fmt.Sprintf("supplier=%s,lines=%d,total=%s,linked_alerts=%d", po.SupplierID, len(po.Lines), total.StringFixed(2), len(linked)))
	return domain.PurchaseOrderResponse{
		PurchaseOrder:  *po,
		Total:          total,
		LinkedAlertIDs: linked,
	}, nil
}

// ConfirmPurchaseReceipt books the goods of a pending order into stock and
// closes its alerts. Cached recommendations for the received products are
// dropped afterwards.
func (s *Service) ConfirmPurchaseReceipt(ctx context.Context, orderID string) (domain.ReceiptReconciliation, error) {
	actor := actorOf(ctx)
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.ReceiptReconciliation{}, store.Invalid("purchase_order_id", "is required")
	}

	result, err := s.repo.ConfirmPurchaseReceipt(ctx, orderID, actor.ID, s.now())
	if err != nil {
		return domain.ReceiptReconciliation{}, storageErr(err)
	}

	for _, line := range result.PurchaseOrder.Lines {
		s.invalidateRecommendation(ctx, line.ProductID)
	}

	units := 0
	for _, m := range result.Movements {
		units += m.Quantity
	}
	s.logAudit(ctx, "purchase_order_receive", "purchase_order", orderID,
		fmt.Sprintf("movements=%d,units=%d,archived_alerts=%d", len(result.Movements), units, len(result.ArchivedAlertIDs)))
	s.logger.Info("purchase order received",
		zap.String("purchase_order_id", orderID),
		zap.String("actor_id", actor.ID),
		zap.Int("movements", len(result.Movements)),
		zap.Int("units", units),
		zap.Strings("archived_alerts", result.ArchivedAlertIDs),
	)
	return *result, nil
}

func (s *Service) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrderResponse, error) {
	po, err := s.repo.GetPurchaseOrder(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.PurchaseOrderResponse{}, storageErr(err)
	}

	alerts, err := s.repo.ListAlerts(ctx, store.AlertFilter{PurchaseOrderID: po.ID})
	if err != nil {
		return domain.PurchaseOrderResponse{}, storageErr(err)
	}
	linked := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		linked = append(linked, alert.ID)
	}
	return domain.PurchaseOrderResponse{PurchaseOrder: *po, Total: po.Total(), LinkedAlertIDs: linked}, nil
}

func (s *Service) ListPurchaseOrders(ctx context.Context, status string, limit int) (domain.PurchaseOrderListResponse, error) {
	filter := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if filter != "" && !filter.Valid() {
		return domain.PurchaseOrderListResponse{}, store.Invalid("status", "must be PENDING or RECEIVED")
	}

	orders, err := s.repo.ListPurchaseOrders(ctx, filter, limit)
	if err != nil {
		return domain.PurchaseOrderListResponse{}, storageErr(err)
	}
	return domain.PurchaseOrderListResponse{PurchaseOrders: orders}, nil
}

func (s *Service) OrderRecommendation(ctx context.Context, productID string) (domain.OrderRecommendation, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.OrderRecommendation{}, store.Invalid("product_id", "is required")
	}
	rec, err := s.recommender.Recommend(ctx, s.repo, productID)
	if err != nil {
		return domain.OrderRecommendation{}, storageErr(err)
	}
	return rec, nil
}

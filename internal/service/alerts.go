package service

import (
	"context"
	"fmt"
	"strings"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

func (s *Service) CreateManualAlert(ctx context.Context, req domain.ManualAlertRequest) (domain.Alert, error) {
	actor := actorOf(ctx)

	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		return domain.Alert{}, store.Invalid("product_id", "is required")
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	req.Priority = domain.AlertPriority(strings.ToUpper(string(req.Priority)))
	if !req.Priority.Valid() {
		return domain.Alert{}, store.Invalid("priority", "must be CRITICAL, HIGH, MEDIUM or LOW")
	}

	trail := domain.AppendComment(strings.TrimSpace(req.Comment), fmt.Sprintf(store.ManualAlertComment, actor.ID))
	created, err := s.repo.CreateAlert(ctx, domain.Alert{
		ID:        xid.New("alr"),
		ProductID: req.ProductID,
		Priority:  req.Priority,
		Status:    domain.AlertUnread,
		Comment:   trail,
		CreatedBy: actor.ID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Alert{}, storageErr(err)
	}

	s.logAudit(ctx, "alert_create", "alert", created.ID,
		fmt.Sprintf("product=%s,priority=%s,stock=%d,threshold=%d", created.ProductID, created.Priority, created.StockSnapshot, created.Threshold))
	return *created, nil
}

func (s *Service) UpdateAlertStatus(ctx context.Context, alertID string, req domain.AlertStatusRequest) (domain.Alert, error) {
	alertID = strings.TrimSpace(alertID)
	next := domain.AlertStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	if !next.Valid() {
		return domain.Alert{}, store.Invalid("status", "must be UNREAD, SEEN, IN_PROGRESS, ORDER_PLACED or ARCHIVED")
	}

	updated, err := s.repo.TransitionAlert(ctx, alertID, next, strings.TrimSpace(req.Comment), s.now())
	if err != nil {
		return domain.Alert{}, storageErr(err)
	}

	s.logAudit(ctx, "alert_status", "alert", updated.ID, "status="+string(updated.Status))
	return *updated, nil
}

func (s *Service) GetAlert(ctx context.Context, id string) (domain.Alert, error) {
	alert, err := s.repo.GetAlert(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Alert{}, storageErr(err)
	}
	return *alert, nil
}

// ListAlerts returns the alert queue, most urgent first. An empty status list
// means every status.
func (s *Service) ListAlerts(ctx context.Context, statuses []domain.AlertStatus, productID string, limit int) (domain.AlertListResponse, error) {
	normalized := make([]domain.AlertStatus, 0, len(statuses))
	for _, status := range statuses {
		status = domain.AlertStatus(strings.ToUpper(strings.TrimSpace(string(status))))
		if status == "" {
			continue
		}
		if !status.Valid() {
			return domain.AlertListResponse{}, store.Invalid("status", fmt.Sprintf("unknown alert status %q", status))
		}
		normalized = append(normalized, status)
	}
	if limit < 0 || limit > 500 {
		limit = 200
	}

	alerts, err := s.repo.ListAlerts(ctx, store.AlertFilter{
		Statuses:  normalized,
		ProductID: strings.TrimSpace(productID),
		Limit:     limit,
	})
	if err != nil {
		return domain.AlertListResponse{}, storageErr(err)
	}
	return domain.AlertListResponse{Alerts: alerts}, nil
}

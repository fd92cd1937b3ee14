package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

const alertColumns = `id, product_id, priority, status, stock_snapshot, threshold,
	COALESCE(purchase_order_id, '') AS purchase_order_id, comment, created_by, created_at, processed_at`

// priorityRank mirrors domain.AlertPriority.Rank for ORDER BY.
const priorityRank = `CASE priority WHEN 'CRITICAL' THEN 1 WHEN 'HIGH' THEN 2 WHEN 'MEDIUM' THEN 3 ELSE 4 END`

func (s *Store) CreateAlert(ctx context.Context, alert domain.Alert) (*domain.Alert, error) {
	if !alert.Priority.Valid() {
		return nil, store.Invalid("priority", "must be CRITICAL, HIGH, MEDIUM or LOW")
	}
	if alert.ID == "" {
		alert.ID = xid.New("alr")
	}
	if alert.Status == "" {
		alert.Status = domain.AlertUnread
	}
	if !alert.Status.Valid() {
		return nil, store.Invalid("status", "unknown alert status")
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	alert.ProcessedAt = nil

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var snapshot struct {
			Stock     int `db:"stock"`
			Threshold int `db:"alert_threshold"`
		}
		err := tx.GetContext(ctx, &snapshot, tx.Rebind(`SELECT stock, alert_threshold FROM products WHERE id = ?`), alert.ProductID)
		if err != nil {
			return notFound(err, "product", alert.ProductID)
		}
		alert.StockSnapshot = snapshot.Stock
		alert.Threshold = snapshot.Threshold

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO alerts (
				id, product_id, priority, status, stock_snapshot, threshold,
				purchase_order_id, comment, created_by, created_at
			)
			VALUES (?,?,?,?,?,?,?,?,?,?)
		`), alert.ID, alert.ProductID, string(alert.Priority), string(alert.Status), alert.StockSnapshot, alert.Threshold,
			nullIfEmpty(alert.PurchaseOrderID), alert.Comment, alert.CreatedBy, alert.CreatedAt.UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	saved := alert
	return &saved, nil
}

func (s *Store) GetAlert(ctx context.Context, id string) (*domain.Alert, error) {
	return getAlert(ctx, s.db, id)
}

func getAlert(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Alert, error) {
	var alert domain.Alert
	err := sqlx.GetContext(ctx, q, &alert, q.Rebind(`SELECT `+alertColumns+` FROM alerts WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, "alert", id)
	}
	normalizeAlert(&alert)
	return &alert, nil
}

func (s *Store) ListAlerts(ctx context.Context, filter store.AlertFilter) ([]domain.Alert, error) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, len(filter.Statuses)+3)
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, `status IN (`+placeholders(len(filter.Statuses))+`)`)
		args = append(args, statusArgs(filter.Statuses)...)
	}
	if filter.ProductID != "" {
		conditions = append(conditions, `product_id = ?`)
		args = append(args, filter.ProductID)
	}
	if filter.PurchaseOrderID != "" {
		conditions = append(conditions, `purchase_order_id = ?`)
		args = append(args, filter.PurchaseOrderID)
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY ` + priorityRank + ` ASC, created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	alerts := make([]domain.Alert, 0, 32)
	if err := s.db.SelectContext(ctx, &alerts, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for i := range alerts {
		normalizeAlert(&alerts[i])
	}
	return alerts, nil
}

// TransitionAlert reads the current status, checks the lifecycle rule and then
// writes with a compare-and-set on that status, so a concurrent change turns
// into ErrInvalidStateTransition instead of a lost update.
func (s *Store) TransitionAlert(ctx context.Context, id string, next domain.AlertStatus, comment string, at time.Time) (*domain.Alert, error) {
	if !next.Valid() {
		return nil, store.Invalid("status", "unknown alert status")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var updated *domain.Alert
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getAlert(ctx, tx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: alert %s cannot move from %s to %s", store.ErrInvalidStateTransition, id, current.Status, next)
		}

		trail := domain.AppendComment(current.Comment, comment)
		query := `UPDATE alerts SET status = ?, comment = ?`
		args := []any{string(next), trail}
		if next.Stamped() {
			query += `, processed_at = ?`
			args = append(args, at.UTC())
		}
		query += ` WHERE id = ? AND status = ?`
		args = append(args, id, string(current.Status))

		res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: alert %s changed concurrently", store.ErrInvalidStateTransition, id)
		}

		updated, err = getAlert(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func normalizeAlert(alert *domain.Alert) {
	alert.CreatedAt = alert.CreatedAt.UTC()
	if alert.ProcessedAt != nil {
		at := alert.ProcessedAt.UTC()
		alert.ProcessedAt = &at
	}
}

package sqlstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

const purchaseOrderColumns = `id, supplier_id, status, created_by, created_at,
	COALESCE(received_by, '') AS received_by, received_at`

func (s *Store) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder, linkedAlertIDs []string) (*domain.PurchaseOrder, []string, error) {
	if len(po.Lines) == 0 {
		return nil, nil, store.Invalid("lines", "at least one line is required")
	}
	if po.ID == "" {
		po.ID = xid.New("po")
	}
	if po.CreatedAt.IsZero() {
		po.CreatedAt = time.Now().UTC()
	}
	po.Status = domain.OrderPending
	po.ReceivedBy = ""
	po.ReceivedAt = nil
	po.Lines = slices.Clone(po.Lines)

	linked := make([]string, 0, len(linkedAlertIDs))
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM suppliers WHERE id = ?`), po.SupplierID)
		if err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("%w: supplier %s", store.ErrNotFound, po.SupplierID)
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO purchase_orders (id, supplier_id, status, created_by, created_at)
			VALUES (?,?,?,?,?)
		`), po.ID, po.SupplierID, string(po.Status), po.CreatedBy, po.CreatedAt.UTC())
		if err != nil {
			return err
		}

		for i := range po.Lines {
			line := &po.Lines[i]
			line.PurchaseOrderID = po.ID
			line.LineNo = i + 1
			if _, err := currentStock(ctx, tx, line.ProductID); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO purchase_order_lines (purchase_order_id, line_no, product_id, quantity, unit_price)
				VALUES (?,?,?,?,?)
			`), line.PurchaseOrderID, line.LineNo, line.ProductID, line.Quantity, line.UnitPrice)
			if err != nil {
				return err
			}
		}

		comment := fmt.Sprintf(store.LinkedAlertComment, po.ID)
		for _, alertID := range linkedAlertIDs {
			if slices.Contains(linked, alertID) {
				continue
			}
			alert, err := getAlert(ctx, tx, alertID)
			if err != nil {
				return err
			}
			if !slices.Contains(domain.OpenAlertStatuses, alert.Status) {
				continue
			}

			res, err := tx.ExecContext(ctx, tx.Rebind(`
				UPDATE alerts
				SET status = ?, purchase_order_id = ?, processed_at = ?, comment = ?
				WHERE id = ? AND status = ?
			`), string(domain.AlertOrderPlaced), po.ID, po.CreatedAt.UTC(), domain.AppendComment(alert.Comment, comment),
				alertID, string(alert.Status))
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 1 {
				linked = append(linked, alertID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	saved := po
	return &saved, linked, nil
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	return getPurchaseOrder(ctx, s.db, id)
}

func getPurchaseOrder(ctx context.Context, q sqlx.ExtContext, id string) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := sqlx.GetContext(ctx, q, &po, q.Rebind(`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, "purchase order", id)
	}

	orders := []domain.PurchaseOrder{po}
	if err := attachOrderLines(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *Store) ListPurchaseOrders(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.PurchaseOrder, error) {
	if limit < 1 {
		limit = 200
	}

	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders`
	args := make([]any, 0, 2)
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	orders := make([]domain.PurchaseOrder, 0, 16)
	if err := s.db.SelectContext(ctx, &orders, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	if err := attachOrderLines(ctx, s.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachOrderLines loads lines for every order with one IN query.
func attachOrderLines(ctx context.Context, q sqlx.ExtContext, orders []domain.PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	for _, po := range orders {
		ids = append(ids, po.ID)
	}
	query, args, err := sqlx.In(`
		SELECT purchase_order_id, line_no, product_id, quantity, unit_price
		FROM purchase_order_lines
		WHERE purchase_order_id IN (?)
		ORDER BY purchase_order_id, line_no
	`, ids)
	if err != nil {
		return err
	}

	lines := make([]domain.PurchaseOrderLine, 0, len(orders)*4)
	if err := sqlx.SelectContext(ctx, q, &lines, q.Rebind(query), args...); err != nil {
		return err
	}

	byOrder := make(map[string][]domain.PurchaseOrderLine, len(orders))
	for _, line := range lines {
		byOrder[line.PurchaseOrderID] = append(byOrder[line.PurchaseOrderID], line)
	}
	for i := range orders {
		orders[i].CreatedAt = orders[i].CreatedAt.UTC()
		if orders[i].ReceivedAt != nil {
			at := orders[i].ReceivedAt.UTC()
			orders[i].ReceivedAt = &at
		}
		orders[i].Lines = byOrder[orders[i].ID]
		if orders[i].Lines == nil {
			orders[i].Lines = []domain.PurchaseOrderLine{}
		}
	}
	return nil
}

// ConfirmPurchaseReceipt claims the order with a conditional status update,
// then books one ENTRY per line, refreshes last purchase prices and archives
// the alerts linked to the order, all in the claiming transaction.
func (s *Store) ConfirmPurchaseReceipt(ctx context.Context, id string, actorID string, at time.Time) (*domain.ReceiptReconciliation, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	at = at.UTC()
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		actorID = "system"
	}

	var result domain.ReceiptReconciliation
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE purchase_orders
			SET status = ?, received_by = ?, received_at = ?
			WHERE id = ? AND status = ?
		`), string(domain.OrderReceived), actorID, at, id, string(domain.OrderPending))
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			current, err := getPurchaseOrder(ctx, tx, id)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: purchase order %s is %s", store.ErrInvalidStateTransition, id, current.Status)
		}

		po, err := getPurchaseOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		movements := make([]domain.StockMovement, 0, len(po.Lines))
		for _, line := range po.Lines {
			m := domain.StockMovement{
				ProductID:       line.ProductID,
				Type:            domain.MovementEntry,
				Quantity:        line.Quantity,
				ActorID:         actorID,
				Comment:         store.ReceiptComment,
				PurchaseOrderID: po.ID,
				CreatedAt:       at,
			}
			if err := appendMovement(ctx, tx, &m); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE products SET last_purchase_price = ? WHERE id = ?`),
				line.UnitPrice, line.ProductID)
			if err != nil {
				return err
			}
			movements = append(movements, m)
		}

		archived, err := archiveLinkedAlerts(ctx, tx, po.ID, at)
		if err != nil {
			return err
		}

		result = domain.ReceiptReconciliation{
			PurchaseOrder:    *po,
			Movements:        movements,
			ArchivedAlertIDs: archived,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// archiveLinkedAlerts is the system path out of ORDER_PLACED; it does not go
// through the lifecycle check used for manual transitions.
func archiveLinkedAlerts(ctx context.Context, tx *sqlx.Tx, purchaseOrderID string, at time.Time) ([]string, error) {
	var linked []struct {
		ID      string `db:"id"`
		Comment string `db:"comment"`
	}
	err := tx.SelectContext(ctx, &linked, tx.Rebind(`
		SELECT id, comment FROM alerts
		WHERE purchase_order_id = ? AND status <> ?
		ORDER BY id
	`), purchaseOrderID, string(domain.AlertArchived))
	if err != nil {
		return nil, err
	}

	comment := fmt.Sprintf(store.ArchivedAlertComment, purchaseOrderID)
	archived := make([]string, 0, len(linked))
	for _, alert := range linked {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE alerts SET status = ?, processed_at = ?, comment = ? WHERE id = ?
		`), string(domain.AlertArchived), at, domain.AppendComment(alert.Comment, comment), alert.ID)
		if err != nil {
			return nil, err
		}
		archived = append(archived, alert.ID)
	}
	return archived, nil
}

func (s *Store) GetPurchaseHistory(ctx context.Context, productID string) (domain.PurchaseHistory, error) {
	history := domain.PurchaseHistory{ProductID: productID, AverageUnitPrice: decimal.Zero}

	var exists int
	if err := s.db.GetContext(ctx, &exists, s.db.Rebind(`SELECT COUNT(*) FROM products WHERE id = ?`), productID); err != nil {
		return history, err
	}
	if exists == 0 {
		return history, fmt.Errorf("%w: product %s", store.ErrNotFound, productID)
	}

	var stats struct {
		Orders  int                 `db:"orders"`
		Average decimal.NullDecimal `db:"average"`
	}
	err := s.db.GetContext(ctx, &stats, s.db.Rebind(`
		SELECT COUNT(DISTINCT purchase_order_id) AS orders, AVG(unit_price) AS average
		FROM purchase_order_lines
		WHERE product_id = ?
	`), productID)
	if err != nil {
		return history, err
	}
	if stats.Orders == 0 {
		return history, nil
	}
	history.OrderCount = stats.Orders
	if stats.Average.Valid {
		history.AverageUnitPrice = stats.Average.Decimal
	}

	err = s.db.GetContext(ctx, &history.LastSupplierID, s.db.Rebind(`
		SELECT po.supplier_id
		FROM purchase_orders po
		JOIN purchase_order_lines l ON l.purchase_order_id = po.id
		WHERE l.product_id = ?
		ORDER BY po.created_at DESC, po.id DESC
		LIMIT 1
	`), productID)
	if err != nil {
		return history, err
	}
	return history, nil
}

package sqlstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

const movementColumns = `id, product_id, movement_type, quantity, actor_id, comment,
	COALESCE(purchase_order_id, '') AS purchase_order_id, COALESCE(sale_id, '') AS sale_id,
	stock_before, stock_after, created_at`

func (s *Store) RecordMovement(ctx context.Context, movement domain.StockMovement) (*domain.StockMovement, error) {
	if !movement.Type.Valid() {
		return nil, store.Invalid("type", "must be ENTRY, EXIT or ADJUSTMENT")
	}
	if movement.Quantity <= 0 {
		return nil, store.Invalid("quantity", "must be > 0")
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return appendMovement(ctx, tx, &movement)
	})
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

// appendMovement applies the stock delta and writes the ledger row inside tx.
func appendMovement(ctx context.Context, tx *sqlx.Tx, m *domain.StockMovement) error {
	if m.ID == "" {
		m.ID = xid.New("mv")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := applyStockDelta(ctx, tx, m); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO stock_movements (
			id, product_id, movement_type, quantity, actor_id, comment,
			purchase_order_id, sale_id, stock_before, stock_after, created_at
		)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`), m.ID, m.ProductID, string(m.Type), m.Quantity, m.ActorID, m.Comment,
		nullIfEmpty(m.PurchaseOrderID), nullIfEmpty(m.SaleID), m.StockBefore, m.StockAfter, m.CreatedAt.UTC())
	return err
}

func (s *Store) ListMovements(ctx context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	args := make([]any, 0, 2)
	if productID != "" {
		query += ` WHERE product_id = ?`
		args = append(args, productID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	movements := make([]domain.StockMovement, 0, 32)
	if err := s.db.SelectContext(ctx, &movements, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return movements, nil
}

package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
)

const productColumns = `id, name, category_id, COALESCE(supplier_id, '') AS supplier_id, unit_price, vat_rate,
	stock, baseline_stock, alert_threshold, last_purchase_price, created_at`

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if product.ID == "" || product.Name == "" {
		return nil, store.Invalid("product", "id and name are required")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return insertProduct(ctx, tx, product)
	})
	if err != nil {
		return nil, err
	}
	saved := product
	return &saved, nil
}

func insertProduct(ctx context.Context, db sqlx.ExtContext, p domain.Product) error {
	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO products (
			id, name, category_id, supplier_id, unit_price, vat_rate,
			stock, baseline_stock, alert_threshold, last_purchase_price, created_at
		)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`), p.ID, p.Name, p.CategoryID, nullIfEmpty(p.SupplierID), p.UnitPrice, p.VATRate,
		p.Stock, p.BaselineStock, p.AlertThreshold, p.LastPurchasePrice, p.CreatedAt.UTC())
	return err
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 64)
	err := s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY category_id, name`)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(ids))
	if err := s.db.SelectContext(ctx, &products, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (s *Store) UpdateProductThreshold(ctx context.Context, id string, threshold int) (*domain.Product, error) {
	if threshold < 0 {
		return nil, store.Invalid("threshold", "must be >= 0")
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE products SET alert_threshold = ? WHERE id = ?`), threshold, id)
	if err != nil {
		return nil, s.classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	return s.GetProduct(ctx, id)
}

// applyStockDelta performs the conditional stock update for one movement and
// fills its before/after snapshot. EXIT only succeeds while stock >= quantity.
func applyStockDelta(ctx context.Context, tx *sqlx.Tx, m *domain.StockMovement) error {
	if m.Quantity <= 0 {
		return store.Invalid("quantity", "must be > 0")
	}

	var after int
	var err error
	switch m.Type {
	case domain.MovementEntry:
		err = tx.GetContext(ctx, &after, tx.Rebind(`
			UPDATE products SET stock = stock + ? WHERE id = ? RETURNING stock
		`), m.Quantity, m.ProductID)
		if err != nil {
			return notFound(err, "product", m.ProductID)
		}
		m.StockBefore = after - m.Quantity
	case domain.MovementExit:
		err = tx.GetContext(ctx, &after, tx.Rebind(`
			UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ? RETURNING stock
		`), m.Quantity, m.ProductID, m.Quantity)
		if err == nil {
			m.StockBefore = after + m.Quantity
			break
		}
		current, lookupErr := currentStock(ctx, tx, m.ProductID)
		if lookupErr != nil {
			return lookupErr
		}
		if current < m.Quantity {
			return &store.InsufficientStockError{ProductID: m.ProductID, Requested: m.Quantity, Available: current}
		}
		return err
	case domain.MovementAdjustment:
		after, err = currentStock(ctx, tx, m.ProductID)
		if err != nil {
			return err
		}
		m.StockBefore = after
	default:
		return store.Invalid("type", "must be ENTRY, EXIT or ADJUSTMENT")
	}
	m.StockAfter = after
	return nil
}

func currentStock(ctx context.Context, tx *sqlx.Tx, productID string) (int, error) {
	var stock int
	err := tx.GetContext(ctx, &stock, tx.Rebind(`SELECT stock FROM products WHERE id = ?`), productID)
	if err != nil {
		return 0, notFound(err, "product", productID)
	}
	return stock, nil
}

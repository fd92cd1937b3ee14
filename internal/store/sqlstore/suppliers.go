package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.Invalid("name", "is required")
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var taken int
		err := tx.GetContext(ctx, &taken, tx.Rebind(`SELECT COUNT(*) FROM suppliers WHERE LOWER(name) = LOWER(?)`), supplier.Name)
		if err != nil {
			return err
		}
		if taken > 0 {
			return store.Invalid("name", "already exists")
		}
		return insertSupplier(ctx, tx, supplier)
	})
	if err != nil {
		return nil, err
	}
	saved := supplier
	return &saved, nil
}

func insertSupplier(ctx context.Context, db sqlx.ExtContext, sup domain.Supplier) error {
	_, err := sqlx.NamedExecContext(ctx, db, `
		INSERT INTO suppliers (id, name, contact, address, created_at)
		VALUES (:id, :name, :contact, :address, :created_at)
	`, sup)
	return err
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var sup domain.Supplier
	err := s.db.GetContext(ctx, &sup, s.db.Rebind(`
		SELECT id, name, contact, address, created_at FROM suppliers WHERE id = ?
	`), id)
	if err != nil {
		return nil, notFound(err, "supplier", id)
	}
	sup.CreatedAt = sup.CreatedAt.UTC()
	return &sup, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers := make([]domain.Supplier, 0, 16)
	err := s.db.SelectContext(ctx, &suppliers, `SELECT id, name, contact, address, created_at FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return suppliers, nil
}

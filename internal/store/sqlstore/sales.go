package sqlstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale, movements []domain.StockMovement) (*domain.Sale, error) {
	if sale.ID == "" || len(sale.Lines) == 0 {
		return nil, store.Invalid("sale", "id and at least one line are required")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.Receipt.ID == "" {
		sale.Receipt.ID = xid.New("rcp")
	}
	sale.Receipt.SaleID = sale.ID
	sale.Receipt.CreatedAt = sale.CreatedAt

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO sales (id, actor_id, payment_method, created_at)
			VALUES (?,?,?,?)
		`), sale.ID, sale.ActorID, string(sale.PaymentMethod), sale.CreatedAt.UTC())
		if err != nil {
			return err
		}

		for i := range sale.Lines {
			line := &sale.Lines[i]
			line.SaleID = sale.ID
			line.LineNo = i + 1
			_, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO sale_lines (
					sale_id, line_no, product_id, product_name, quantity, unit_price, vat_rate, discount_percent
				)
				VALUES (?,?,?,?,?,?,?,?)
			`), line.SaleID, line.LineNo, line.ProductID, line.ProductName, line.Quantity,
				line.UnitPrice, line.VATRate, line.DiscountPercent)
			if err != nil {
				return err
			}
		}

		r := sale.Receipt
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO receipts (
				id, sale_id, payment_method, subtotal, discount_total, total_ht, vat_amount,
				total_ttc, amount_tendered, change_due, created_at
			)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)
		`), r.ID, r.SaleID, string(r.PaymentMethod), r.Subtotal, r.DiscountTotal, r.TotalHT, r.VATAmount,
			r.TotalTTC, r.AmountTendered, r.ChangeDue, r.CreatedAt.UTC())
		if err != nil {
			return err
		}

		for i := range movements {
			movements[i].SaleID = sale.ID
			if err := appendMovement(ctx, tx, &movements[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved := sale
	return &saved, nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.GetContext(ctx, &sale, s.db.Rebind(`
		SELECT id, actor_id, payment_method, created_at FROM sales WHERE id = ?
	`), id)
	if err != nil {
		return nil, notFound(err, "sale", id)
	}
	sale.CreatedAt = sale.CreatedAt.UTC()

	sale.Lines = make([]domain.SaleLine, 0, 8)
	err = s.db.SelectContext(ctx, &sale.Lines, s.db.Rebind(`
		SELECT sale_id, line_no, product_id, product_name, quantity, unit_price, vat_rate, discount_percent
		FROM sale_lines
		WHERE sale_id = ?
		ORDER BY line_no ASC
	`), id)
	if err != nil {
		return nil, err
	}

	err = s.db.GetContext(ctx, &sale.Receipt, s.db.Rebind(`
		SELECT id, sale_id, payment_method, subtotal, discount_total, total_ht, vat_amount,
			total_ttc, amount_tendered, change_due, created_at
		FROM receipts
		WHERE sale_id = ?
	`), id)
	if err != nil {
		return nil, notFound(err, "receipt for sale", id)
	}
	sale.Receipt.CreatedAt = sale.Receipt.CreatedAt.UTC()
	return &sale, nil
}

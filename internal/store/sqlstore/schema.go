package sqlstore

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const schema = `
CREATE TABLE IF NOT EXISTS suppliers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	contact TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	created_at {ts} NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category_id TEXT NOT NULL DEFAULT '',
	supplier_id TEXT REFERENCES suppliers(id),
	unit_price {money} NOT NULL,
	vat_rate {money} NOT NULL,
	stock INTEGER NOT NULL CHECK (stock >= 0),
	baseline_stock INTEGER NOT NULL CHECK (baseline_stock >= 0),
	alert_threshold INTEGER NOT NULL DEFAULT 0 CHECK (alert_threshold >= 0),
	last_purchase_price {money} NOT NULL DEFAULT '0',
	created_at {ts} NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
	id TEXT PRIMARY KEY,
	actor_id TEXT NOT NULL,
	payment_method TEXT NOT NULL CHECK (payment_method IN ('cash','mobile_money','card','cheque')),
	created_at {ts} NOT NULL
);

CREATE TABLE IF NOT EXISTS sale_lines (
	sale_id TEXT NOT NULL REFERENCES sales(id),
	line_no INTEGER NOT NULL,
	product_id TEXT NOT NULL REFERENCES products(id),
	product_name TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price {money} NOT NULL,
	vat_rate {money} NOT NULL,
	discount_percent {money} NOT NULL,
	PRIMARY KEY (sale_id, line_no)
);

CREATE TABLE IF NOT EXISTS receipts (
	id TEXT PRIMARY KEY,
	sale_id TEXT NOT NULL UNIQUE REFERENCES sales(id),
	payment_method TEXT NOT NULL,
	subtotal {money} NOT NULL,
	discount_total {money} NOT NULL,
	total_ht {money} NOT NULL,
	vat_amount {money} NOT NULL,
	total_ttc {money} NOT NULL,
	amount_tendered {money} NOT NULL,
	change_due {money} NOT NULL,
	created_at {ts} NOT NULL
);

CREATE TABLE IF NOT EXISTS purchase_orders (
	id TEXT PRIMARY KEY,
	supplier_id TEXT NOT NULL REFERENCES suppliers(id),
	status TEXT NOT NULL CHECK (status IN ('PENDING','RECEIVED')),
	created_by TEXT NOT NULL,
	created_at {ts} NOT NULL,
	received_by TEXT,
	received_at {ts}
);

CREATE TABLE IF NOT EXISTS purchase_order_lines (
	purchase_order_id TEXT NOT NULL REFERENCES purchase_orders(id),
	line_no INTEGER NOT NULL,
	product_id TEXT NOT NULL REFERENCES products(id),
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price {money} NOT NULL,
	PRIMARY KEY (purchase_order_id, line_no)
);

CREATE TABLE IF NOT EXISTS stock_movements (
	id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL REFERENCES products(id),
	movement_type TEXT NOT NULL CHECK (movement_type IN ('ENTRY','EXIT','ADJUSTMENT')),
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	actor_id TEXT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	purchase_order_id TEXT REFERENCES purchase_orders(id),
	sale_id TEXT REFERENCES sales(id),
	stock_before INTEGER NOT NULL,
	stock_after INTEGER NOT NULL,
	created_at {ts} NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL REFERENCES products(id),
	priority TEXT NOT NULL CHECK (priority IN ('CRITICAL','HIGH','MEDIUM','LOW')),
	status TEXT NOT NULL CHECK (status IN ('UNREAD','SEEN','IN_PROGRESS','ORDER_PLACED','ARCHIVED')),
	stock_snapshot INTEGER NOT NULL,
	threshold INTEGER NOT NULL,
	purchase_order_id TEXT REFERENCES purchase_orders(id),
	comment TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at {ts} NOT NULL,
	processed_at {ts}
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	actor_id TEXT NOT NULL,
	actor_role TEXT NOT NULL,
	action TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at {ts} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stock_movements_product ON stock_movements(product_id, created_at);
CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
CREATE INDEX IF NOT EXISTS idx_alerts_purchase_order ON alerts(purchase_order_id);
CREATE INDEX IF NOT EXISTS idx_purchase_orders_status ON purchase_orders(status, created_at);
CREATE INDEX IF NOT EXISTS idx_purchase_order_lines_product ON purchase_order_lines(product_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at)
`

func (s *Store) migrate(ctx context.Context) error {
	if s.dialect.name == "sqlite" {
		if _, err := s.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			return err
		}
	}

	ddl := strings.NewReplacer("{money}", s.dialect.money, "{ts}", s.dialect.timestamp).Replace(schema)
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

package sqlstore

import (
	"context"
	"time"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/xid"
)

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES (:id, :actor_id, :actor_role, :action, :entity_type, :entity_id, :detail, :created_at)
	`, entry)
	return s.classify(err)
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 200
	}

	logs := make([]domain.AuditLog, 0, limit)
	err := s.db.SelectContext(ctx, &logs, s.db.Rebind(`
		SELECT id, actor_id, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, err
	}
	return logs, nil
}

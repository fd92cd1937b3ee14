package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/recommendation"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

var systemActor = domain.Actor{ID: "system", Role: "system"}

type Options struct {
	// LedgerSales makes every sale line append an EXIT movement in the sale
	// transaction. When false a sale never touches stock.
	LedgerSales    bool
	DefaultVATRate decimal.Decimal
}

type Service struct {
	repo        store.Repository
	recommender *recommendation.Engine
	logger      *zap.Logger
	opts        Options
	now         func() time.Time
}

func New(repo store.Repository, recommender *recommendation.Engine, logger *zap.Logger, opts Options) *Service {
	if recommender == nil {
		recommender = recommendation.NewEngine(nil, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:        repo,
		recommender: recommender,
		logger:      logger,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 || limit > 500 {
		limit = 200
	}
	logs, err := s.repo.ListAuditLogs(ctx, limit)
	return logs, storageErr(err)
}

func actorOf(ctx context.Context) domain.Actor {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.ID == "" {
		return systemActor
	}
	return actor
}

// storageErr passes business errors through and marks anything else as a
// storage failure.
func storageErr(err error) error {
	if err == nil || store.IsKnown(err) {
		return err
	}
	return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor := actorOf(ctx)

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now(),
	}); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err),
		)
	}
}

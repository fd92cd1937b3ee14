package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stockpos/backend/internal/cache"
	"stockpos/backend/internal/config"
	"stockpos/backend/internal/httpapi"
	"stockpos/backend/internal/logging"
	"stockpos/backend/internal/recommendation"
	"stockpos/backend/internal/service"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/store/memory"
	"stockpos/backend/internal/store/sqlstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	vatRate, err := cfg.VATRate()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)
	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("repository unavailable", zap.Error(err))
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	cacheStore := cache.RecommendationCache(cache.NoopRecommendationCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisRecommendationCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("cache: noop")
	}

	recommender := recommendation.NewEngine(cacheStore, time.Duration(cfg.RecommendationTTLSeconds)*time.Second)
	svc := service.New(repo, recommender, logger, service.Options{
		LedgerSales:    cfg.SaleStockPolicy == config.StockPolicyLedger,
		DefaultVATRate: vatRate,
	})
	auth, err := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	app := httpapi.New(svc, auth, logger, httpapi.Options{
		AllowedOrigin:     cfg.AllowedOrigin,
		RequestsPerMinute: cfg.RateLimitPerMinute,
	}).App()

	go func() {
		logger.Info("stockpos backend listening",
			zap.String("addr", cfg.Address()),
			zap.String("sale_stock_policy", cfg.SaleStockPolicy),
		)
		if err := app.Listen(cfg.Address()); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if err := app.ShutdownWithTimeout(8 * time.Second); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

// openRepository picks Postgres when DATABASE_URL is set, SQLite when
// SQLITE_PATH is set and the seeded in-memory store otherwise. A configured
// database that cannot be reached is fatal; there is no silent fallback.
func openRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Repository, func() error, error) {
	var (
		sqlStore *sqlstore.Store
		err      error
	)
	switch {
	case cfg.DatabaseURL != "":
		sqlStore, err = sqlstore.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
	case cfg.SQLitePath != "":
		sqlStore, err = sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite %s: %w", cfg.SQLitePath, err)
		}
	default:
		logger.Info("repository: in-memory")
		return memory.NewSeeded(), nil, nil
	}

	suppliers, products := store.DemoCatalog(time.Now().UTC())
	seeded, err := sqlStore.SeedIfEmpty(ctx, suppliers, products)
	if err != nil {
		_ = sqlStore.Close()
		return nil, nil, fmt.Errorf("seed demo catalog: %w", err)
	}
	logger.Info("repository: "+sqlStore.Dialect(), zap.Bool("seeded", seeded))
	return sqlStore, sqlStore.Close, nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if !config.ValidStockPolicy(cfg.SaleStockPolicy) {
		return fmt.Errorf("SALE_STOCK_POLICY must be %q or %q", config.StockPolicyLedger, config.StockPolicyDetached)
	}
	if cfg.AllowedOrigin == "*" {
		return fmt.Errorf("ALLOWED_ORIGIN must name an origin, not *")
	}
	return nil
}

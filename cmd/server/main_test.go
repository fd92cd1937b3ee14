package main

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"stockpos/backend/internal/config"
	"stockpos/backend/internal/store/memory"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short", SaleStockPolicy: config.StockPolicyLedger})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigRejectsUnknownPolicy(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", SaleStockPolicy: "lazy"})
	if err == nil {
		t.Fatalf("expected unknown sale stock policy to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		AuthSecret:      "0123456789abcdef0123456789abcdef",
		SaleStockPolicy: config.StockPolicyDetached,
		AllowedOrigin:   "http://127.0.0.1:3000",
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestOpenRepositoryDefaultsToMemory(t *testing.T) {
	repo, closeFn, err := openRepository(context.Background(), config.Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	if closeFn != nil {
		t.Fatalf("expected no closer for the in-memory store")
	}
	if _, ok := repo.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", repo)
	}
}

func TestOpenRepositorySeedsSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockpos.db")
	repo, closeFn, err := openRepository(context.Background(), config.Config{SQLitePath: path}, zap.NewNop())
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer closeFn()

	products, err := repo.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 6 {
		t.Fatalf("expected 6 demo products, got %d", len(products))
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("TOKEN_TTL_MINUTES", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)
	assert.Equal(t, 300, cfg.RateLimitPerMinute)
	assert.Equal(t, 480, cfg.TokenTTLMinutes)
	assert.Equal(t, StockPolicyLedger, cfg.SaleStockPolicy)
	assert.Equal(t, ":8080", cfg.Address())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockpos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
sqlite_path: /var/lib/stockpos/stock.db
sale_stock_policy: detached
default_vat_rate: "5.5"
recommendation_ttl_seconds: 60
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("SALE_STOCK_POLICY", "")
	t.Setenv("DEFAULT_VAT_RATE", "")
	t.Setenv("RECOMMENDATION_TTL_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "/var/lib/stockpos/stock.db", cfg.SQLitePath)
	assert.Equal(t, StockPolicyDetached, cfg.SaleStockPolicy)
	assert.Equal(t, 60, cfg.RecommendationTTLSeconds)

	rate, err := cfg.VATRate()
	require.NoError(t, err)
	assert.Equal(t, "5.5", rate.String())
}

func TestLoadRejectsMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestVATRateBounds(t *testing.T) {
	for _, raw := range []string{"-1", "101", "abc"} {
		_, err := Config{DefaultVATRate: raw}.VATRate()
		assert.Error(t, err, raw)
	}
	assert.True(t, ValidStockPolicy("ledger"))
	assert.False(t, ValidStockPolicy("eventual"))
}

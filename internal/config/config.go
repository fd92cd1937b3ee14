package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	StockPolicyLedger   = "ledger"
	StockPolicyDetached = "detached"
)

type Config struct {
	Port                     string `yaml:"port"`
	AllowedOrigin            string `yaml:"allowed_origin"`
	DatabaseURL              string `yaml:"database_url"`
	SQLitePath               string `yaml:"sqlite_path"`
	RedisAddr                string `yaml:"redis_addr"`
	RedisPassword            string `yaml:"redis_password"`
	RedisDB                  int    `yaml:"redis_db"`
	RecommendationTTLSeconds int    `yaml:"recommendation_ttl_seconds"`
	AuthSecret               string `yaml:"auth_secret"`
	LogLevel                 string `yaml:"log_level"`
	LogFormat                string `yaml:"log_format"`
	SaleStockPolicy          string `yaml:"sale_stock_policy"`
	DefaultVATRate           string `yaml:"default_vat_rate"`
	RateLimitPerMinute       int    `yaml:"rate_limit_per_minute"`
	TokenTTLMinutes          int    `yaml:"token_ttl_minutes"`
}

func defaults() Config {
	return Config{
		Port:                     "8080",
		AllowedOrigin:            "http://127.0.0.1:3000",
		RecommendationTTLSeconds: 300,
		LogLevel:                 "info",
		LogFormat:                "json",
		SaleStockPolicy:          StockPolicyLedger,
		DefaultVATRate:           "18",
		RateLimitPerMinute:       300,
		TokenTTLMinutes:          480,
	}
}

// Load reads CONFIG_FILE (YAML) when set, then lets environment variables
// override individual keys.
func Load() (Config, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.RedisDB)))
	if err != nil {
		redisDB = cfg.RedisDB
	}
	ttl, err := strconv.Atoi(getEnv("RECOMMENDATION_TTL_SECONDS", strconv.Itoa(cfg.RecommendationTTLSeconds)))
	if err != nil || ttl < 1 {
		ttl = 300
	}
	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", strconv.Itoa(cfg.RateLimitPerMinute)))
	if err != nil || rateLimit < 1 {
		rateLimit = 300
	}
	tokenTTL, err := strconv.Atoi(getEnv("TOKEN_TTL_MINUTES", strconv.Itoa(cfg.TokenTTLMinutes)))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg = Config{
		Port:                     getEnv("PORT", cfg.Port),
		AllowedOrigin:            getEnv("ALLOWED_ORIGIN", cfg.AllowedOrigin),
		DatabaseURL:              getEnv("DATABASE_URL", cfg.DatabaseURL),
		SQLitePath:               getEnv("SQLITE_PATH", cfg.SQLitePath),
		RedisAddr:                getEnv("REDIS_ADDR", cfg.RedisAddr),
		RedisPassword:            getEnv("REDIS_PASSWORD", cfg.RedisPassword),
		RedisDB:                  redisDB,
		RecommendationTTLSeconds: ttl,
		AuthSecret:               strings.TrimSpace(getEnv("AUTH_SECRET", cfg.AuthSecret)),
		LogLevel:                 getEnv("LOG_LEVEL", cfg.LogLevel),
		LogFormat:                getEnv("LOG_FORMAT", cfg.LogFormat),
		SaleStockPolicy:          strings.ToLower(strings.TrimSpace(getEnv("SALE_STOCK_POLICY", cfg.SaleStockPolicy))),
		DefaultVATRate:           strings.TrimSpace(getEnv("DEFAULT_VAT_RATE", cfg.DefaultVATRate)),
		RateLimitPerMinute:       rateLimit,
		TokenTTLMinutes:          tokenTTL,
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// VATRate parses DefaultVATRate as a percentage in [0, 100].
func (c Config) VATRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.DefaultVATRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("DEFAULT_VAT_RATE %q: %w", c.DefaultVATRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("DEFAULT_VAT_RATE must be between 0 and 100")
	}
	return rate, nil
}

func ValidStockPolicy(policy string) bool {
	return policy == StockPolicyLedger || policy == StockPolicyDetached
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

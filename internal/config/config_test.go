package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected port: %q", cfg.HTTPPort)
	}
	if cfg.ExchangeRateURL != "https://api.exchangerate-api.com/v4/latest/USD" {
		t.Fatalf("unexpected rate url: %q", cfg.ExchangeRateURL)
	}
	if cfg.ExchangeRateTTL != time.Hour {
		t.Fatalf("unexpected rate ttl: %v", cfg.ExchangeRateTTL)
	}
	if cfg.ExchangeRateFallback != 0.85 {
		t.Fatalf("unexpected fallback: %v", cfg.ExchangeRateFallback)
	}
	if cfg.NotifyQueueSize != 64 {
		t.Fatalf("unexpected queue size: %d", cfg.NotifyQueueSize)
	}
	if cfg.RateCacheRedisEnabled {
		t.Fatal("redis rate cache should default to disabled")
	}
	if cfg.StorageBucket != "catalog-images" {
		t.Fatalf("unexpected bucket: %q", cfg.StorageBucket)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")
	t.Setenv("EXCHANGE_RATE_TTL", "30m")
	t.Setenv("EXCHANGE_RATE_FALLBACK", "0.9")
	t.Setenv("RATE_CACHE_REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ExchangeRateTTL != 30*time.Minute {
		t.Fatalf("unexpected ttl: %v", cfg.ExchangeRateTTL)
	}
	if cfg.ExchangeRateFallback != 0.9 {
		t.Fatalf("unexpected fallback: %v", cfg.ExchangeRateFallback)
	}
	if !cfg.RateCacheRedisEnabled || cfg.RedisAddr != "redis:6379" {
		t.Fatalf("redis config not applied: %+v", cfg)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")
	t.Setenv("EXCHANGE_RATE_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected duration parse error")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{OTELLogLevel: "info"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors for empty config")
	}
	for _, want := range []string{"DATABASE_URL", "EXCHANGE_RATE_TTL", "NOTIFY_QUEUE_SIZE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in error, got %v", want, err)
		}
	}
}

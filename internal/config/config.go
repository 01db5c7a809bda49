package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	StorageEndpoint      string
	StorageAccessKey     string
	StorageSecretKey     string
	StorageBucket        string
	StorageUseSSL        bool
	StoragePublicBaseURL string
	PlaceholderImageURL  string

	ExchangeRateURL      string
	ExchangeRateTTL      time.Duration
	ExchangeRateTimeout  time.Duration
	ExchangeRateFallback float64

	PriceNotifyEmail       string
	NotifyQueueSize        int
	NotifyShutdownTimeout  time.Duration
	RateCacheRedisEnabled  bool
	RateCacheRedisPrefix   string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	ReadinessProbeTimeout  time.Duration
	ServerStartGracePeriod time.Duration

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:         env,
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		StorageEndpoint:      getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:        getEnv("STORAGE_BUCKET", "catalog-images"),
		StorageUseSSL:        getEnvBool("STORAGE_USE_SSL", false),
		StoragePublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:9000"),
		PlaceholderImageURL:  getEnv("PLACEHOLDER_IMAGE_URL", "http://localhost:8080/static/img/product-placeholder.jpg"),

		ExchangeRateURL:      getEnv("EXCHANGE_RATE_URL", "https://api.exchangerate-api.com/v4/latest/USD"),
		ExchangeRateFallback: getEnvFloat("EXCHANGE_RATE_FALLBACK", 0.85),

		PriceNotifyEmail:      os.Getenv("PRICE_NOTIFY_EMAIL"),
		NotifyQueueSize:       getEnvInt("NOTIFY_QUEUE_SIZE", 64),
		RateCacheRedisEnabled: getEnvBool("RATE_CACHE_REDIS_ENABLED", false),
		RateCacheRedisPrefix:  getEnv("RATE_CACHE_REDIS_PREFIX", "rate_cache"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "priced-catalog-service"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	for _, d := range []struct {
		dst *time.Duration
		key string
		def string
	}{
		{&cfg.ExchangeRateTTL, "EXCHANGE_RATE_TTL", "1h"},
		{&cfg.ExchangeRateTimeout, "EXCHANGE_RATE_TIMEOUT", "5s"},
		{&cfg.NotifyShutdownTimeout, "NOTIFY_SHUTDOWN_TIMEOUT", "5s"},
		{&cfg.ReadinessProbeTimeout, "READINESS_PROBE_TIMEOUT", "2s"},
		{&cfg.ServerStartGracePeriod, "SERVER_START_GRACE_PERIOD", "0s"},
		{&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT", "20s"},
		{&cfg.ShutdownHTTPDrainTimeout, "SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s"},
		{&cfg.ShutdownObservabilityTimeout, "SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s"},
		{&cfg.OTELMetricsExportInterval, "OTEL_METRICS_EXPORT_INTERVAL", "10s"},
	} {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.StorageBucket == "" {
		errs = append(errs, "STORAGE_BUCKET is required")
	}
	if c.StoragePublicBaseURL == "" {
		errs = append(errs, "STORAGE_PUBLIC_BASE_URL is required")
	}
	if c.ExchangeRateURL == "" {
		errs = append(errs, "EXCHANGE_RATE_URL is required")
	}
	if c.ExchangeRateTTL <= 0 {
		errs = append(errs, "EXCHANGE_RATE_TTL must be > 0")
	}
	if c.ExchangeRateTimeout <= 0 {
		errs = append(errs, "EXCHANGE_RATE_TIMEOUT must be > 0")
	}
	if c.ExchangeRateFallback <= 0 {
		errs = append(errs, "EXCHANGE_RATE_FALLBACK must be > 0")
	}
	if c.NotifyQueueSize <= 0 {
		errs = append(errs, "NOTIFY_QUEUE_SIZE must be > 0")
	}
	if c.RateCacheRedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when RATE_CACHE_REDIS_ENABLED=true")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

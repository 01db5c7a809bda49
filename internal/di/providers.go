package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/catalogops/priced-catalog-service/internal/app"
	"github.com/catalogops/priced-catalog-service/internal/config"
	"github.com/catalogops/priced-catalog-service/internal/database"
	"github.com/catalogops/priced-catalog-service/internal/health"
	"github.com/catalogops/priced-catalog-service/internal/http/handler"
	"github.com/catalogops/priced-catalog-service/internal/http/router"
	"github.com/catalogops/priced-catalog-service/internal/observability"
	"github.com/catalogops/priced-catalog-service/internal/repository"
	"github.com/catalogops/priced-catalog-service/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewProductRepository,
)

var ServiceSet = wire.NewSet(
	provideAssetStore,
	wire.Bind(new(service.AssetStore), new(*service.MinIOAssetStore)),
	provideRateCacheStore,
	provideExchangeRateService,
	wire.Bind(new(service.RateProvider), new(*service.ExchangeRateService)),
	service.NewLogPriceChangeSender,
	wire.Bind(new(service.PriceChangeSender), new(*service.LogPriceChangeSender)),
	provideDispatcher,
	wire.Bind(new(service.PriceChangeDispatcher), new(*service.QueuedPriceChangeDispatcher)),
	provideCatalogService,
	wire.Bind(new(service.CatalogService), new(*service.CatalogServiceImpl)),
)

var HTTPSet = wire.NewSet(
	handler.NewProductHandler,
	handler.NewCatalogHandler,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func (m *MigrationRunner) Seed() error {
	if err := database.Seed(m.db); err != nil {
		return err
	}
	fmt.Println("seed complete")
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.RateCacheRedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func provideAssetStore(cfg *config.Config) (*service.MinIOAssetStore, error) {
	return service.NewMinIOAssetStore(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StoragePublicBaseURL,
		cfg.PlaceholderImageURL,
		cfg.StorageUseSSL,
	)
}

func provideRateCacheStore(cfg *config.Config, redisClient redis.UniversalClient) service.RateCacheStore {
	if cfg.RateCacheRedisEnabled && redisClient != nil {
		return service.NewRedisRateCacheStore(redisClient, cfg.RateCacheRedisPrefix)
	}
	return service.NewInMemoryRateCacheStore()
}

func provideExchangeRateService(cfg *config.Config, cache service.RateCacheStore, logger *slog.Logger) *service.ExchangeRateService {
	return service.NewExchangeRateService(
		cache,
		cfg.ExchangeRateURL,
		cfg.ExchangeRateTTL,
		cfg.ExchangeRateTimeout,
		cfg.ExchangeRateFallback,
		logger,
	)
}

func provideDispatcher(cfg *config.Config, sender service.PriceChangeSender, logger *slog.Logger) *service.QueuedPriceChangeDispatcher {
	d := service.NewQueuedPriceChangeDispatcher(sender, cfg.NotifyQueueSize, logger)
	d.Start()
	return d
}

func provideCatalogService(
	cfg *config.Config,
	db *gorm.DB,
	repo repository.ProductRepository,
	assets service.AssetStore,
	rates service.RateProvider,
	dispatcher service.PriceChangeDispatcher,
	logger *slog.Logger,
) *service.CatalogServiceImpl {
	return service.NewCatalogService(db, repo, assets, rates, dispatcher, cfg.PriceNotifyEmail, logger)
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.RateCacheRedisEnabled {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideRouterDependencies(
	productHandler *handler.ProductHandler,
	catalogHandler *handler.CatalogHandler,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		ProductHandler: productHandler,
		CatalogHandler: catalogHandler,
		Readiness:      readiness,
		EnableOTelHTTP: cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

package app

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/bundle"
	"github.com/christopherhenripage/odds-trader/internal/dedup"
	"github.com/christopherhenripage/odds-trader/internal/notify"
	"github.com/christopherhenripage/odds-trader/internal/paper"
	"github.com/christopherhenripage/odds-trader/internal/provider"
	"github.com/christopherhenripage/odds-trader/internal/scanner"
	"github.com/christopherhenripage/odds-trader/internal/storage"
	"github.com/christopherhenripage/odds-trader/pkg/cache"
	"github.com/christopherhenripage/odds-trader/pkg/config"
	"github.com/christopherhenripage/odds-trader/pkg/healthprobe"
	"github.com/christopherhenripage/odds-trader/pkg/httpserver"
	"github.com/christopherhenripage/odds-trader/pkg/stream"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthprobe.New(),
		hub:           stream.NewHub(stream.Config{Logger: logger}),
		ctx:           ctx,
		cancel:        cancel,
	}
	a.healthChecker.SetStaleAfter(3 * cfg.ScanInterval)

	oddsProvider, providerCache, err := NewProvider(cfg, logger)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("setup provider: %w", err)
	}
	a.provider = oddsProvider
	a.providerCache = providerCache

	a.dedup, a.redis, err = setupDedup(ctx, cfg, logger)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("setup dedup: %w", err)
	}

	a.storage = opts.Storage
	if a.storage == nil {
		a.storage, err = setupStorage(ctx, cfg, logger)
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("setup storage: %w", err)
		}
	}

	sports := cfg.Sports
	if len(opts.Sports) > 0 {
		sports = opts.Sports
	}

	a.scanner = scanner.New(scanner.Config{
		Provider:       oddsProvider,
		Detector:       NewDetector(cfg, logger),
		Dedup:          a.dedup,
		Buffer:         bundle.NewBuffer(bundle.Config{Window: cfg.BundleWindow, Logger: logger}),
		Storage:        a.storage,
		Notifier:       setupDispatcher(cfg, logger),
		Simulator:      NewSimulator(cfg, logger, nil),
		Publisher:      a.hub,
		Heartbeats:     a.healthChecker,
		Interval:       cfg.ScanInterval,
		Sports:         sports,
		Markets:        cfg.Markets,
		MaxPerEvent:    cfg.MaxPerEventBundle,
		StakeDefault:   cfg.StakeDefault,
		HeartbeatEvery: cfg.HeartbeatEvery,
		CleanupEvery:   cfg.CleanupEvery,
		Logger:         logger,
	})

	a.httpServer = httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: a.healthChecker,
		Bundles:       a.scanner,
		StakeDefault:  cfg.StakeDefault,
		Stream:        a.hub.ServeWS,
	})

	return a, nil
}

// NewProvider builds the odds provider client with a ristretto cache in
// front of the sports list.
func NewProvider(cfg *config.Config, logger *zap.Logger) (*provider.Client, cache.Cache, error) {
	providerCache, err := cache.NewRistrettoCache(cache.DefaultRistrettoConfig("provider", logger))
	if err != nil {
		return nil, nil, fmt.Errorf("create provider cache: %w", err)
	}

	client := provider.NewClient(provider.Config{
		BaseURL:        cfg.OddsAPIURL,
		APIKey:         cfg.OddsAPIKey,
		Regions:        cfg.OddsAPIRegions,
		MaxAttempts:    cfg.ProviderMaxAttempts,
		InitialBackoff: cfg.ProviderInitialBackoff,
		MaxBackoff:     cfg.ProviderMaxBackoff,
		RatePerSecond:  cfg.ProviderRatePerSec,
		Cache:          providerCache,
		Logger:         logger,
	})

	return client, providerCache, nil
}

// NewDetector builds the detector from the configured thresholds.
func NewDetector(cfg *config.Config, logger *zap.Logger) *arbitrage.Detector {
	return arbitrage.New(arbitrage.Config{
		MinEdge:                cfg.MinEdge,
		MinMiddleWidth:         cfg.MinMiddleWidth,
		TotalsMiddleEdgeFloor:  cfg.TotalsMiddleEdgeFloor,
		SpreadsMiddleEdgeFloor: cfg.SpreadsMiddleEdgeFloor,
		Logger:                 logger,
	})
}

// SimulationConfig returns the configured default fill model.
func SimulationConfig(cfg *config.Config) paper.SimulationConfig {
	return paper.SimulationConfig{
		LatencyMsMin:       cfg.PaperLatencyMsMin,
		LatencyMsMax:       cfg.PaperLatencyMsMax,
		SlippageBps:        cfg.PaperSlippageBps,
		MissFillProb:       cfg.PaperMissFillProb,
		MaxLegOddsWorsen:   cfg.PaperMaxLegOddsWorsen,
		FillEvenIfEdgeLost: cfg.PaperFillEvenIfEdgeLost,
	}
}

// NewSimulator builds the paper simulator. A nil rng is seeded from the runtime.
func NewSimulator(cfg *config.Config, logger *zap.Logger, rng *rand.Rand) *paper.Simulator {
	return paper.New(paper.Config{
		Simulation: SimulationConfig(cfg),
		MinEdge:    cfg.MinEdge,
		Rand:       rng,
		Logger:     logger,
	})
}

// NewPostgresStorage opens the configured Postgres database.
func NewPostgresStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage.PostgresStorage, error) {
	return storage.NewPostgresStorage(ctx, &storage.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		Database: cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		Logger:   logger,
	})
}

func setupStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := NewPostgresStorage(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupDedup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (dedup.Cache, *redis.Client, error) {
	if cfg.DedupeBackend != "redis" {
		memCache := dedup.NewMemoryCache(dedup.MemoryConfig{TTL: cfg.DedupeTTL, Logger: logger})
		logger.Info("dedup-backend-memory", zap.Duration("ttl", memCache.TTL()))
		return memCache, nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	err := rdb.Ping(ctx).Err()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
	}

	redisCache, err := dedup.NewRedisCache(dedup.RedisConfig{
		Client: rdb,
		TTL:    cfg.DedupeTTL,
		Logger: logger,
	})
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}

	logger.Info("dedup-backend-redis", zap.String("addr", cfg.RedisAddr))
	return redisCache, rdb, nil
}

func setupDispatcher(cfg *config.Config, logger *zap.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(notify.Config{
		Stake:            cfg.StakeDefault,
		TelegramBotToken: cfg.TelegramBotToken,
		RatePerSecond:    cfg.NotifyRatePerSec,
		Logger:           logger,
	})
}

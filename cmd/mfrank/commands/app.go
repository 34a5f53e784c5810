package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/wonny/mfrank/internal/contracts"
	"github.com/wonny/mfrank/internal/external/mfapi"
	"github.com/wonny/mfrank/internal/pipelineconfig"
	"github.com/wonny/mfrank/internal/recommend"
	"github.com/wonny/mfrank/internal/refresh"
	badgerstore "github.com/wonny/mfrank/internal/store/badger"
	"github.com/wonny/mfrank/internal/store/memory"
	pgstore "github.com/wonny/mfrank/internal/store/postgres"
	"github.com/wonny/mfrank/internal/universe"
	"github.com/wonny/mfrank/pkg/config"
	"github.com/wonny/mfrank/pkg/database"
	"github.com/wonny/mfrank/pkg/httputil"
	"github.com/wonny/mfrank/pkg/logger"
	"github.com/wonny/mfrank/pkg/redis"
)

// app holds the wired components shared by all commands
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB // nil unless STORE_DRIVER=postgres
	store     contracts.InstrumentStore
	redis     *redis.Client
	cache     *redis.Cache
	refresher *refresh.Refresher
	recommend *recommend.Service
	pipeline  *pipelineconfig.Config

	closers []func()
}

// loadConfig applies --config / --verbose on top of config.Load
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires config → logger → store → redis → upstream client → refresher.
// overrides apply command flags on top of the loaded config.
func newApp(ctx context.Context, overrides ...func(*config.Config)) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}

	a := &app{cfg: cfg, log: logger.New(cfg)}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.connectRedis()

	pipeline, _, err := pipelineconfig.Load(cfg.Refresh.PipelineFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}
	hash, err := pipelineconfig.Hash(pipeline)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("hash pipeline config: %w", err)
	}
	a.pipeline = pipeline

	httpClient := httputil.NewWithTimeout(a.log, cfg.MFAPI.Timeout).
		WithRetry(cfg.MFAPI.MaxRetries, 1*time.Second).
		WithLocalRate(cfg.MFAPI.RatePerSec)
	if a.redis.Enabled() && cfg.MFAPI.RatePerSec > 0 {
		httpClient = httpClient.WithRateLimiter(
			redis.NewRateLimiter(a.redis, "mfrank"),
			redis.MFAPIRateLimit(cfg.MFAPI.RatePerSec),
		)
	}
	client := mfapi.NewClient(httpClient, a.log, cfg.MFAPI.BaseURL)

	a.refresher = refresh.New(
		universe.NewLister(client, a.log),
		client,
		a.store,
		refresh.Config{
			Lookback:   pipeline.Lookback,
			Windows:    pipeline.AnalysisWindows(),
			Workers:    cfg.Refresh.Workers,
			ConfigHash: hash,
		},
		a.log,
	)
	a.closers = append(a.closers, a.refresher.Close)

	a.recommend = recommend.NewService(a.store, a.log)
	if a.cache != nil {
		a.refresher.WithCache(a.cache)
		a.recommend.WithCache(a.cache, redis.TTLMedium)
	}

	a.log.WithFields(map[string]interface{}{
		"store":       cfg.StoreDriver,
		"redis":       a.redis.Enabled(),
		"workers":     cfg.Refresh.Workers,
		"config_hash": hash,
	}).Debug("Application wired")

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.New(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, db.Close)

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.store = pgstore.New(db.Pool)

	case config.StoreDriverBadger:
		s, err := badgerstore.Open(a.cfg.Badger.Path)
		if err != nil {
			return fmt.Errorf("open badger store: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := s.Close(); err != nil {
				a.log.WithError(err).Warn("Failed to close badger store")
			}
		})
		a.store = s

	default:
		a.log.Warn("Using in-memory store; results are lost on exit")
		a.store = memory.New()
	}

	a.log.WithField("store", a.cfg.StoreDriver).Info("Store ready")
	return nil
}

// connectRedis degrades to a disabled client when Redis is unreachable
func (a *app) connectRedis() {
	client, err := redis.New(a.cfg)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, caching disabled")
		client = redis.Disabled()
	}
	a.redis = client
	a.closers = append(a.closers, func() { _ = client.Close() })

	if client.Enabled() {
		a.cache = redis.NewCache(client, "mfrank")
	}
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

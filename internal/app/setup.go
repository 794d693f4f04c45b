package app

import (
	"context"
	"fmt"

	"github.com/mselser95/claimpool/internal/feed"
	"github.com/mselser95/claimpool/internal/reputation"
	"github.com/mselser95/claimpool/internal/resolution"
	"github.com/mselser95/claimpool/internal/settlement"
	"github.com/mselser95/claimpool/internal/storage"
	"github.com/mselser95/claimpool/pkg/cache"
	"github.com/mselser95/claimpool/pkg/config"
	"github.com/mselser95/claimpool/pkg/healthprobe"
	"github.com/mselser95/claimpool/pkg/httpserver"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	backing, err := setupCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}
	reputationCache := cache.NewReputationCache(backing, cfg.ReputationCacheTTL)

	store, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		backing.Close()
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}
	healthChecker.Register("storage", store.Check)

	acc := reputation.New(cfg.StakeUnitsPerToken)
	view := settlement.NewView(acc)

	processor := resolution.New(resolution.Config{
		Accumulator: acc,
		Invalidator: reputationCache,
		Logger:      logger,
	}, store)

	subscriber := setupFeed(cfg, logger)
	if subscriber != nil {
		healthChecker.Register("ledger-feed", subscriber.Check)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		View:          view,
		Records:       store,
		Cache:         reputationCache,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		storage:       store,
		cache:         backing,
		feed:          subscriber,
		processor:     processor,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(cfg *config.Config, logger *zap.Logger) (*cache.RistrettoCache, error) {
	return cache.NewRistrettoCache(cache.DefaultRistrettoConfig(cfg.ReputationCacheItems, logger))
}

func setupStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(ctx, &storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupFeed(cfg *config.Config, logger *zap.Logger) *feed.Subscriber {
	if !cfg.FeedEnabled() {
		logger.Info("ledger-feed-disabled",
			zap.String("note", "LEDGER_FEED_URL not set, serving API only"))
		return nil
	}

	return feed.New(feed.Config{
		URL:                   cfg.LedgerFeedURL,
		Channel:               cfg.LedgerFeedChannel,
		DialTimeout:           cfg.FeedDialTimeout,
		PongTimeout:           cfg.FeedPongTimeout,
		PingInterval:          cfg.FeedPingInterval,
		ReconnectInitialDelay: cfg.FeedReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.FeedReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.FeedReconnectBackoffMult,
		MessageBufferSize:     cfg.FeedMessageBufferSize,
		Logger:                logger,
	})
}

package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/internal/engine"
	"github.com/rexeee/mai-protocol/internal/fillstore"
	"github.com/rexeee/mai-protocol/internal/market"
	"github.com/rexeee/mai-protocol/internal/order"
	"github.com/rexeee/mai-protocol/internal/settlement"
	"github.com/rexeee/mai-protocol/internal/storage"
	"github.com/rexeee/mai-protocol/pkg/cache"
	"github.com/rexeee/mai-protocol/pkg/config"
	"github.com/rexeee/mai-protocol/pkg/healthprobe"
	"github.com/rexeee/mai-protocol/pkg/httpserver"
	"github.com/rexeee/mai-protocol/pkg/websocket"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New("mai-protocol")

	marketCache, err := setupCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	markets, err := setupMarketSource(cfg, logger, marketCache)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup market source: %w", err)
	}

	fills, err := setupFillStore(cfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup fill store: %w", err)
	}

	executor, err := setupExecutor(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup executor: %w", err)
	}

	hasher := order.NewHasher(
		cfg.ExchangeName,
		cfg.ExchangeVersion,
		big.NewInt(cfg.ChainID),
		common.HexToAddress(cfg.ExchangeAddress),
	)

	eng, err := engine.New(&engine.Config{
		Hasher:   hasher,
		Store:    fills,
		Markets:  markets,
		Executor: executor,
		Relayer:  common.HexToAddress(cfg.RelayerAddress),
		Logger:   logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	eventStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	hub := websocket.NewHub(logger)

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Exchange:      eng,
		Events: &settlementSink{
			storage: eventStorage,
			hub:     hub,
			logger:  logger,
		},
		Hub: hub,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		engine:        eng,
		fills:         fills,
		storage:       eventStorage,
		marketCache:   marketCache,
		hub:           hub,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: cfg.MarketCacheSize * 10,
		MaxCost:     cfg.MarketCacheSize,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupMarketSource(cfg *config.Config, logger *zap.Logger, marketCache cache.Cache) (market.Source, error) {
	chainSource, err := market.NewChainSource(cfg.RPCURL, logger)
	if err != nil {
		return nil, fmt.Errorf("create chain source: %w", err)
	}
	return market.NewCachedSource(chainSource, marketCache, cfg.MarketCacheTTL), nil
}

func setupFillStore(cfg *config.Config) (fillstore.Store, error) {
	if cfg.FillStoreMode == "pebble" {
		store, err := fillstore.NewPebbleStore(cfg.PebblePath)
		if err != nil {
			return nil, fmt.Errorf("open pebble store: %w", err)
		}
		return store, nil
	}
	return fillstore.NewMemoryStore(), nil
}

func setupExecutor(cfg *config.Config, logger *zap.Logger) (*settlement.Executor, error) {
	operator := common.HexToAddress(cfg.ExchangeAddress)

	if cfg.SettlementMode == "chain" {
		backend, err := settlement.NewChainBackend(
			cfg.RPCURL,
			common.HexToAddress(cfg.ProxyAddress),
			big.NewInt(cfg.ChainID),
			cfg.RelayerPrivateKey,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("create chain backend: %w", err)
		}
		return settlement.NewExecutor(backend, operator, logger), nil
	}

	// Paper mode keeps balances in an in-memory ledger. The operator is
	// whitelisted up front, mirroring the proxy deployment step.
	ledger := settlement.NewLedger()
	ledger.Whitelist(operator)
	return settlement.NewExecutor(ledger, operator, logger), nil
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/swagly/proof-validator/internal/adapter"
	"github.com/swagly/proof-validator/internal/config"
	"github.com/swagly/proof-validator/internal/logger"
	"github.com/swagly/proof-validator/internal/messaging"
	"github.com/swagly/proof-validator/internal/providers/jetstream"
	"github.com/swagly/proof-validator/internal/reward"
	"github.com/swagly/proof-validator/internal/store"
	"github.com/swagly/proof-validator/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Service:         "reward-sweeper",
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting reward sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewPGStore(db)

	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()

	issuer, err := reward.NewHTTPIssuer(
		cfg.TokenIssuer.URL,
		cfg.TokenIssuer.Secret,
		adapter.NewHTTPClient(cfg.TokenIssuer.Timeout),
		jsonAdapter,
		adapter.NewJCS(),
		clock,
	)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create token issuer", zap.Error(err))
	}

	publisher := messaging.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter, clock)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create proof event publisher", zap.Error(err))
		}
	}
	defer publisher.Close()

	var rewardSweeper sweeper.Sweeper = sweeper.NewRewardSweeper(sweeper.RewardSweeperConfig{
		BatchSize:      cfg.RewardSweeper.BatchSize,
		WorkerPoolSize: cfg.RewardSweeper.Worker.WorkerPoolSize,
		GracePeriod:    cfg.RewardSweeper.GracePeriod,
		Interval:       cfg.RewardSweeper.Interval,
		MaxElapsed:     cfg.RewardSweeper.MaxElapsed,
	}, dataStore, issuer, publisher, clock)

	logger.InfoCtx(ctx, "Initialized reward sweeper",
		zap.Int("batch_size", cfg.RewardSweeper.BatchSize),
		zap.Int("worker_pool_size", cfg.RewardSweeper.Worker.WorkerPoolSize),
		zap.Duration("interval", cfg.RewardSweeper.Interval),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := rewardSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// issuances in flight get time to record their hash
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := rewardSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	cancel()

	logger.InfoCtx(shutdownCtx, "Reward sweeper stopped", zap.String("name", rewardSweeper.Name()))
}

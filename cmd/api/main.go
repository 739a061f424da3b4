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
	"github.com/swagly/proof-validator/internal/api/middleware"
	"github.com/swagly/proof-validator/internal/api/server"
	"github.com/swagly/proof-validator/internal/cache"
	"github.com/swagly/proof-validator/internal/config"
	"github.com/swagly/proof-validator/internal/lock"
	"github.com/swagly/proof-validator/internal/logger"
	"github.com/swagly/proof-validator/internal/messaging"
	"github.com/swagly/proof-validator/internal/onchain"
	"github.com/swagly/proof-validator/internal/proof"
	"github.com/swagly/proof-validator/internal/providers/explorer"
	"github.com/swagly/proof-validator/internal/providers/jetstream"
	"github.com/swagly/proof-validator/internal/ratelimit"
	"github.com/swagly/proof-validator/internal/referral"
	"github.com/swagly/proof-validator/internal/reward"
	"github.com/swagly/proof-validator/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Service:         "proof-validator-api",
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Swagly proof validator API")

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

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	jcsAdapter := adapter.NewJCS()
	clock := adapter.NewClock()

	// Redis backs the submission lock, the explorer rate limiter and the chain data cache.
	// Without it every replica falls back to process-local behavior.
	var redisClient adapter.RedisClient
	locker := lock.NewNoopLocker()
	var chainCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisClient = adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		locker = lock.NewRedisLocker(redisClient.Universal(), cfg.Lock.TTL, cfg.Lock.KeyPrefix)
		chainCache = cache.NewRedisCache(redisClient.Universal(), true)
		logger.InfoCtx(ctx, "Redis configured", zap.String("addr", cfg.Redis.Addr))
	} else {
		chainCache = cache.NewRedisCache(nil, true)
		logger.WarnCtx(ctx, "Redis not configured, submission lock disabled and rate limiting is per process")
	}

	limiter, err := ratelimit.NewLimiter(cfg.RateLimiter, redisClient, clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create rate limiter", zap.Error(err))
	}
	defer func() {
		if err := limiter.Close(); err != nil {
			logger.Warn("Failed to close rate limiter", zap.Error(err))
		}
	}()

	// Block explorer
	explorerClient := explorer.NewCachedClient(
		explorer.NewClient(
			adapter.NewHTTPClient(cfg.Explorer.Timeout),
			limiter,
			jsonAdapter,
			cfg.Explorer.BaseURL,
			cfg.Explorer.APIKey,
			cfg.Explorer.ChainID,
		),
		chainCache,
		cfg.Explorer.ChainID,
		cfg.Explorer.CacheTTL,
	)
	if cfg.Explorer.APIKey == "" {
		logger.WarnCtx(ctx, "Block explorer API key not configured, transaction validation will fail")
	}

	// Token issuer
	issuer, err := reward.NewHTTPIssuer(
		cfg.TokenIssuer.URL,
		cfg.TokenIssuer.Secret,
		adapter.NewHTTPClient(cfg.TokenIssuer.Timeout),
		jsonAdapter,
		jcsAdapter,
		clock,
	)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create token issuer", zap.Error(err))
	}

	// Proof events
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
		logger.InfoCtx(ctx, "Publishing proof events", zap.String("stream", cfg.NATS.StreamName))
	}
	defer publisher.Close()

	service := proof.NewService(
		dataStore,
		proof.NewTransactionValidator(explorerClient, onchain.NewEvaluator(cfg.TokenDecimals)),
		proof.NewReferralValidator(referral.NewValidator(cfg.Referral.AllowedHosts)),
		issuer,
		publisher,
		locker,
		clock,
	)

	serverConfig := server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}
	srv := server.New(serverConfig, service)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
	}
	cancel()

	// in-flight submissions may be waiting on the explorer or the issuer
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.Info("API server stopped")
}

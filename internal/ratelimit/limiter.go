// Package ratelimit throttles outbound calls to third-party providers.
//
// Tokens come from a Redis-backed GCRA limiter shared by every API replica.
// When Redis is unreachable the limiter can fall back to an in-process token
// bucket running at a fraction of the configured rate.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/swagly/proof-validator/internal/adapter"
	"github.com/swagly/proof-validator/internal/config"
	"github.com/swagly/proof-validator/internal/logger"
)

const healthCheckInterval = 10 * time.Second

var (
	// ErrQueueTimeout is returned when no token became available within the provider's max queue time
	ErrQueueTimeout = errors.New("timed out waiting for rate limit token")
	// ErrUnknownProvider is returned for a provider with no configured limit
	ErrUnknownProvider = errors.New("provider not configured")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("rate limiter is closed")
)

// Limiter defines the interface for outbound rate limiting
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit.go -package=mocks -mock_names=Limiter=MockRateLimiter
type Limiter interface {
	// Wait blocks until a token for provider is available, the context ends,
	// or the provider's max queue time elapses
	Wait(ctx context.Context, provider string) error

	// Close stops background health checks and closes the Redis connection
	Close() error
}

// Do runs fn after acquiring a token for provider. A nil limiter runs fn directly.
func Do[T any](ctx context.Context, l Limiter, provider string, fn func(ctx context.Context) (T, error)) (T, error) {
	if l == nil {
		return fn(ctx)
	}

	var zero T
	if err := l.Wait(ctx, provider); err != nil {
		return zero, err
	}
	return fn(ctx)
}

// providerLimiter holds the rate limiting state for a single provider
type providerLimiter struct {
	name             string
	config           config.RateLimitConfig
	localLimiter     *rate.Limiter
	preFilterLimiter *rate.Limiter
}

type limiter struct {
	config         config.RateLimiterConfig
	providers      map[string]*providerLimiter
	redis          adapter.RedisClient
	distributed    adapter.RedisRateLimiter
	clock          adapter.Clock
	redisAvailable atomic.Bool
	closed         atomic.Bool
	closeOnce      sync.Once
	stop           chan struct{}
}

// NewLimiter creates a limiter for the configured providers.
// rc may be nil, in which case only the local limiter is used.
func NewLimiter(cfg config.RateLimiterConfig, rc adapter.RedisClient, clock adapter.Clock) (Limiter, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	l := &limiter{
		config:    cfg,
		providers: make(map[string]*providerLimiter, len(cfg.Providers)),
		redis:     rc,
		clock:     clock,
		stop:      make(chan struct{}),
	}

	if rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rc.Ping(ctx).Err()
		cancel()

		if err != nil {
			if !cfg.EnableLocalFallback {
				return nil, fmt.Errorf("redis unavailable and fallback disabled: %w", err)
			}
			logger.Warn("Redis unavailable, will use local rate limit fallback", zap.Error(err))
		}

		l.distributed = rc.NewRateLimiter()
		l.redisAvailable.Store(err == nil)
	} else if !cfg.EnableLocalFallback {
		return nil, errors.New("redis client is required when local fallback is disabled")
	}

	for name, providerConfig := range cfg.Providers {
		// Local fallback runs at a reduced rate since every replica has its own bucket
		localRate := max(float64(providerConfig.RequestsPerSecond)*cfg.LocalFallbackMultiplier, 1.0)

		l.providers[name] = &providerLimiter{
			name:             name,
			config:           providerConfig,
			localLimiter:     rate.NewLimiter(rate.Limit(localRate), providerConfig.Burst),
			preFilterLimiter: rate.NewLimiter(rate.Limit(providerConfig.RequestsPerSecond), providerConfig.Burst),
		}
	}

	if rc != nil {
		go l.monitorRedisHealth()
	}

	logger.Info("Rate limiter initialized",
		zap.Int("providers", len(cfg.Providers)),
		zap.Bool("redis", rc != nil),
		zap.Bool("local_fallback", cfg.EnableLocalFallback),
	)

	return l, nil
}

// Wait blocks until a token is available for provider
func (l *limiter) Wait(ctx context.Context, provider string) error {
	if l.closed.Load() {
		return ErrClosed
	}

	pl, ok := l.providers[provider]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	queueCtx, cancel := context.WithTimeout(ctx, pl.config.MaxQueueTime)
	defer cancel()

	if err := l.acquireToken(queueCtx, pl); err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrQueueTimeout, provider)
		}
		return err
	}
	return nil
}

// acquireToken acquires a rate limit token, blocking until one is available
func (l *limiter) acquireToken(ctx context.Context, pl *providerLimiter) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if l.redisAvailable.Load() {
			allowed, retryAfter, err := l.tryDistributedLimit(ctx, pl)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}

				l.redisAvailable.Store(false)
				if !l.config.EnableLocalFallback {
					return fmt.Errorf("redis rate limiter unavailable: %w", err)
				}

				logger.Warn("Redis rate limiter error, falling back to local",
					zap.String("provider", pl.name),
					zap.Error(err),
				)
			case allowed:
				return nil
			default:
				// Spread retries out to 50-150% of retryAfter
				jitter := time.Duration(float64(retryAfter) * (0.5 + rand.Float64())) //nolint:gosec,G404
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-l.clock.After(jitter):
					continue
				}
			}
		}

		if !l.redisAvailable.Load() && l.config.EnableLocalFallback {
			return pl.localLimiter.Wait(ctx)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(100 * time.Millisecond):
		}
	}
}

// tryDistributedLimit attempts to acquire a token from the distributed limiter
// Returns: (allowed bool, retryAfter duration, error)
func (l *limiter) tryDistributedLimit(ctx context.Context, pl *providerLimiter) (bool, time.Duration, error) {
	if l.distributed == nil {
		return false, 0, errors.New("distributed limiter not available")
	}

	// Pre-filter requests to reduce Redis pressure
	if err := pl.preFilterLimiter.Wait(ctx); err != nil {
		return false, 0, err
	}

	res, err := l.distributed.Allow(ctx, l.config.RedisKeyPrefix+pl.name, redis_rate.Limit{
		Rate:   pl.config.RequestsPerSecond,
		Burst:  pl.config.Burst,
		Period: time.Second,
	})
	if err != nil {
		return false, 0, err
	}

	if res.Allowed == 0 {
		logger.Debug("Rate limit token unavailable, waiting",
			zap.String("provider", pl.name),
			zap.Duration("retry_after", res.RetryAfter),
		)
		retryAfter := res.RetryAfter
		if retryAfter <= 0 {
			retryAfter = 50 * time.Millisecond
		}
		return false, retryAfter, nil
	}

	return true, 0, nil
}

// monitorRedisHealth periodically checks Redis health and updates availability status
func (l *limiter) monitorRedisHealth() {
	for {
		select {
		case <-l.stop:
			return
		case <-l.clock.After(healthCheckInterval):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := l.redis.Ping(ctx).Err()
		cancel()

		available := err == nil
		if was := l.redisAvailable.Swap(available); !was && available {
			logger.Info("Redis connection restored")
		}
	}
}

// Close stops the health monitor and closes the Redis connection
func (l *limiter) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.stop)

		if l.redis != nil {
			if closeErr := l.redis.Close(); closeErr != nil {
				logger.Warn("Error closing Redis connection", zap.Error(closeErr))
				err = closeErr
			}
		}
	})
	return err
}

// validateConfig validates and sets defaults for the configuration
func validateConfig(cfg *config.RateLimiterConfig) error {
	if len(cfg.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	providers := make(map[string]config.RateLimitConfig, len(cfg.Providers))
	for name, provider := range cfg.Providers {
		if provider.RequestsPerSecond <= 0 {
			return fmt.Errorf("provider %s: requests_per_second must be positive", name)
		}
		if provider.Burst <= 0 {
			provider.Burst = provider.RequestsPerSecond
		}
		if provider.MaxQueueTime <= 0 {
			provider.MaxQueueTime = 30 * time.Second
		}
		providers[name] = provider
	}
	cfg.Providers = providers

	if cfg.RedisKeyPrefix == "" {
		cfg.RedisKeyPrefix = "swagly:proof:limiter:"
	}
	if cfg.LocalFallbackMultiplier <= 0 {
		cfg.LocalFallbackMultiplier = 0.5
	}

	return nil
}

package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/adapter"
	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/logger"
	"github.com/swagly/proof-validator/internal/messaging"
	"github.com/swagly/proof-validator/internal/reward"
	"github.com/swagly/proof-validator/internal/store"
	"github.com/swagly/proof-validator/internal/store/schema"
)

// RewardSweeperConfig holds configuration for the reward reconciliation sweeper
type RewardSweeperConfig struct {
	BatchSize      int           // Proofs to reconcile per cycle
	WorkerPoolSize int           // Concurrent issuances
	GracePeriod    time.Duration // Approved proofs younger than this are left to the request that approved them
	Interval       time.Duration // Sleep between cycles
	MaxElapsed     time.Duration // Retry budget for a single issuance
	RetryInterval  time.Duration // First backoff interval
}

// SweepStats summarizes a single sweep cycle
type SweepStats struct {
	Found    int
	Rewarded int
	Skipped  int
	Failed   int
}

// RewardSweeper pays out approved proofs whose reward issuance failed or never ran.
// The proof id is the issuance idempotency key, so a retry after a lost response never pays twice.
type RewardSweeper struct {
	config    RewardSweeperConfig
	store     store.Store
	issuer    reward.Issuer
	publisher messaging.Publisher
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewRewardSweeper creates a new reward sweeper
func NewRewardSweeper(
	config RewardSweeperConfig,
	st store.Store,
	issuer reward.Issuer,
	publisher messaging.Publisher,
	clock adapter.Clock,
) *RewardSweeper {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 1
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = time.Second
	}

	return &RewardSweeper{
		config:    config,
		store:     st,
		issuer:    issuer,
		publisher: publisher,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *RewardSweeper) Name() string {
	return "reward-sweeper"
}

// Start runs sweep cycles until the context is canceled or Stop is called
func (s *RewardSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting reward sweeper",
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
		zap.Duration("grace_period", s.config.GracePeriod),
		zap.Duration("interval", s.config.Interval),
	)

	for {
		if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorCtx(ctx, err)
		}

		if !s.sleep(ctx, s.config.Interval) {
			logger.InfoCtx(ctx, "Reward sweeper stopping")
			return nil
		}
	}
}

// Stop gracefully stops the sweeper, waiting for in-flight issuances
func (s *RewardSweeper) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping reward sweeper")
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Reward sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Reward sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// Sweep runs a single reconciliation cycle
func (s *RewardSweeper) Sweep(ctx context.Context) (SweepStats, error) {
	start := s.clock.Now()
	cutoff := start.Add(-s.config.GracePeriod)

	proofs, err := s.store.ListUnrewardedProofs(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		return SweepStats{}, fmt.Errorf("failed to list unrewarded proofs: %w", err)
	}
	if len(proofs) == 0 {
		logger.DebugCtx(ctx, "No unrewarded proofs")
		return SweepStats{}, nil
	}

	logger.InfoCtx(ctx, "Found unrewarded proofs", zap.Int("count", len(proofs)))

	var rewarded, skipped, failed atomic.Int32
	pool := pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(len(proofs)),
		pond.WithContext(ctx),
	)
	for _, p := range proofs {
		pool.Submit(func() {
			err := s.reconcile(ctx, p)
			switch {
			case err == nil:
				rewarded.Add(1)
				return
			case errors.Is(err, errSkipped):
				skipped.Add(1)
			default:
				failed.Add(1)
				logger.ErrorCtx(ctx, fmt.Errorf("reward reconciliation failed: %w", err),
					zap.String("proof_id", p.ID),
					zap.String("user_id", p.UserID),
					zap.Int("tokens_awarded", p.TokensAwarded),
				)
			}

			// unpaid proofs rotate to the back so a full batch of them cannot starve the rest
			if err := s.store.RecordRewardAttempt(ctx, p.ID, s.clock.Now()); err != nil {
				logger.WarnCtx(ctx, "Failed to record reward attempt", zap.String("proof_id", p.ID), zap.Error(err))
			}
		})
	}
	pool.StopAndWait()

	stats := SweepStats{
		Found:    len(proofs),
		Rewarded: int(rewarded.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
	}
	logger.InfoCtx(ctx, "Reward sweep completed",
		zap.Duration("duration", s.clock.Since(start)),
		zap.Int("found", stats.Found),
		zap.Int("rewarded", stats.Rewarded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, ctx.Err()
}

var errSkipped = errors.New("skipped")

// reconcile issues the reward of one proof and records the hash
func (s *RewardSweeper) reconcile(ctx context.Context, p *schema.ActivityProof) error {
	user, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || user.WalletAddress == "" {
		logger.WarnCtx(ctx, "Reward receiver has no wallet address, skipping",
			zap.String("proof_id", p.ID),
			zap.String("user_id", p.UserID),
		)
		return errSkipped
	}

	txHash, err := s.issueWithRetry(ctx, reward.IssueRequest{
		ReceiverAddress: user.WalletAddress,
		Quantity:        p.TokensAwarded,
		IdempotencyKey:  p.ID,
	})
	if err != nil {
		return err
	}

	recorded, err := s.store.SetRewardTxHash(ctx, p.ID, txHash)
	if err != nil {
		return fmt.Errorf("failed to record reward tx hash %s: %w", txHash, err)
	}
	if !recorded {
		logger.WarnCtx(ctx, "Reward tx hash already recorded",
			zap.String("proof_id", p.ID),
			zap.String("reward_tx_hash", txHash),
		)
		return nil
	}

	logger.InfoCtx(ctx, "Reward issued by sweeper",
		zap.String("proof_id", p.ID),
		zap.String("reward_tx_hash", txHash),
	)

	event := &domain.ProofEvent{
		ProofID:       p.ID,
		UserID:        p.UserID,
		ActivityID:    p.ActivityID,
		PassportID:    p.PassportID,
		ProofType:     p.ProofType,
		Status:        p.Status,
		Reference:     p.Reference(),
		TokensAwarded: p.TokensAwarded,
		RewardTxHash:  &txHash,
		Timestamp:     s.clock.Now(),
	}
	if p.ValidatedBy != nil {
		event.ValidatedBy = *p.ValidatedBy
	}
	if err := s.publisher.PublishProofEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish proof event", zap.String("proof_id", p.ID), zap.Error(err))
	}
	return nil
}

// issueWithRetry calls the issuer with exponential backoff bounded by MaxElapsed.
// Invalid requests are not retried.
func (s *RewardSweeper) issueWithRetry(ctx context.Context, req reward.IssueRequest) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.RetryInterval
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = s.config.MaxElapsed
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	var txHash string
	operation := func() error {
		hash, err := s.issuer.Issue(ctx, req)
		if err != nil {
			if errors.Is(err, reward.ErrInvalidRequest) {
				return backoff.Permanent(err)
			}
			return err
		}
		txHash = hash
		return nil
	}

	var attemptCount int
	notifyOnError := func(err error, next time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Reward issuance failed, retrying",
			zap.String("proof_id", req.IdempotencyKey),
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", next),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError); err != nil {
		return "", fmt.Errorf("failed after %d attempts: %w", attemptCount+1, err)
	}
	return txHash, nil
}

// sleep waits for duration; false when interrupted by cancellation or Stop
func (s *RewardSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}

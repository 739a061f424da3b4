// Package lock serializes concurrent submissions for the same proof tuple across API replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/logger"
)

// ReleaseFunc releases an acquired lock
type ReleaseFunc func()

// Locker acquires short-lived exclusive locks
//
//go:generate mockgen -source=lock.go -destination=../mocks/lock.go -package=mocks -mock_names=Locker=MockLocker
type Locker interface {
	// Acquire takes the lock for key without waiting. It returns domain.ErrSubmissionInProgress
	// when another holder owns it.
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// SubmissionKey builds the lock key for a (user, activity, passport) submission
func SubmissionKey(userID, activityID, passportID string) string {
	return fmt.Sprintf("submission:%s:%s:%s", userID, activityID, passportID)
}

type redisLocker struct {
	rs     *redsync.Redsync
	ttl    time.Duration
	prefix string
}

// NewRedisLocker creates a redsync backed locker. Locks expire after ttl if never released.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, prefix string) Locker {
	return &redisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		ttl:    ttl,
		prefix: prefix,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	mutex := l.rs.NewMutex(l.prefix+key,
		redsync.WithExpiry(l.ttl),
		redsync.WithTries(1),
	)

	if err := mutex.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
			return nil, domain.ErrSubmissionInProgress
		}
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	return func() {
		// release must not depend on the request context, which may already be canceled
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

type noopLocker struct{}

// NewNoopLocker creates a locker that always succeeds, used when Redis is not configured
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) Acquire(context.Context, string) (ReleaseFunc, error) {
	return func() {}, nil
}

package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
)

const (
	defaultRetryInterval = 25 * time.Millisecond
	defaultWait          = 5 * time.Second
)

// RedisLocker obtains locks through bsm/redislock so every API replica sees the same lock.
type RedisLocker struct {
	client    *redislock.Client
	namespace string
	interval  time.Duration
	retries   int
}

// NewRedisLocker builds a locker that retries for up to wait before giving up.
func NewRedisLocker(rdb redislock.RedisClient, namespace string, wait time.Duration) (*RedisLocker, error) {
	if rdb == nil {
		return nil, errors.New("redis client required for locker")
	}
	if wait <= 0 {
		wait = defaultWait
	}
	retries := int(wait / defaultRetryInterval)
	if retries < 1 {
		retries = 1
	}
	return &RedisLocker{
		client:    redislock.New(rdb),
		namespace: namespace,
		interval:  defaultRetryInterval,
		retries:   retries,
	}, nil
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	fullKey := key
	if l.namespace != "" {
		fullKey = l.namespace + ":" + key
	}
	held, err := l.client.Obtain(ctx, fullKey, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.interval), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, fullKey)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", fullKey, err)
	}
	return &redisLease{lock: held}, nil
}

type redisLease struct {
	lock *redislock.Lock
}

func (r *redisLease) Release(ctx context.Context) error {
	if r.lock == nil {
		return nil
	}
	err := r.lock.Release(ctx)
	r.lock = nil
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

// Package lock provides named mutual exclusion across API replicas (Redis) or
// within one process (local), used to serialize document numbering.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotObtained is returned when the lock stayed held by someone else for the whole wait.
var ErrNotObtained = errors.New("lock not obtained")

// Locker hands out named locks.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock; Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}

// With runs fn while holding key and releases the lock afterwards, even when fn fails.
func With(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if locker == nil {
		return fn(ctx)
	}
	lease, err := locker.Obtain(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.WithoutCancel(ctx))
	}()
	return fn(ctx)
}

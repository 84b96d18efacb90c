package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := With(ctx, locker, "numbering:PO", time.Second, func(context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	first, err := locker.Obtain(ctx, "numbering:PO", time.Second)
	require.NoError(t, err)
	second, err := locker.Obtain(ctx, "numbering:GRN", time.Second)
	require.NoError(t, err)

	require.NoError(t, first.Release(ctx))
	require.NoError(t, second.Release(ctx))
}

func TestLocalLockerTimesOut(t *testing.T) {
	locker := NewLocalLocker()
	held, err := locker.Obtain(context.Background(), "numbering:INV", time.Second)
	require.NoError(t, err)
	defer held.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Obtain(ctx, "numbering:INV", time.Second)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotObtained))
}

func TestLeaseReleaseTwice(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()
	held, err := locker.Obtain(ctx, "k", time.Second)
	require.NoError(t, err)
	require.NoError(t, held.Release(ctx))
	require.NoError(t, held.Release(ctx))

	again, err := locker.Obtain(ctx, "k", time.Second)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestWithReleasesOnError(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()
	boom := errors.New("boom")

	err := With(ctx, locker, "k", time.Second, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	err = With(ctx, locker, "k", time.Second, func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestWithNilLockerRunsDirectly(t *testing.T) {
	called := false
	err := With(context.Background(), nil, "k", time.Second, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestNewRedisLockerRequiresClient(t *testing.T) {
	_, err := NewRedisLocker(nil, "erp:lock", time.Second)
	require.Error(t, err)
}

package redisclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLockerRunsAndReleases(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), Options{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer rdb.Close()

	locker := NewRedisLocker(rdb, 5*time.Second)
	id := uuid.New()

	ran := false
	err = locker.WithAppointmentLock(context.Background(), id, func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists(lockKey(id)), "lock key should exist while held")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists(lockKey(id)), "lock key should be released")
}

func TestRedisLockerRejectsWhenHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), Options{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer rdb.Close()

	id := uuid.New()
	require.NoError(t, mr.Set(lockKey(id), "someone-else"))

	locker := NewRedisLocker(rdb, 5*time.Second)
	err = locker.WithAppointmentLock(context.Background(), id, func(ctx context.Context) error {
		t.Fatal("critical section must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	got, err := mr.Get(lockKey(id))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got, "foreign lock must not be released")
}

func TestRedisLockerPropagatesError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), Options{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer rdb.Close()

	boom := errors.New("boom")
	err = NewRedisLocker(rdb, time.Second).WithAppointmentLock(context.Background(), uuid.New(), func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestLocalLockerSerialises(t *testing.T) {
	locker := NewLocalLocker()
	id := uuid.New()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locker.WithAppointmentLock(context.Background(), id, func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLocalLockerDropsIdleEntries(t *testing.T) {
	locker := NewLocalLocker().(*localLocker)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_ = locker.WithAppointmentLock(context.Background(), id, func(context.Context) error {
				time.Sleep(time.Millisecond)
				return nil
			})
		}(ids[i%len(ids)])
	}
	wg.Wait()

	err := locker.WithAppointmentLock(context.Background(), ids[0], func(context.Context) error {
		locker.mu.Lock()
		defer locker.mu.Unlock()
		assert.Len(t, locker.locks, 1)
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Empty(t, locker.locks)
}

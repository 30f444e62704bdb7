package redisclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("appointment lock not acquired")
)

// Locker is used by the appointment service to guard status changes per
// appointment.
type Locker interface {
	WithAppointmentLock(ctx context.Context, appointmentID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker that uses a per appointment Redis key, so
// replicas sharing one database serialise on the same record.
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisLocker{
		client: client,
		ttl:    ttl,
	}
}

func lockKey(id uuid.UUID) string {
	return fmt.Sprintf("lock:appointment:%s", id.String())
}

func (l *redisLocker) WithAppointmentLock(ctx context.Context, appointmentID uuid.UUID, fn func(ctx context.Context) error) error {
	key := lockKey(appointmentID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire appointment lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release appointment lock: %w", err)
	}
	return nil
}

type localLock struct {
	mu   sync.Mutex
	refs int // callers holding or waiting on mu
}

type localLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*localLock
}

// NewLocalLocker serialises on an in-process mutex per appointment. It is
// used when the stores live in memory and no Redis is configured. Entries
// are dropped once no caller holds or waits on them.
func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[uuid.UUID]*localLock)}
}

func (l *localLocker) WithAppointmentLock(ctx context.Context, appointmentID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	lk, ok := l.locks[appointmentID]
	if !ok {
		lk = &localLock{}
		l.locks[appointmentID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	defer l.release(appointmentID, lk)
	return fn(ctx)
}

func (l *localLocker) release(appointmentID uuid.UUID, lk *localLock) {
	lk.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, appointmentID)
	}
}

package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labledger/labledger-backend/pkg/instance"
)

// The lock outlives one reconcile pass but expires well before the next
// hourly cycle if a worker dies while holding it.
const defaultLockTTL = 30 * time.Minute

// Lock coordinates exclusive cron runs.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// redisStore defines the operations used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
}

// RedisLock implements Lock using Redis SETNX + TTL.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// Acquire tries to own the lock for the configured TTL. The owner value
// names the instance so a stuck lock can be traced.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := instance.GetID() + ":" + uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only if the owner value still matches. A lock
// that already expired or was taken over is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	if _, err := l.client.ReleaseIfOwner(ctx, l.key, owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// LocalLock serialises cycles inside one process. Used when no Redis is
// configured, which is the single-instance SQLite deployment.
type LocalLock struct {
	mu sync.Mutex
}

// NewLocalLock returns an in-process lock.
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// Acquire never blocks; a held lock reports false.
func (l *LocalLock) Acquire(context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

// Release unlocks a lock obtained by Acquire.
func (l *LocalLock) Release(context.Context) error {
	l.mu.Unlock()
	return nil
}

package cron

import (
	"context"
	"testing"
	"time"
)

type memoryStore struct {
	data map[string]string
	ttl  time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	m.ttl = ttl
	return true, nil
}

func (m *memoryStore) ReleaseIfOwner(_ context.Context, key, owner string) (bool, error) {
	if m.data[key] != owner {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func TestRedisLockExclusive(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	first, err := NewRedisLock(store, "labledger:lock:cron", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "labledger:lock:cron", 0)

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if store.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", store.ttl)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || ok {
		t.Fatalf("second acquire should fail: ok=%v err=%v", ok, err)
	}

	// a non-owner release leaves the key in place
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, held := store.data["labledger:lock:cron"]; !held {
		t.Fatalf("non-owner release removed the lock")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", time.Minute); err == nil {
		t.Fatalf("expected client error")
	}
	if _, err := NewRedisLock(newMemoryStore(), "", time.Minute); err == nil {
		t.Fatalf("expected key error")
	}
}

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalLock()
	ok, _ := lock.Acquire(ctx)
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}
	ok, _ = lock.Acquire(ctx)
	if ok {
		t.Fatalf("expected held lock to refuse")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, _ = lock.Acquire(ctx)
	if !ok {
		t.Fatalf("expected acquire after release")
	}
}

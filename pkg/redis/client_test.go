package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "detect:ip:1.2.3.4", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("expected first request allowed with count 1, got allowed=%v count=%d", allowed, count)
	}
	if got := mock.ttl["labledger:rate_limit:detect:ip:1.2.3.4"]; got != time.Second {
		t.Fatalf("expected window armed on first hit, got %s", got)
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "detect:ip:1.2.3.4", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "detect:ip:1.2.3.4", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}

	if _, _, err := client.FixedWindowAllow(ctx, "detect", 2, 0); err == nil {
		t.Fatalf("expected error for zero window")
	}
}

func TestLockLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.LockKey("cron-worker:test")

	ok, err := client.SetNX(ctx, key, "worker-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "worker-b", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if ok {
		t.Fatalf("second acquire should fail while the lock is held")
	}

	released, err := client.ReleaseIfOwner(ctx, key, "worker-b")
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if released {
		t.Fatalf("non-owner must not release the lock")
	}
	released, err = client.ReleaseIfOwner(ctx, key, "worker-a")
	if err != nil || !released {
		t.Fatalf("owner release failed, released=%v err=%v", released, err)
	}
	if _, held := mock.data[key]; held {
		t.Fatalf("lock key should be gone after release")
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if _, _, err := client.FixedWindowAllow(context.Background(), "scope", 1, time.Second); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on uninitialized client should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.LockKey("cron"); got != "labledger:lock:cron" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "labledger:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.buildKey("a", " ", "b"); got != "labledger:a:b" {
		t.Fatalf("blank parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2, PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options %+v", opts)
	}
	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 3 {
		t.Fatalf("url options not applied: %+v", opts)
	}
}

// mockCmdable emulates the two Lua scripts the client sends.
type mockCmdable struct {
	data map[string]string
	incr map[string]int64
	ttl  map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		ttl:  make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	switch script {
	case fixedWindowScript:
		m.incr[key]++
		if m.incr[key] == 1 {
			m.ttl[key] = time.Duration(args[0].(int64)) * time.Millisecond
		}
		return redis.NewCmdResult(m.incr[key], nil)
	case releaseScript:
		if v, ok := m.data[key]; ok && v == args[0] {
			delete(m.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
}

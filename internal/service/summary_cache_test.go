package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisStringStore struct {
	values  map[string]string
	lastTTL time.Duration
	getErr  error
	setErr  error
}

func newMockRedisStringStore() *mockRedisStringStore {
	return &mockRedisStringStore{values: make(map[string]string)}
}

func (m *mockRedisStringStore) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	val, ok := m.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (m *mockRedisStringStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	m.values[key] = value.(string)
	m.lastTTL = expiration
	cmd.SetVal("OK")
	return cmd
}

func TestMemorySummaryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemorySummaryCache(time.Minute)

	if _, ok, err := cache.Get(ctx, "c1", 2); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Set(ctx, "c1", 2, "summary v2"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	text, ok, err := cache.Get(ctx, "c1", 2)
	if err != nil || !ok || text != "summary v2" {
		t.Fatalf("expected hit, got text=%q ok=%v err=%v", text, ok, err)
	}
	if _, ok, _ := cache.Get(ctx, "c1", 3); ok {
		t.Fatalf("expected miss for newer version")
	}
}

func TestMemorySummaryCache_Expires(t *testing.T) {
	ctx := context.Background()
	cache := &memorySummaryCache{ttl: time.Minute, items: make(map[string]cachedSummary)}
	cache.items["c1"] = cachedSummary{version: 1, text: "old", expiresAt: time.Now().UTC().Add(-time.Second)}

	if _, ok, _ := cache.Get(ctx, "c1", 1); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if len(cache.items) != 0 {
		t.Fatalf("expected expired entry to be evicted")
	}
}

func TestMemorySummaryCache_KeepsLatestVersionOnly(t *testing.T) {
	ctx := context.Background()
	cache := &memorySummaryCache{ttl: time.Minute, items: make(map[string]cachedSummary)}

	for v := 0; v < 1000; v++ {
		if err := cache.Set(ctx, "c1", v, "summary"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if len(cache.items) != 1 {
		t.Fatalf("expected a single entry per conversation, got %d", len(cache.items))
	}
	if _, ok, _ := cache.Get(ctx, "c1", 998); ok {
		t.Fatalf("expected miss for superseded version")
	}
	if text, ok, _ := cache.Get(ctx, "c1", 999); !ok || text != "summary" {
		t.Fatalf("expected hit for latest version, got %q ok=%v", text, ok)
	}
}

func TestMemorySummaryCache_SweepsExpiredOnSet(t *testing.T) {
	ctx := context.Background()
	cache := &memorySummaryCache{ttl: time.Millisecond, items: make(map[string]cachedSummary)}

	for i := 0; i < 100; i++ {
		if err := cache.Set(ctx, fmt.Sprintf("c%d", i), i, "summary"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	time.Sleep(10 * time.Millisecond)

	cache.ttl = time.Minute
	if err := cache.Set(ctx, "fresh", 1, "summary"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cache.items) != 1 {
		t.Fatalf("expected expired entries swept, got %d entries", len(cache.items))
	}
}

func TestRedisSummaryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("nil client disables cache", func(t *testing.T) {
		if NewRedisSummaryCache(nil, time.Minute) != nil {
			t.Fatalf("expected nil cache for nil client")
		}
	})

	t.Run("set then get", func(t *testing.T) {
		store := newMockRedisStringStore()
		cache := &redisSummaryCache{client: store, ttl: 2 * time.Hour, prefix: "summary:"}

		if err := cache.Set(ctx, "c1", 4, "resumen"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := store.values["summary:c1:v4"]; !ok {
			t.Fatalf("unexpected keys %+v", store.values)
		}
		if store.lastTTL != 2*time.Hour {
			t.Fatalf("expected ttl 2h, got %v", store.lastTTL)
		}
		text, ok, err := cache.Get(ctx, "c1", 4)
		if err != nil || !ok || text != "resumen" {
			t.Fatalf("expected hit, got text=%q ok=%v err=%v", text, ok, err)
		}
	})

	t.Run("redis nil is a miss", func(t *testing.T) {
		cache := &redisSummaryCache{client: newMockRedisStringStore(), ttl: time.Hour, prefix: "summary:"}
		_, ok, err := cache.Get(ctx, "c1", 1)
		if ok || err != nil {
			t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("errors propagate", func(t *testing.T) {
		down := errors.New("redis down")
		store := newMockRedisStringStore()
		store.getErr = down
		store.setErr = down
		cache := &redisSummaryCache{client: store, ttl: time.Hour, prefix: "summary:"}

		if _, _, err := cache.Get(ctx, "c1", 1); !errors.Is(err, down) {
			t.Fatalf("expected redis error, got %v", err)
		}
		if err := cache.Set(ctx, "c1", 1, "x"); !errors.Is(err, down) {
			t.Fatalf("expected redis error, got %v", err)
		}
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SummaryCache guarda resumenes exitosos por conversacion. version es la cantidad
// de mensajes al momento del resumen: los mensajes son inmutables y solo se agregan,
// asi que un nuevo mensaje invalida la entrada anterior.
type SummaryCache interface {
	Get(ctx context.Context, conversationID string, version int) (string, bool, error)
	Set(ctx context.Context, conversationID string, version int, summary string) error
}

func summaryCacheKey(conversationID string, version int) string {
	return fmt.Sprintf("%s:v%d", strings.TrimSpace(conversationID), version)
}

type cachedSummary struct {
	version   int
	text      string
	expiresAt time.Time
}

// memorySummaryCache guarda solo la ultima version por conversacion; las
// entradas vencidas se barren en cada Set.
type memorySummaryCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]cachedSummary
}

func NewMemorySummaryCache(ttl time.Duration) SummaryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memorySummaryCache{
		ttl:   ttl,
		items: make(map[string]cachedSummary),
	}
}

func (c *memorySummaryCache) Get(_ context.Context, conversationID string, version int) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.TrimSpace(conversationID)
	item, ok := c.items[key]
	if !ok {
		return "", false, nil
	}
	if time.Now().UTC().After(item.expiresAt) {
		delete(c.items, key)
		return "", false, nil
	}
	if item.version != version {
		return "", false, nil
	}
	return item.text, true, nil
}

func (c *memorySummaryCache) Set(_ context.Context, conversationID string, version int, summary string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
	c.items[strings.TrimSpace(conversationID)] = cachedSummary{
		version:   version,
		text:      summary,
		expiresAt: now.Add(c.ttl),
	}
	return nil
}

type redisStringStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisSummaryCache struct {
	client redisStringStore
	ttl    time.Duration
	prefix string
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisSummaryCache{
		client: client,
		ttl:    ttl,
		prefix: "summary:",
	}
}

func (c *redisSummaryCache) Get(ctx context.Context, conversationID string, version int) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	val, err := c.client.Get(ctx, c.prefix+summaryCacheKey(conversationID, version)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *redisSummaryCache) Set(ctx context.Context, conversationID string, version int, summary string) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return c.client.Set(ctx, c.prefix+summaryCacheKey(conversationID, version), summary, c.ttl).Err()
}

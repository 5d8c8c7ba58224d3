package tmdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisCachePrefix       = "catalog:tmdb:"
	defaultCacheMaxEntries = 1000
)

// Cache stores raw provider response bodies keyed by endpoint and parameters.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
}

type memoryEntry struct {
	data      []byte
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryCache is a bounded in-process TTL cache.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return append([]byte(nil), entry.data...), true
}

func (m *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		data:      append([]byte(nil), data...),
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	m.trimLocked(now)
}

func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCache) trimLocked(now time.Time) {
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
	if len(m.entries) <= m.maxEntries {
		return
	}

	type pair struct {
		key   string
		entry memoryEntry
	}
	items := make([]pair, 0, len(m.entries))
	for key, entry := range m.entries {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.storedAt.Before(items[j].entry.storedAt)
	})
	for i := 0; i < len(items)-m.maxEntries; i++ {
		delete(m.entries, items[i].key)
	}
}

// RedisCache shares provider responses between replicas.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, redisCachePrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (r *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	_ = r.client.Set(ctx, redisCachePrefix+key, data, ttl).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// TieredCache reads through a local cache before a shared one and writes to
// both.
type TieredCache struct {
	local  Cache
	shared Cache
}

func NewTieredCache(local, shared Cache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

func (t *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if t.local != nil {
		if data, ok := t.local.Get(ctx, key); ok {
			return data, true
		}
	}
	if t.shared == nil {
		return nil, false
	}
	data, ok := t.shared.Get(ctx, key)
	if !ok {
		return nil, false
	}
	// Short local copy; the shared entry owns the real expiry.
	if t.local != nil {
		t.local.Set(ctx, key, data, 30*time.Second)
	}
	return data, true
}

func (t *TieredCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if t.local != nil {
		t.local.Set(ctx, key, data, ttl)
	}
	if t.shared != nil {
		t.shared.Set(ctx, key, data, ttl)
	}
}

package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIndexTTL = 24 * time.Hour

// SessionIndex maps a provider key (call sid, sms thread) to the session id it belongs to.
type SessionIndex interface {
	Lookup(ctx context.Context, key string) (string, bool)
	Remember(ctx context.Context, key, sessionID string)
}

type indexEntry struct {
	sessionID string
	expires   time.Time
}

// MemoryIndex is a process-local SessionIndex.
type MemoryIndex struct {
	mu      sync.Mutex
	entries map[string]indexEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryIndex(ttl time.Duration) *MemoryIndex {
	if ttl <= 0 {
		ttl = defaultIndexTTL
	}
	return &MemoryIndex{entries: make(map[string]indexEntry), ttl: ttl, now: time.Now}
}

func (m *MemoryIndex) Lookup(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return "", false
	}
	return e.sessionID, e.sessionID != ""
}

func (m *MemoryIndex) Remember(_ context.Context, key, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = indexEntry{sessionID: sessionID, expires: m.now().Add(m.ttl)}
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisIndex shares the mapping across replicas.
type RedisIndex struct {
	client redisKV
	prefix string
	ttl    time.Duration
}

func NewRedisIndex(client redisKV, prefix string, ttl time.Duration) *RedisIndex {
	if ttl <= 0 {
		ttl = defaultIndexTTL
	}
	if prefix == "" {
		prefix = "plumbing:index"
	}
	return &RedisIndex{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisIndex) Lookup(ctx context.Context, key string) (string, bool) {
	id, err := r.client.Get(ctx, r.prefix+":"+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logIndexError(err, key)
		}
		return "", false
	}
	return id, id != ""
}

func (r *RedisIndex) Remember(ctx context.Context, key, sessionID string) {
	if err := r.client.Set(ctx, r.prefix+":"+key, sessionID, r.ttl).Err(); err != nil {
		logIndexError(err, key)
	}
}

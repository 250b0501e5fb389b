package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker tracks logged-out token ids until they expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevoker keeps revoked ids in-memory (single instance only).
type MemoryRevoker struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{tokens: make(map[string]time.Time)}
}

func (r *MemoryRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 || tokenID == "" {
		return nil
	}
	r.mu.Lock()
	r.tokens[tokenID] = time.Now().Add(ttl)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiry, ok := r.tokens[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(r.tokens, tokenID)
		return false, nil
	}
	return true, nil
}

// RedisRevoker stores revoked ids in Redis with TTL.
type RedisRevoker struct {
	client *redis.Client
	prefix string
}

func NewRedisRevoker(client *redis.Client, prefix string) *RedisRevoker {
	if prefix == "" {
		prefix = "storefront:revoked"
	}
	return &RedisRevoker{client: client, prefix: prefix}
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 || tokenID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.client.Set(ctx, r.key(tokenID), "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRevoker) key(tokenID string) string {
	return r.prefix + ":" + tokenID
}

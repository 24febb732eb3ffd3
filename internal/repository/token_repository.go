package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedTokenPrefix = "auth:revoked:"

// TokenRepository remembers signed-out access tokens until they would have
// expired anyway. Without redis the list lives in process memory.
type TokenRepository struct {
	Redis *redis.Client

	mu    sync.Mutex
	local map[string]time.Time
}

func NewTokenRepository(rdb *redis.Client) *TokenRepository {
	return &TokenRepository{
		Redis: rdb,
		local: make(map[string]time.Time),
	}
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedTokenPrefix + hex.EncodeToString(sum[:])
}

func (r *TokenRepository) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	key := tokenKey(token)

	if r.Redis != nil {
		return r.Redis.Set(ctx, key, 1, ttl).Err()
	}

	r.mu.Lock()
	r.local[key] = expiresAt
	r.mu.Unlock()
	return nil
}

func (r *TokenRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	key := tokenKey(token)

	if r.Redis != nil {
		n, err := r.Redis.Exists(ctx, key).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.local[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		delete(r.local, key)
		return false, nil
	}
	return true, nil
}

// Prune drops expired in-memory entries. Redis expires its own keys.
func (r *TokenRepository) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, expiresAt := range r.local {
		if now.After(expiresAt) {
			delete(r.local, key)
			removed++
		}
	}
	return removed
}

package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "jwt:blacklist:"

// TokenBlacklist remembers revoked JWTs until they expire. It prefers redis and
// keeps an in-process map when no client is configured.
type TokenBlacklist struct {
	rc  *redis.Client
	now func() time.Time

	mu  sync.Mutex
	mem map[string]time.Time
}

// NewTokenBlacklist returns a blacklist backed by rc, or by memory if rc is nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, now: time.Now, mem: map[string]time.Time{}}
}

// Revoke stores token until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return b.rc.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mem[token] = expiresAt
	return nil
}

// IsRevoked reports whether token was revoked before its natural expiry.
// Redis errors fail open so an outage does not log everybody out.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, blacklistPrefix+token).Result()
		return err == nil && n > 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.mem[token]
	if !ok {
		return false
	}
	if b.now().After(exp) {
		delete(b.mem, token)
		return false
	}
	return true
}

package utils

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheWithoutClientAlwaysMisses(t *testing.T) {
	c := NewCache(nil, CacheOptions{}, nil)
	ctx := context.Background()

	c.SetJSON(ctx, "k", map[string]int{"a": 1}, 0)
	_, ok := c.GetBytes(ctx, "k")
	assert.False(t, ok)
	assert.NoError(t, c.InvalidateByPrefix(ctx, "k"))
	c.Invalidate(ctx, "a", "b")

	var nilCache *Cache
	_, ok = nilCache.GetBytes(ctx, "k")
	assert.False(t, ok)
}

func TestCacheBreakerOpensWhenRedisIsDown(t *testing.T) {
	rc := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rc.Close()
	c := NewCache(rc, CacheOptions{MaxFailures: 2, OpenTimeout: time.Minute}, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, ok := c.GetBytes(ctx, "k")
		assert.False(t, ok)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	err := c.InvalidateByPrefix(ctx, "cache:")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestTokenBlacklistInMemory(t *testing.T) {
	b := NewTokenBlacklist(nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, b.Revoke(ctx, "tok", now.Add(time.Hour)))
	require.NoError(t, b.Revoke(ctx, "expired", now.Add(-time.Second)))
	assert.True(t, b.IsRevoked(ctx, "tok"))
	assert.False(t, b.IsRevoked(ctx, "expired"))
	assert.False(t, b.IsRevoked(ctx, "other"))

	now = now.Add(2 * time.Hour)
	assert.False(t, b.IsRevoked(ctx, "tok"))
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	iss := NewTokenIssuer("secret", time.Hour)
	tok, exp, err := iss.Issue(42, "alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = NewTokenIssuer("other", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	iss := NewTokenIssuer("secret", time.Hour)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := iss.Issue(1, "bob")
	require.NoError(t, err)

	_, err = iss.Parse(tok)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse!"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "<b>hi</b>", Sanitize(`<b>hi</b><script>alert(1)</script>`))
	assert.Equal(t, "hi", SanitizePlain(`  <b>hi</b> `))
}

func TestRegistrationGuardFailsOpen(t *testing.T) {
	ctx := context.Background()

	var none *RegistrationGuard
	assert.True(t, none.Allow(ctx, "10.0.0.1"))
	assert.NoError(t, none.Record(ctx, "10.0.0.1"))

	g := NewRegistrationGuard(nil, time.Minute, 1)
	assert.True(t, g.Allow(ctx, "10.0.0.1"))
	assert.True(t, g.Allow(ctx, "10.0.0.1"))

	down := NewRegistrationGuard(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}), time.Minute, 1)
	assert.True(t, down.Allow(ctx, "10.0.0.1"))
}

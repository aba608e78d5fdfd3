package utils

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/cppla/inkpost/metrics"
)

const (
	defaultCacheTTL = time.Hour
	cacheOpTimeout  = 2 * time.Second
	scanBatch       = 1000
	maxScanRounds   = 10
)

// CacheOptions tunes a Cache.
type CacheOptions struct {
	TTL         time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Cache is a redis-backed byte cache. Every call goes through a circuit
// breaker; while it is open reads miss and writes are dropped.
type Cache struct {
	rc  *redis.Client
	cb  *gobreaker.CircuitBreaker[[]byte]
	ttl time.Duration
	log *zap.Logger
}

// NewCache wraps rc. A nil rc yields a cache that always misses.
func NewCache(rc *redis.Client, opts CacheOptions, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultCacheTTL
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	const name = "redis-cache"
	metrics.CacheBreakerState.WithLabelValues(name).Set(0)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		// A miss is a healthy answer.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CacheBreakerState.WithLabelValues(name).Set(breakerGauge(to))
			log.Warn("cache breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Cache{rc: rc, cb: cb, ttl: opts.TTL, log: log}
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rc != nil
}

// State reports the breaker state.
func (c *Cache) State() gobreaker.State {
	if c == nil {
		return gobreaker.StateClosed
	}
	return c.cb.State()
}

// GetBytes returns cached bytes for key.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	b, err := c.cb.Execute(func() ([]byte, error) {
		return c.rc.Get(ctx, key).Bytes()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return b, true
}

// GetJSON decodes the cached value for key into out.
func (c *Cache) GetJSON(ctx context.Context, key string, out interface{}) bool {
	b, ok := c.GetBytes(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

// SetBytes stores b under key. ttl <= 0 uses the cache default.
func (c *Cache) SetBytes(ctx context.Context, key string, b []byte, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	_, err := c.cb.Execute(func() ([]byte, error) {
		return nil, c.rc.Set(ctx, key, b, ttl).Err()
	})
	if err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// SetJSON marshals v and stores the JSON bytes.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.SetBytes(ctx, key, b, ttl)
}

// InvalidateByPrefix deletes keys that match prefix using SCAN.
func (c *Cache) InvalidateByPrefix(ctx context.Context, prefix string) error {
	if !c.enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := c.cb.Execute(func() ([]byte, error) {
		var cursor uint64
		for i := 0; i < maxScanRounds; i++ {
			keys, next, err := c.rc.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
			if err != nil {
				return nil, err
			}
			if len(keys) > 0 {
				if err := c.rc.Del(ctx, keys...).Err(); err != nil {
					return nil, err
				}
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
		return nil, nil
	})
	return err
}

// Invalidate drops every key under each prefix. Failures are logged only; a
// stale entry expires with its TTL.
func (c *Cache) Invalidate(ctx context.Context, prefixes ...string) {
	for _, p := range prefixes {
		if err := c.InvalidateByPrefix(ctx, p); err != nil {
			c.log.Warn("cache invalidate failed", zap.String("prefix", p), zap.Error(err))
		}
	}
}

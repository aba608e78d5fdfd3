package utils

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const registrationKeyPrefix = "reg:"

// RegistrationGuard throttles account creation per client IP: a cooldown
// between attempts and a cap on successful registrations per UTC day.
// Redis failures fail open.
type RegistrationGuard struct {
	rc       *redis.Client
	cooldown time.Duration
	perDay   int
	now      func() time.Time
}

// NewRegistrationGuard returns a guard. A nil client or zero limits disable the
// corresponding check.
func NewRegistrationGuard(rc *redis.Client, cooldown time.Duration, perDay int) *RegistrationGuard {
	return &RegistrationGuard{rc: rc, cooldown: cooldown, perDay: perDay, now: time.Now}
}

func (g *RegistrationGuard) dayKey(ip string) string {
	return registrationKeyPrefix + "succday:" + ip + ":" + g.now().UTC().Format("20060102")
}

// Allow reports whether ip may attempt a registration now. Each allowed call
// starts a new cooldown window.
func (g *RegistrationGuard) Allow(ctx context.Context, ip string) bool {
	if g == nil || g.rc == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if g.perDay > 0 {
		n, err := g.rc.Get(ctx, g.dayKey(ip)).Int()
		if err == nil && n >= g.perDay {
			return false
		}
	}
	if g.cooldown > 0 {
		ok, err := g.rc.SetNX(ctx, registrationKeyPrefix+"cooldown:"+ip, "1", g.cooldown).Result()
		if err != nil {
			return true
		}
		return ok
	}
	return true
}

// Record counts a successful registration for ip until the end of the UTC day.
func (g *RegistrationGuard) Record(ctx context.Context, ip string) error {
	if g == nil || g.rc == nil || g.perDay <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	key := g.dayKey(ip)
	if err := g.rc.Incr(ctx, key).Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
	now := g.now().UTC()
	ttl := now.Truncate(24 * time.Hour).Add(24 * time.Hour).Sub(now)
	return g.rc.Expire(ctx, key, ttl).Err()
}

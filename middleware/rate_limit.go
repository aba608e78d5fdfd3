package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/inkpost/utils"
)

const limiterIdleTTL = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rateLimiter
}

// NewIPRateLimiter allows perMinute requests per IP with a burst of half that.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	perMinute = max(perMinute, 1)
	return &IPRateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
		limiters: map[string]*rateLimiter{},
	}
}

// Allow consumes one token for key.
func (l *IPRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for k, rl := range l.limiters {
		if now.After(rl.expires) {
			delete(l.limiters, k)
		}
	}
	rl, ok := l.limiters[key]
	if !ok {
		rl = &rateLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = rl
	}
	rl.expires = now.Add(limiterIdleTTL)
	return rl.limiter.Allow()
}

// RateLimitMiddleware rejects requests above the per-IP budget with 429.
func RateLimitMiddleware(l *IPRateLimiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !l.Allow(ctx.ClientIP()) {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

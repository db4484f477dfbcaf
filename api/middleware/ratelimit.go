package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/winnow/config"
	"github.com/use-agent/winnow/models"
)

// idleTTL is how long an unused limiter is kept.
const idleTTL = time.Hour

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per identity (API key, or client IP
// for anonymous callers).
type RateLimiter struct {
	cfg config.RateLimitConfig

	mu       sync.Mutex
	limiters map[string]*limiterEntry

	done chan struct{}
}

// NewRateLimiter creates a RateLimiter and starts evicting limiters idle
// for an hour, checking every 5 minutes, until Close is called.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg,
		limiters: make(map[string]*limiterEntry),
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close stops the eviction goroutine.
func (rl *RateLimiter) Close() {
	close(rl.done)
}

// Allow reports whether identity may make a request now.
func (rl *RateLimiter) Allow(identity string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[identity]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		}
		rl.limiters[identity] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

// Middleware returns the gin handler enforcing the limits.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.GetString(IdentityKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !rl.Allow(identity) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.evictIdle(now)
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-idleTTL)
	rl.mu.Lock()
	for id, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, id)
		}
	}
	rl.mu.Unlock()
}

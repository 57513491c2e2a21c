package middleware

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/napcube/pod-reservation-backend/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL         = 10 * time.Minute
	defaultCleanupInterval = time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// RateLimiter keeps one token bucket per client IP.
// The key is gin's ClientIP, so forwarding headers only count when the
// router trusts the peer that sent them (see gin.Engine.SetTrustedProxies).
type RateLimiter struct {
	limiters sync.Map // map[string]*limiterEntry
	cfg      config.RateLimitConfig
	logger   *logrus.Logger
	now      func() time.Time
}

// NewRateLimiter creates a new per-IP rate limiter
func NewRateLimiter(cfg config.RateLimitConfig, logger *logrus.Logger) *RateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	return &RateLimiter{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (l *RateLimiter) getLimiter(key string) *rate.Limiter {
	seen := l.now().UnixNano()
	if v, ok := l.limiters.Load(key); ok {
		if entry, ok := v.(*limiterEntry); ok {
			entry.lastSeen.Store(seen)
			return entry.limiter
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	entry := &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)}
	entry.lastSeen.Store(seen)
	actual, loaded := l.limiters.LoadOrStore(key, entry)
	if loaded {
		if actualEntry, ok := actual.(*limiterEntry); ok {
			actualEntry.lastSeen.Store(seen)
			return actualEntry.limiter
		}
	}
	return entry.limiter
}

// Cleanup evicts buckets idle for longer than IdleTTL and returns how many were removed
func (l *RateLimiter) Cleanup() int {
	cutoff := l.now().Add(-l.cfg.IdleTTL).UnixNano()
	removed := 0
	l.limiters.Range(func(key, value interface{}) bool {
		entry, ok := value.(*limiterEntry)
		if !ok || entry.lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Size returns the number of tracked clients
func (l *RateLimiter) Size() int {
	n := 0
	l.limiters.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Run evicts idle buckets every CleanupInterval until ctx is cancelled
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Cleanup(); removed > 0 {
				l.logger.WithFields(logrus.Fields{
					"removed": removed,
					"tracked": l.Size(),
				}).Debug("Evicted idle rate limit buckets")
			}
		}
	}
}

// Middleware rejects requests over the limit with 429. A non-positive RPS disables limiting.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.cfg.RPS <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if !l.getLimiter(ip).Allow() {
			l.logger.WithFields(logrus.Fields{
				"ip":   ip,
				"path": c.Request.URL.Path,
			}).Warn("Rate limit exceeded")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please slow down.",
				"code":    "RATE_LIMITED",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	MessagesPerMinute int           // Sustained requests per client per minute
	BurstSize         int           // Allow burst of N requests
	IdleTimeout       time.Duration // Drop limiters unused for this long
	CleanupInterval   time.Duration // How often to clean up old entries
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client IP.
type ClientRateLimiter struct {
	config      RateLimiterConfig
	clients     map[string]*clientLimiter
	mu          sync.Mutex
	logger      *zap.Logger
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewClientRateLimiter creates a limiter and starts its cleanup goroutine.
func NewClientRateLimiter(config RateLimiterConfig, logger *zap.Logger) *ClientRateLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}

	limiter := &ClientRateLimiter{
		config:      config,
		clients:     make(map[string]*clientLimiter),
		logger:      logger,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	go limiter.cleanupRoutine()

	return limiter
}

func (l *ClientRateLimiter) limit() rate.Limit {
	if l.config.MessagesPerMinute <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(l.config.MessagesPerMinute) / 60.0)
}

// cleanupRoutine periodically removes stale entries
func (l *ClientRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup removes limiters for clients idle longer than IdleTimeout.
func (l *ClientRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.config.IdleTimeout)
	removed := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	if removed > 0 {
		l.logger.Debug("Cleaned up rate limiter cache",
			zap.Int("removed", removed),
			zap.Int("remaining", len(l.clients)))
	}
}

// Stop stops the cleanup routine
func (l *ClientRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func (l *ClientRateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit(), l.config.BurstSize)}
		l.clients[key] = c
	}
	c.lastSeen = l.now()
	return c.limiter
}

// Allow consumes one token for key if available.
func (l *ClientRateLimiter) Allow(key string) bool {
	return l.get(key).AllowN(l.now(), 1)
}

// Remaining returns the whole tokens left for key.
func (l *ClientRateLimiter) Remaining(key string) int {
	if l.limit() == rate.Inf {
		return l.config.BurstSize
	}
	tokens := l.get(key).TokensAt(l.now())
	if tokens < 0 {
		return 0
	}
	return int(tokens)
}

// RateLimitMiddleware rejects requests from clients over their budget.
func RateLimitMiddleware(limiter *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		allowed := limiter.Allow(key)
		limit := limiter.config.BurstSize
		remaining := limiter.Remaining(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			logger, _ := c.Get("logger")
			zapLogger, _ := logger.(*zap.Logger)
			if zapLogger != nil {
				zapLogger.Warn("Rate limit exceeded",
					zap.String("client_ip", key),
					zap.String("path", c.FullPath()),
					zap.Int("limit", limit))
			}

			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}

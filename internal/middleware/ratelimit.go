// ratelimit.go provides Gin middleware that enforces per-client token-bucket
// rate limits, returning 429 responses when the configured requests-per-minute
// threshold is exceeded.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/large-event/teamd-backend/internal/api/respond"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// RequestsPerMinute is the maximum sustained request rate per client
	RequestsPerMinute int
	// BurstSize is the maximum burst of requests allowed
	BurstSize int
	// CleanupInterval is how often to clean up expired entries
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns limits for general API traffic. Bursts are
// generous because portal pages fetch several resources on load.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 200,
		BurstSize:         50,
		CleanupInterval:   5 * time.Minute,
	}
}

// AuthRateLimitConfig returns stricter limits for the login endpoint.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
	}
}

// rateLimitEntry tracks the token bucket for a single client
type rateLimitEntry struct {
	tokens     float64
	lastUpdate time.Time
}

// RateLimiter implements a token bucket rate limiter keyed by session or IP
type RateLimiter struct {
	config  RateLimitConfig
	entries map[string]*rateLimitEntry
	mu      sync.RWMutex
	stopCh  chan struct{}
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
// Call Stop on shutdown.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		entries: make(map[string]*rateLimitEntry),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// cleanup periodically removes entries for clients that have gone quiet.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, entry := range rl.entries {
				if now.Sub(entry.lastUpdate) > 10*time.Minute {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Allow reports whether a request from the given key should be admitted.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[key]

	if !exists {
		// New client starts with a full burst
		rl.entries[key] = &rateLimitEntry{
			tokens:     float64(rl.config.BurstSize) - 1,
			lastUpdate: now,
		}
		return true
	}

	elapsed := now.Sub(entry.lastUpdate)
	tokensPerSecond := float64(rl.config.RequestsPerMinute) / 60.0
	tokensToAdd := elapsed.Seconds() * tokensPerSecond

	entry.tokens = min(float64(rl.config.BurstSize), entry.tokens+tokensToAdd)
	entry.lastUpdate = now

	if entry.tokens >= 1 {
		entry.tokens--
		return true
	}

	return false
}

// RemainingTokens returns how many tokens are left for a key
func (rl *RateLimiter) RemainingTokens(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	entry, exists := rl.entries[key]
	if !exists {
		return rl.config.BurstSize
	}

	now := time.Now()
	elapsed := now.Sub(entry.lastUpdate)
	tokensPerSecond := float64(rl.config.RequestsPerMinute) / 60.0
	tokensToAdd := elapsed.Seconds() * tokensPerSecond
	currentTokens := min(float64(rl.config.BurstSize), entry.tokens+tokensToAdd)

	return int(currentTokens)
}

// RateLimit creates a Gin middleware that rate limits requests using the
// given limiter.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := getRateLimitKey(c)

		if !limiter.Allow(key) {
			remaining := limiter.RemainingTokens(key)
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
			c.Header("Retry-After", "60")
			respond.Error(c, http.StatusTooManyRequests, "Rate limit exceeded", respond.CodeRateLimited)
			c.Abort()
			return
		}

		remaining := limiter.RemainingTokens(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

// getRateLimitKey prefers the authenticated user ID over the client IP so a
// shared NAT does not starve unrelated users once one of them logs in.
func getRateLimitKey(c *gin.Context) string {
	if userID, exists := c.Get(UserIDKey); exists {
		if id, ok := userID.(int); ok && id != 0 {
			return "user:" + strconv.Itoa(id)
		}
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}

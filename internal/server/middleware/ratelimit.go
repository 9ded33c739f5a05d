// Package middleware provides rate limiting using the token bucket algorithm.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dtorcivia/flowdash/internal/config"
	"github.com/dtorcivia/flowdash/internal/response"
)

// RateLimiter implements per-client rate limiting using token buckets.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	limit   config.RateLimitConfig
	now     func() time.Time

	trustProxy bool
}

// tokenBucket implements the token bucket algorithm.
type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter with the given configuration.
// With trustProxy unset, clients are keyed by connection address only.
func NewRateLimiter(limit config.RateLimitConfig, trustProxy bool) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		limit:      limit,
		now:        time.Now,
		trustProxy: trustProxy,
	}
}

// Allow reports whether a request from key may proceed, consuming a token if so.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.limit.Enabled() {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, exists := rl.buckets[key]
	if !exists {
		bucket = &tokenBucket{
			tokens:     float64(rl.limit.Burst), // start with full burst capacity
			maxTokens:  float64(rl.limit.Burst),
			refillRate: float64(rl.limit.RequestsPerMinute) / 60.0,
			lastRefill: now,
		}
		rl.buckets[key] = bucket
	}

	bucket.refill(now)

	if bucket.tokens >= 1.0 {
		bucket.tokens -= 1.0
		return true
	}
	return false
}

// retryAfter is the whole seconds until one token is available.
func (rl *RateLimiter) retryAfter() int {
	if rl.limit.RequestsPerMinute <= 0 {
		return 60
	}
	secs := 60 / rl.limit.RequestsPerMinute
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (tb *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now

	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
}

// Cleanup removes buckets that haven't been used recently.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxAge)
	for key, bucket := range rl.buckets {
		if bucket.lastRefill.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// Limit returns middleware that throttles requests per client IP.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(ClientIP(r, rl.trustProxy)) {
			retry := rl.retryAfter()
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			response.WriteErrorWithDetails(w, http.StatusTooManyRequests, response.ErrCodeRateLimited,
				"Too many requests, please slow down",
				map[string]any{"retry_after_seconds": retry})
			return
		}
		next.ServeHTTP(w, r)
	})
}

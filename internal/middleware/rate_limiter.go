package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitPolicy decides whether a request identified by key may
// proceed. Injecting the policy keeps limiter state out of package
// globals, so handlers stay testable and the policy can be swapped for
// a shared store when running more than one process.
type RateLimitPolicy interface {
	Allow(key string) bool
}

// TokenBucketPolicy is an in-process RateLimitPolicy backed by x/time
// token buckets, one per key.
type TokenBucketPolicy struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int

	cleanupTicker *time.Ticker
}

// NewTokenBucketPolicy creates a policy allowing requestsPerSecond per
// key with the given burst.
func NewTokenBucketPolicy(requestsPerSecond float64, burst int) *TokenBucketPolicy {
	p := &TokenBucketPolicy{
		limiters:      make(map[string]*rate.Limiter),
		rate:          rate.Limit(requestsPerSecond),
		burst:         burst,
		cleanupTicker: time.NewTicker(5 * time.Minute),
	}
	go p.cleanup()
	return p
}

// cleanup periodically resets the limiter map to prevent unbounded
// growth from one-off keys.
func (p *TokenBucketPolicy) cleanup() {
	for range p.cleanupTicker.C {
		p.mu.Lock()
		p.limiters = make(map[string]*rate.Limiter)
		p.mu.Unlock()
	}
}

// Stop stops the cleanup ticker
func (p *TokenBucketPolicy) Stop() {
	p.cleanupTicker.Stop()
}

// Allow reports whether the key may proceed.
func (p *TokenBucketPolicy) Allow(key string) bool {
	p.mu.Lock()
	limiter, exists := p.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(p.rate, p.burst)
		p.limiters[key] = limiter
	}
	p.mu.Unlock()
	return limiter.Allow()
}

// RateLimitMiddleware limits requests per client IP using the given
// policy. Applied to the public check-in and referral endpoints.
func RateLimitMiddleware(policy RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !policy.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}

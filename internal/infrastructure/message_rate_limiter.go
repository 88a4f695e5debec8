package infrastructure

import (
	"sync"
	"time"
)

// MessageRateLimiter is a per-tenant token bucket guarding the inbound
// webhook path against message bursts. It is an in-process smoothing
// device; the hidden daily ceiling is enforced separately from the
// message log.
type MessageRateLimiter struct {
	mu        sync.RWMutex
	buckets   map[int]*tokenBucket
	rate      float64 // tokens per second
	maxTokens float64 // burst capacity
	done      chan struct{}
}

type tokenBucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewMessageRateLimiter creates a limiter allowing `rate` messages per
// second with the given burst capacity per tenant.
func NewMessageRateLimiter(rate float64, burst int) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		buckets:   make(map[int]*tokenBucket),
		rate:      rate,
		maxTokens: float64(burst),
		done:      make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow consumes one token for the tenant if available.
func (rl *MessageRateLimiter) Allow(tenantID int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, exists := rl.buckets[tenantID]
	now := time.Now()

	if !exists {
		rl.buckets[tenantID] = &tokenBucket{
			tokens:     rl.maxTokens - 1,
			lastUpdate: now,
		}
		return true
	}

	// Refill based on elapsed time
	elapsed := now.Sub(bucket.lastUpdate).Seconds()
	bucket.tokens += elapsed * rl.rate
	if bucket.tokens > rl.maxTokens {
		bucket.tokens = rl.maxTokens
	}
	bucket.lastUpdate = now

	if bucket.tokens >= 1 {
		bucket.tokens -= 1
		return true
	}

	return false
}

// Reset drops rate-limit state for a tenant.
func (rl *MessageRateLimiter) Reset(tenantID int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, tenantID)
}

// Stop terminates the background cleanup goroutine.
func (rl *MessageRateLimiter) Stop() {
	close(rl.done)
}

// cleanup removes stale buckets periodically.
func (rl *MessageRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for tenantID, bucket := range rl.buckets {
				if now.Sub(bucket.lastUpdate) > 10*time.Minute {
					delete(rl.buckets, tenantID)
				}
			}
			rl.mu.Unlock()
		}
	}
}

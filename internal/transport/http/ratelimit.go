package http

import (
	"sync"
	"time"
)

const rateWindow = time.Minute

// rateLimiter admits at most limit envelopes per window on one connection.
// A zero or negative limit, or a nil limiter, admits everything.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	started time.Time
	used    int
	now     func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit, now: time.Now}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.started) >= rateWindow {
		r.started = now
		r.used = 0
	}
	if r.used >= r.limit {
		return false
	}
	r.used++
	return true
}

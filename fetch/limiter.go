package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter enforces a minimum interval between requests to the same
// host, independent of how many goroutines are fetching.
type hostLimiter struct {
	mu       sync.Mutex
	every    rate.Limit
	limiters map[string]*rate.Limiter
}

func newHostLimiter(interval time.Duration) *hostLimiter {
	every := rate.Inf
	if interval > 0 {
		every = rate.Every(interval)
	}
	return &hostLimiter{
		every:    every,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (h *hostLimiter) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(h.every, 1)
		h.limiters[host] = limiter
	}
	return limiter
}

// Wait blocks until host may be fetched again.
func (h *hostLimiter) Wait(ctx context.Context, host string) error {
	return h.get(host).Wait(ctx)
}

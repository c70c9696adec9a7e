package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per host. Providers shared by several
// series are throttled together.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rates    map[string]float64
	rps      float64
	burst    int
}

// New creates a limiter with a default rate for hosts without an override.
// A non-positive rps disables limiting for those hosts.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rates:    make(map[string]float64),
		rps:      rps,
		burst:    burst,
	}
}

// SetHostRate overrides the rate for host. Must be called before first use
// of host to take effect on an existing bucket.
func (l *Limiter) SetHostRate(host string, rps float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rates[host] = rps
	if lim, ok := l.limiters[host]; ok {
		lim.SetLimit(limitFor(rps))
	}
}

// Wait blocks until host may be called or ctx is done.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	return l.get(host).Wait(ctx)
}

// Allow reports whether host may be called now without blocking.
func (l *Limiter) Allow(host string) bool {
	return l.get(host).Allow()
}

func (l *Limiter) get(host string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[host]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	rps, ok := l.rates[host]
	if !ok {
		rps = l.rps
	}
	lim = rate.NewLimiter(limitFor(rps), l.burst)
	l.limiters[host] = lim
	return lim
}

func limitFor(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}

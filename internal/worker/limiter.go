package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles calls to named downstream dependencies (cms, search,
// fetch). Unlike a per-domain crawler limiter, the keys here are the
// dependencies the scheduler talks to, each with its own budget.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter with a default rate for unconfigured
// dependencies.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the named dependency may be called again.
func (l *Limiter) Wait(ctx context.Context, name string) error {
	return l.get(name).Wait(ctx)
}

// Allow reports whether the named dependency may be called without waiting.
func (l *Limiter) Allow(name string) bool {
	return l.get(name).Allow()
}

// SetRate configures a dedicated rate for one dependency.
func (l *Limiter) SetRate(name string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// WaitWithDelay waits for rate clearance and then an additional fixed delay.
func (l *Limiter) WaitWithDelay(ctx context.Context, name string, delay time.Duration) error {
	if err := l.Wait(ctx, name); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (l *Limiter) get(name string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[name]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[name]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[name] = limiter
	return limiter
}

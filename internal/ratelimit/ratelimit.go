// Package ratelimit provides per-host request limiters over golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces requests to one upstream.
type Limiter struct {
	limiter *rate.Limiter
}

// New allows requestsPerMinute with a burst of a tenth of that (at least 1).
// A non-positive rate disables limiting.
func New(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

// NewWithBurst creates a limiter with an explicit per-second rate and burst.
func NewWithBurst(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a token is available or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may go out now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Tokens returns the tokens currently available.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}

// Registry shares one limiter per upstream host, so venues that call the same
// API (Orca and Meteora both go through Jupiter) draw from one budget.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// For returns the limiter for host, creating it with requestsPerMinute on first use.
func (r *Registry) For(host string, requestsPerMinute int) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[host]; ok {
		return l
	}
	l := New(requestsPerMinute)
	r.limiters[host] = l
	return l
}

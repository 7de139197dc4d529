// Package ratelimit throttles inbound messages per connection.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket for one connection
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter allows r events per second with bursts of up to burst.
// r <= 0 disables limiting.
func NewLimiter(r float64, burst int) *Limiter {
	if r <= 0 {
		return &Limiter{bucket: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(r), burst)}
}

func (l *Limiter) Allow() bool {
	return l.bucket.Allow()
}

func (l *Limiter) allowAt(t time.Time) bool {
	return l.bucket.AllowN(t, 1)
}

// ClientLimiters hands out one Limiter per connection id
type ClientLimiters struct {
	rate  float64
	burst int

	mu       sync.Mutex
	limiters map[string]*Limiter
}

func NewClientLimiters(r float64, burst int) *ClientLimiters {
	return &ClientLimiters{
		rate:     r,
		burst:    burst,
		limiters: make(map[string]*Limiter),
	}
}

// Get returns the connection's limiter, creating it on first use
func (cl *ClientLimiters) Get(clientID string) *Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	l, ok := cl.limiters[clientID]
	if !ok {
		l = NewLimiter(cl.rate, cl.burst)
		cl.limiters[clientID] = l
	}
	return l
}

func (cl *ClientLimiters) Remove(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	delete(cl.limiters, clientID)
}

// Len is the number of tracked connections
func (cl *ClientLimiters) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.limiters)
}

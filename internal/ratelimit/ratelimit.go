// Package ratelimit keeps one token bucket per key, used to throttle login
// attempts per client address.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shelfwise/shelfwise-server/internal/metrics"
)

// Idle buckets are dropped after this long without use.
const defaultIdleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter rate limits independently per key.
type KeyedLimiter struct {
	name  string
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*entry

	done     chan struct{}
	stopOnce sync.Once
}

// PerMinute allows n events per minute per key with a burst of n.
func PerMinute(name string, n int) *KeyedLimiter {
	return New(name, rate.Limit(float64(n)/60), n)
}

// New creates a keyed limiter. name labels the rejection metric.
func New(name string, limit rate.Limit, burst int) *KeyedLimiter {
	l := &KeyedLimiter{
		name:    name,
		limit:   limit,
		burst:   burst,
		ttl:     defaultIdleTTL,
		now:     time.Now,
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
	}
	go l.sweepLoop(time.Minute)
	return l
}

// Allow reports whether an event for key may happen now.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	now := l.now()
	e.lastSeen = now
	l.mu.Unlock()

	if e.limiter.AllowN(now, 1) {
		return true
	}
	metrics.APIRateLimitHits.WithLabelValues(l.name).Inc()
	return false
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Stop ends the sweep goroutine.
func (l *KeyedLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *KeyedLimiter) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep drops buckets idle for longer than the TTL.
func (l *KeyedLimiter) sweep() {
	cutoff := l.now().Add(-l.ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

package auth

import (
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// RateResult is the outcome of a RateLimiter check.
type RateResult struct {
	Success          bool
	Limit            int
	Remaining        int
	RemainingMinutes int
}

type rateEntry struct {
	count     int
	lastSeen  time.Time
	limitedAt time.Time
}

// expired reports whether e no longer counts at now: a lockout that has run
// its window, or an unlocked identity idle for a whole window.
func (e *rateEntry) expired(now time.Time, window time.Duration) bool {
	if !e.limitedAt.IsZero() {
		return now.Sub(e.limitedAt) > window
	}
	return now.Sub(e.lastSeen) > window
}

// RateLimiter counts attempts per identity. Once an identity goes over the
// limit it stays locked for one window measured from that moment, after
// which counting starts over. Identities idle for a window are evicted.
type RateLimiter struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries *expirable.LRU[string, *rateEntry]
}

// NewRateLimiter keeps at most capacity identities. The LRU's own TTL only
// bounds memory; whether an entry still counts is decided against l.now.
func NewRateLimiter(window time.Duration, capacity int) *RateLimiter {
	return &RateLimiter{
		window:  window,
		now:     time.Now,
		entries: expirable.NewLRU[string, *rateEntry](capacity, nil, window),
	}
}

// Check records an attempt for identity and reports whether it is allowed.
func (l *RateLimiter) Check(limit int, identity string) RateResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries.Get(identity)
	if !ok || e.expired(now, l.window) {
		e = &rateEntry{}
	}
	e.count++
	e.lastSeen = now
	if e.count > limit && e.limitedAt.IsZero() {
		e.limitedAt = now
	}
	l.entries.Add(identity, e)

	if !e.limitedAt.IsZero() {
		left := e.limitedAt.Add(l.window).Sub(now)
		minutes := max(1, int(math.Ceil(left.Minutes())))
		return RateResult{Success: false, Limit: limit, Remaining: 0, RemainingMinutes: minutes}
	}
	return RateResult{Success: true, Limit: limit, Remaining: limit - e.count}
}

package auth

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Rotator tracks when each live token value was last issued and swaps
// tokens older than the rotation interval for fresh ones. State is kept
// in process memory only; after a restart every token is rotated on its
// next use, which is harmless because tokens verify on their own.
type Rotator struct {
	tokens *TokenService
	after  time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen *expirable.LRU[string, time.Time]
}

// NewRotator keeps up to capacity tokens; entries expire with the tokens.
func NewRotator(tokens *TokenService, after time.Duration, capacity int) *Rotator {
	return &Rotator{
		tokens: tokens,
		after:  after,
		now:    time.Now,
		seen:   expirable.NewLRU[string, time.Time](capacity, nil, tokens.TTL()),
	}
}

// Track records token as issued now.
func (r *Rotator) Track(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen.Add(token, r.now())
}

// Rotate returns a replacement for token when it was never tracked or was
// issued more than the rotation interval ago. The caller must already have
// verified token and pass its claims.
func (r *Rotator) Rotate(token string, claims *Claims) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if last, ok := r.seen.Get(token); ok && now.Sub(last) <= r.after {
		return "", false, nil
	}
	fresh, err := r.tokens.Issue(claims.Username)
	if err != nil {
		return "", false, err
	}
	r.seen.Add(fresh, now)
	r.seen.Remove(token)
	return fresh, true, nil
}

// Forget drops token from tracking, on logout.
func (r *Rotator) Forget(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen.Remove(token)
}

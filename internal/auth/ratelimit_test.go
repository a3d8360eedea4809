package auth

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(clock *fakeClock, window time.Duration, capacity int) *RateLimiter {
	l := NewRateLimiter(window, capacity)
	l.now = clock.Now
	return l
}

func TestRateLimiter_LockoutAndReset(t *testing.T) {
	clock := newClock()
	l := newTestLimiter(clock, 5*time.Minute, 500)

	for i := 1; i <= 5; i++ {
		res := l.Check(5, "admin")
		require.True(t, res.Success, "attempt %d", i)
		assert.Equal(t, 5-i, res.Remaining)
	}

	res := l.Check(5, "admin")
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 5, res.RemainingMinutes)

	clock.Advance(2*time.Minute + 30*time.Second)
	res = l.Check(5, "admin")
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.RemainingMinutes)

	clock.Advance(2*time.Minute + 29*time.Second)
	res = l.Check(5, "admin")
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.RemainingMinutes)

	clock.Advance(2 * time.Second)
	res = l.Check(5, "admin")
	assert.True(t, res.Success)
	assert.Equal(t, 4, res.Remaining)
}

func TestRateLimiter_IdleIdentityStartsFresh(t *testing.T) {
	clock := newClock()
	l := newTestLimiter(clock, 5*time.Minute, 500)

	for i := 0; i < 4; i++ {
		require.True(t, l.Check(5, "admin").Success)
	}

	clock.Advance(5 * time.Minute)
	res := l.Check(5, "admin")
	require.True(t, res.Success)
	assert.Equal(t, 0, res.Remaining, "still inside the window")

	clock.Advance(5*time.Minute + time.Second)
	res = l.Check(5, "admin")
	require.True(t, res.Success)
	assert.Equal(t, 4, res.Remaining)
}

func TestRateLimiter_IdentitiesAreIndependent(t *testing.T) {
	l := newTestLimiter(newClock(), time.Minute, 500)
	for i := 0; i < 3; i++ {
		l.Check(2, "alice")
	}
	assert.False(t, l.Check(2, "alice").Success)

	res := l.Check(2, "bob")
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Remaining)
}

func TestRateLimiter_BoundedCapacity(t *testing.T) {
	l := newTestLimiter(newClock(), time.Minute, 3)
	for i := 0; i < 10; i++ {
		l.Check(5, fmt.Sprintf("user-%d", i))
	}
	assert.Equal(t, 3, l.entries.Len())
	assert.False(t, l.entries.Contains("user-0"))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	l := newTestLimiter(newClock(), time.Minute, 500)
	var wg sync.WaitGroup
	results := make(chan RateResult, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.Check(10, "admin")
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for res := range results {
		if res.Success {
			allowed++
		}
	}
	assert.Equal(t, 10, allowed)
}

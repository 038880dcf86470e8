package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Actions with their own budgets. Anything else uses the fallback limit.
const (
	ActionHTTP        = "http"
	ActionSendMessage = "send_message"
	ActionCreateRoom  = "create_room"
)

// Limit is a token bucket refilled at Rate tokens per second up to Burst.
type Limit struct {
	Rate  rate.Limit
	Burst int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	limits   map[string]Limit
	fallback Limit
	visitors map[string]*visitor
	mutex    sync.Mutex
	now      func() time.Time
}

// NewRateLimiter creates a limiter whose unknown actions share fallback.
// Messages are allowed 10 per minute and room creation 5 per hour.
func NewRateLimiter(fallback Limit) *RateLimiter {
	return &RateLimiter{
		limits: map[string]Limit{
			ActionHTTP:        fallback,
			ActionSendMessage: {Rate: rate.Every(6 * time.Second), Burst: 10},
			ActionCreateRoom:  {Rate: rate.Every(12 * time.Minute), Burst: 5},
		},
		fallback: fallback,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// SetLimit overrides the budget of action for buckets created afterwards.
func (rl *RateLimiter) SetLimit(action string, limit Limit) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.limits[action] = limit
}

// Allow consumes a token for key performing action. When none is left it
// reports how long the caller has to wait for the next one.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()
	v := rl.visitor(key+":"+action, action, now)

	reservation := v.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) visitor(bucketKey, action string, now time.Time) *visitor {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	v, ok := rl.visitors[bucketKey]
	if !ok {
		limit, known := rl.limits[action]
		if !known {
			limit = rl.fallback
		}
		v = &visitor{limiter: rate.NewLimiter(limit.Rate, limit.Burst)}
		rl.visitors[bucketKey] = v
	}
	v.lastSeen = now
	return v
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > maxIdle {
			delete(rl.visitors, key)
		}
	}
}

// Len is the number of live buckets.
func (rl *RateLimiter) Len() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.visitors)
}

// StartCleanupRoutine prunes idle buckets every interval until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}

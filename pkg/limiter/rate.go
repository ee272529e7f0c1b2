package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/spotcrime/pkg/timeutil"
)

// RateLimiter
// Enforces a minimum interval between consecutive live fetches to the same origin.
// Responsibilities:
// - Bookkeep each origin's last live fetch timestamp
// - Compute the remaining delay for an origin given base delay, backoff and jitter
// - Block callers until the origin may be contacted again
//
// Cache hits never touch the limiter; only the live-fetch path calls Wait.
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	Backoff(origin string)
	ResetBackoff(origin string)
	MarkLastFetchAsNow(origin string)
	ResolveDelay(origin string) time.Duration
	Wait(ctx context.Context, origin string) (time.Duration, error)
}

type ConcurrentRateLimiter struct {
	mu            sync.RWMutex
	rngMu         sync.Mutex
	baseDelay     time.Duration
	jitter        time.Duration
	backoffParam  timeutil.BackoffParam
	originTimings map[string]originTiming
	rng           *rand.Rand
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		originTimings: make(map[string]originTiming),
		backoffParam:  timeutil.NewBackoffParam(time.Second, 2.0, 30*time.Second),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		now:           time.Now,
		sleep:         timeutil.Sleep,
	}
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetBackoffParam(param timeutil.BackoffParam) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backoffParam = param
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// SetClock replaces the time source and sleeper, for tests.
func (r *ConcurrentRateLimiter) SetClock(
	now func() time.Time,
	sleep func(ctx context.Context, d time.Duration) error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.now = now
	r.sleep = sleep
}

// Backoff increments the origin's backoff counter and recomputes its delay.
func (r *ConcurrentRateLimiter) Backoff(origin string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.originTimings[origin]
	timing.backoffCount++
	timing.backoffDelay = timeutil.ExponentialBackoffDelay(timing.backoffCount, 0, nil, r.backoffParam)
	r.originTimings[origin] = timing
}

// ResetBackoff clears backoff state after a successful live fetch.
func (r *ConcurrentRateLimiter) ResetBackoff(origin string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing, exists := r.originTimings[origin]
	if exists {
		timing.backoffCount = 0
		timing.backoffDelay = 0
		r.originTimings[origin] = timing
	}
}

func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(origin string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.originTimings[origin]
	timing.lastFetchAt = r.now()
	r.originTimings[origin] = timing
}

func (r *ConcurrentRateLimiter) computeJitter(max time.Duration) time.Duration {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	return timeutil.ComputeJitter(max, r.rng)
}

// ResolveDelay returns how long the caller must still wait before contacting origin.
// FinalDelay = max(BaseDelay, BackoffDelay) + Jitter, minus time already elapsed.
// An origin never fetched before resolves to zero.
func (r *ConcurrentRateLimiter) ResolveDelay(origin string) time.Duration {
	r.mu.RLock()
	timing, exists := r.originTimings[origin]
	base := r.baseDelay
	jitter := r.jitter
	now := r.now
	r.mu.RUnlock()

	if !exists || timing.lastFetchAt.IsZero() {
		return 0
	}

	finalDelay := timeutil.MaxDuration([]time.Duration{base, timing.backoffDelay})
	finalDelay += r.computeJitter(jitter)

	elapsed := now().Sub(timing.lastFetchAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// Wait blocks until origin may be fetched and returns the time spent waiting.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, origin string) (time.Duration, error) {
	delay := r.ResolveDelay(origin)
	if delay <= 0 {
		return 0, ctx.Err()
	}

	r.mu.RLock()
	sleep := r.sleep
	r.mu.RUnlock()

	if err := sleep(ctx, delay); err != nil {
		return 0, err
	}
	return delay, nil
}

func (r *ConcurrentRateLimiter) BaseDelay() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseDelay
}

func (r *ConcurrentRateLimiter) Jitter() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jitter
}

func (r *ConcurrentRateLimiter) OriginTimings() map[string]originTiming {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copyMap := make(map[string]originTiming, len(r.originTimings))
	for k, v := range r.originTimings {
		copyMap[k] = v
	}
	return copyMap
}

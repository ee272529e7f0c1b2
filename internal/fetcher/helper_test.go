package fetcher_test

import (
	"context"
	"sync"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/metadata"
)

// recordingSink is a test double for metadata.MetadataSink
type recordingSink struct {
	mu           sync.Mutex
	fetchEvents  []fetchEvent
	errorEvents  []errorEvent
	cacheLookups []cacheLookup
	waits        []time.Duration
}

type fetchEvent struct {
	fetchUrl    string
	httpStatus  int
	contentType string
	retryCount  int
}

type errorEvent struct {
	packageName string
	action      string
	cause       metadata.ErrorCause
	details     string
}

type cacheLookup struct {
	key string
	hit bool
}

func (m *recordingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorEvents = append(m.errorEvents, errorEvent{
		packageName: packageName,
		action:      action,
		cause:       cause,
		details:     details,
	})
}

func (m *recordingSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchEvents = append(m.fetchEvents, fetchEvent{
		fetchUrl:    fetchUrl,
		httpStatus:  httpStatus,
		contentType: contentType,
		retryCount:  retryCount,
	})
}

func (m *recordingSink) RecordCacheLookup(key string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheLookups = append(m.cacheLookups, cacheLookup{key: key, hit: hit})
}

func (m *recordingSink) RecordRateLimitWait(origin string, waited time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits = append(m.waits, waited)
}

func (m *recordingSink) RecordArtifact(kind metadata.ArtifactKind, path string, attrs []metadata.Attribute) {
}

// fakeLimiter records every Wait and never sleeps.
type fakeLimiter struct {
	mu       sync.Mutex
	waits    []string
	marks    []string
	backoffs []string
	resets   []string
	delay    time.Duration
}

func (f *fakeLimiter) SetBaseDelay(baseDelay time.Duration) {}
func (f *fakeLimiter) SetJitter(jitter time.Duration)       {}
func (f *fakeLimiter) SetRandomSeed(randomSeed int64)       {}

func (f *fakeLimiter) Backoff(origin string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backoffs = append(f.backoffs, origin)
}

func (f *fakeLimiter) ResetBackoff(origin string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, origin)
}

func (f *fakeLimiter) MarkLastFetchAsNow(origin string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks = append(f.marks, origin)
}

func (f *fakeLimiter) ResolveDelay(origin string) time.Duration {
	return f.delay
}

func (f *fakeLimiter) Wait(ctx context.Context, origin string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, origin)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return f.delay, nil
}

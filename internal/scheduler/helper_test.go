package scheduler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/cache"
	"github.com/rohmanhakim/spotcrime/internal/fetcher"
	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/internal/scheduler"
	"github.com/rohmanhakim/spotcrime/internal/storage"
	"github.com/rohmanhakim/spotcrime/pkg/limiter"
	"github.com/rohmanhakim/spotcrime/pkg/retry"
	"github.com/stretchr/testify/require"
)

// sitePages maps request paths to fixture files.
var sitePages = map[string]string{
	"/":                                      "home.html",
	"/mi":                                    "state_mi.html",
	"/mi/ann+arbor/daily":                    "city_daily.html",
	"/mi/ann+arbor/daily-blotter/2020-04-14": "period_2020-04-14.html",
	"/mi/ann+arbor/daily-blotter/2020-04-13": "period_2020-04-13.html",
	"/crime/123456-theft":                    "detail.html",
}

type fakeSite struct {
	server *httptest.Server
	mu     sync.Mutex
	hits   map[string]int
	total  atomic.Int32
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	site := &fakeSite{hits: make(map[string]int)}
	site.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.total.Add(1)
		site.mu.Lock()
		site.hits[r.URL.Path]++
		site.mu.Unlock()

		name, ok := sitePages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		content, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(content)
	}))
	t.Cleanup(site.server.Close)
	return site
}

func (f *fakeSite) URL() string {
	return f.server.URL
}

func (f *fakeSite) Requests() int {
	return int(f.total.Load())
}

// errorRecordingSink is a test double that keeps recorded error causes
type errorRecordingSink struct {
	metadata.NoopSink
	mu     sync.Mutex
	causes []metadata.ErrorCause
}

func (e *errorRecordingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.causes = append(e.causes, cause)
}

// mockFinalizer is a test double that captures final query statistics
type mockFinalizer struct {
	calls   int
	queryID string
	periods int
	records int
	live    int
	hits    int
}

func (m *mockFinalizer) RecordFinalQueryStats(
	queryID string,
	periods int,
	records int,
	liveFetches int,
	cacheHits int,
	duration time.Duration,
) {
	m.calls++
	m.queryID = queryID
	m.periods = periods
	m.records = records
	m.live = liveFetches
	m.hits = cacheHits
}

type harness struct {
	site      *fakeSite
	scheduler *scheduler.Scheduler
	db        *storage.SQLiteSink
	cache     *cache.MemoryCache
	sink      *errorRecordingSink
	finalizer *mockFinalizer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	site := newFakeSite(t)
	sink := &errorRecordingSink{}
	finalizer := &mockFinalizer{}
	pageCache := cache.NewMemoryCache()

	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "Spotcrime.sqlite"), sink)
	require.Nil(t, err)
	t.Cleanup(func() { _ = db.Close() })

	htmlFetcher := fetcher.NewHtmlFetcher(sink, 5*time.Second)
	pages := fetcher.NewCachingFetcher(
		&htmlFetcher,
		pageCache,
		limiter.NewConcurrentRateLimiter(),
		sink,
		"spotcrime-test",
		retry.SingleAttempt(),
	)

	s := scheduler.NewScheduler(site.URL(), sink, finalizer, pages, db)
	counter := 0
	s.SetQueryIDGenerator(func() string {
		counter++
		return "query-" + string(rune('0'+counter))
	})

	return &harness{
		site:      site,
		scheduler: s,
		db:        db,
		cache:     pageCache,
		sink:      sink,
		finalizer: finalizer,
	}
}

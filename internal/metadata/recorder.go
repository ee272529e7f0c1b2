package metadata

import (
	"io"
	"time"

	charmlog "github.com/charmbracelet/log"
)

/*
Metadata Collected
- Fetch timestamps, status codes and durations
- Cache hits and misses
- Persisted artifacts (cache flushes, database rows)
- Per-query summaries

Metadata is write-only.
No component may read metadata to influence query decisions.
*/

/*
Recorder turns metadata events into structured log lines.
It must not:
- perform I/O decisions
- affect control flow
Events are written synchronously in the order they are received.
*/
type Recorder struct {
	logger *charmlog.Logger
}

// NewRecorder builds a Recorder that writes to w at the given level
// ("debug", "info", "warn", "error").
func NewRecorder(w io.Writer, level string) Recorder {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "spotcrime",
	})
	parsed, err := charmlog.ParseLevel(level)
	if err != nil {
		parsed = charmlog.InfoLevel
	}
	logger.SetLevel(parsed)
	return Recorder{logger: logger}
}

// NewRecorderWithLogger wraps an existing logger.
func NewRecorderWithLogger(logger *charmlog.Logger) Recorder {
	return Recorder{logger: logger}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	keyvals := []interface{}{
		"package", packageName,
		"action", action,
		"cause", cause.String(),
		"error", errorString,
		"observed_at", observedOrNow(observedAt).Format(time.RFC3339),
	}
	keyvals = append(keyvals, flattenAttrs(attrs)...)
	r.logger.Error("operation failed", keyvals...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
	r.logger.Info("fetched",
		"url", fetchUrl,
		"status", httpStatus,
		"duration", duration.Round(time.Millisecond),
		"content_type", contentType,
		"retries", retryCount,
	)
}

func (r *Recorder) RecordCacheLookup(key string, hit bool) {
	if hit {
		r.logger.Debug("using cache", "url", key)
		return
	}
	r.logger.Debug("cache miss, fetching", "url", key)
}

func (r *Recorder) RecordRateLimitWait(origin string, waited time.Duration) {
	r.logger.Debug("waited before live fetch", "origin", origin, "waited", waited.Round(time.Millisecond))
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	keyvals := []interface{}{"kind", string(kind), "path", path}
	keyvals = append(keyvals, flattenAttrs(attrs)...)
	r.logger.Debug("artifact written", keyvals...)
}

/*
RecordFinalQueryStats records a terminal, derived summary of a completed query.

Contract:
  - MUST be called exactly once per query execution, after it finishes.
  - The stats MUST be derived from orchestrator state.
  - Recorded stats MUST NOT influence control flow.
*/
func (r *Recorder) RecordFinalQueryStats(
	queryID string,
	periods int,
	records int,
	liveFetches int,
	cacheHits int,
	duration time.Duration,
) {
	stats := queryStats{
		queryID:    queryID,
		periods:    periods,
		records:    records,
		liveFetch:  liveFetches,
		cacheHits:  cacheHits,
		durationMs: duration.Milliseconds(),
	}
	r.logger.Info("query finished",
		"query_id", stats.queryID,
		"periods", stats.periods,
		"records", stats.records,
		"live_fetches", stats.liveFetch,
		"cache_hits", stats.cacheHits,
		"duration_ms", stats.durationMs,
	)
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
	)
	RecordCacheLookup(key string, hit bool)
	RecordRateLimitWait(origin string, waited time.Duration)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type QueryFinalizer interface {
	RecordFinalQueryStats(
		queryID string,
		periods int,
		records int,
		liveFetches int,
		cacheHits int,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink and QueryFinalizer but does nothing.
// Wiring code (or tests) decides whether to inject Recorder or NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
}

func (n *NoopSink) RecordCacheLookup(key string, hit bool) {}

func (n *NoopSink) RecordRateLimitWait(origin string, waited time.Duration) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordFinalQueryStats(
	queryID string,
	periods int,
	records int,
	liveFetches int,
	cacheHits int,
	duration time.Duration,
) {
}
